package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/column"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Metrics records repository operation outcomes.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}

	// Conn is the slice of the ClickHouse driver connection the
	// repository needs. Satisfied by clickhouse.Conn.
	Conn interface {
		PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error)
		Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
		Close() error
	}

	// Batch mirrors driver.Batch so its mock satisfies the driver
	// interface in tests.
	Batch interface {
		Abort() error
		Append(v ...any) error
		AppendStruct(v any) error
		Column(i int) driver.BatchColumn
		Flush() error
		Send() error
		IsSent() bool
		Rows() int
		Columns() []column.Interface
		Close() error
	}

	// Rows mirrors driver.Rows for the same reason.
	Rows interface {
		Next() bool
		Scan(dest ...any) error
		ScanStruct(dest any) error
		ColumnTypes() []driver.ColumnType
		Totals(dest ...any) error
		Columns() []string
		Close() error
		Err() error
	}
)
