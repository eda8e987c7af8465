package source

import "time"

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// PoolMetrics records metrics for pooled source requests.
	PoolMetrics interface {
		ObserveRequest(source, operation string, err error, started time.Time)
		ObserveCooldown(source string)
		ObserveExhausted()
	}

	// Observer receives per-attempt accounting for one logical caller,
	// typically the progress tracker of the scan that issued the request.
	Observer interface {
		RecordAPICall(err error)
	}
)
