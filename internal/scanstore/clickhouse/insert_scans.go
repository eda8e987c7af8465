package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
)

// SaveScan upserts the summary row of a scan. Rows are keyed by scan id;
// the table's ReplacingMergeTree keeps the latest version per key.
func (r *Repository) SaveScan(ctx context.Context, job model.ScanJob, progress model.ScanProgress) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("save_scan", err, start)
	}()

	const query = `
INSERT INTO reuse_scans (
	scan_id,
	start_block,
	end_block,
	address_types,
	status,
	current_block,
	blocks_scanned,
	total_blocks,
	signatures_found,
	r_reuse_pairs,
	keys_recovered,
	api_calls_made,
	errors_encountered,
	skipped_inputs,
	created_at,
	started_at,
	finished_at
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare scan batch: %w", err)
	}

	types := make([]string, 0, len(job.AddressTypes))
	for _, at := range job.AddressTypes {
		types = append(types, string(at))
	}

	if err = batch.Append(
		job.ID,
		job.StartBlock,
		job.EndBlock,
		types,
		string(job.Status),
		progress.CurrentBlock,
		progress.BlocksScanned,
		progress.TotalBlocks,
		progress.SignaturesFound,
		progress.RReusePairs,
		progress.KeysRecovered,
		progress.APICallsMade,
		progress.ErrorsEncountered,
		progress.SkippedInputs,
		job.CreatedAt,
		job.StartedAt,
		job.FinishedAt,
	); err != nil {
		return fmt.Errorf("append scan: %w", err)
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}
