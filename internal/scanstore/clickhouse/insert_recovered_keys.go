package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
)

// SaveRecoveredKeys stores recovered keys for a scan.
func (r *Repository) SaveRecoveredKeys(ctx context.Context, scanID string, keys []model.RecoveredKey) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("save_recovered_keys", err, start)
	}()

	if len(keys) == 0 {
		return nil
	}

	const query = `
INSERT INTO recovered_keys (
	scan_id,
	r,
	private_key,
	public_key,
	compressed_address,
	uncompressed_address,
	validation_status,
	tx1_txid,
	tx1_input_index,
	tx2_txid,
	tx2_input_index,
	created_at
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare recovered keys batch: %w", err)
	}

	now := time.Now().UTC()
	for _, key := range keys {
		if err = batch.Append(
			scanID,
			key.R,
			key.PrivateKeyHex,
			key.PublicKey,
			key.CompressedAddress,
			key.UncompressedAddress,
			string(key.ValidationStatus),
			key.Tx1.TxID,
			key.Tx1.InputIndex,
			key.Tx2.TxID,
			key.Tx2.InputIndex,
			now,
		); err != nil {
			return fmt.Errorf("append recovered key: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert recovered keys: %w", err)
	}
	return nil
}
