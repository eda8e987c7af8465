package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
)

// RecoveredKeysByScan returns the recovered keys persisted for a scan.
func (r *Repository) RecoveredKeysByScan(ctx context.Context, scanID string) ([]model.RecoveredKey, error) {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("recovered_keys_by_scan", err, start)
	}()

	const query = `
SELECT
	r,
	private_key,
	public_key,
	compressed_address,
	uncompressed_address,
	validation_status,
	tx1_txid,
	tx1_input_index,
	tx2_txid,
	tx2_input_index
FROM recovered_keys
WHERE scan_id = ?
ORDER BY created_at`

	rows, err := r.conn.Query(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("query recovered keys: %w", err)
	}
	defer rows.Close()

	var keys []model.RecoveredKey
	for rows.Next() {
		var (
			key    model.RecoveredKey
			status string
		)
		if err = rows.Scan(
			&key.R,
			&key.PrivateKeyHex,
			&key.PublicKey,
			&key.CompressedAddress,
			&key.UncompressedAddress,
			&status,
			&key.Tx1.TxID,
			&key.Tx1.InputIndex,
			&key.Tx2.TxID,
			&key.Tx2.InputIndex,
		); err != nil {
			return nil, fmt.Errorf("scan recovered key: %w", err)
		}
		key.ValidationStatus = model.ValidationStatus(status)
		keys = append(keys, key)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recovered keys: %w", err)
	}
	return keys, nil
}
