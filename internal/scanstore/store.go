package scanstore

import (
	"context"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
)

// ScanSink receives scan summary rows.
type ScanSink interface {
	SaveScan(ctx context.Context, job model.ScanJob, progress model.ScanProgress) error
}

// Store is the persistence facade handed to the scan orchestrator.
// Summaries are written through; recovered keys pass through the
// buffered KeyWriter.
type Store struct {
	scans  ScanSink
	writer *KeyWriter
}

func NewStore(scans ScanSink, writer *KeyWriter) *Store {
	return &Store{scans: scans, writer: writer}
}

func (s *Store) SaveScan(ctx context.Context, job model.ScanJob, progress model.ScanProgress) error {
	return s.scans.SaveScan(ctx, job, progress)
}

func (s *Store) SaveRecoveredKeys(ctx context.Context, scanID string, keys []model.RecoveredKey) error {
	for _, key := range keys {
		if err := s.writer.Add(ctx, scanID, key); err != nil {
			return err
		}
	}
	return nil
}
