// Package memory holds scan results in process memory. It backs the API
// when no ClickHouse DSN is configured.
package memory

import (
	"context"
	"sync"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
)

type scanRecord struct {
	job      model.ScanJob
	progress model.ScanProgress
}

// Store is a map-backed stand-in for the ClickHouse repository.
type Store struct {
	mu    sync.RWMutex
	scans map[string]scanRecord
	keys  map[string][]model.RecoveredKey
}

func NewStore() *Store {
	return &Store{
		scans: make(map[string]scanRecord),
		keys:  make(map[string][]model.RecoveredKey),
	}
}

func (s *Store) SaveScan(_ context.Context, job model.ScanJob, progress model.ScanProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans[job.ID] = scanRecord{job: job, progress: progress}
	return nil
}

func (s *Store) SaveRecoveredKeys(_ context.Context, scanID string, keys []model.RecoveredKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[scanID] = append(s.keys[scanID], keys...)
	return nil
}

func (s *Store) RecoveredKeysByScan(_ context.Context, scanID string) ([]model.RecoveredKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.RecoveredKey(nil), s.keys[scanID]...), nil
}

// Scan returns the stored summary for a scan id.
func (s *Store) Scan(scanID string) (model.ScanJob, model.ScanProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.scans[scanID]
	return record.job, record.progress, ok
}
