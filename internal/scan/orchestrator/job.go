package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
)

// scanJob is a registry entry for one running or finished scan.
type scanJob struct {
	job     model.ScanJob
	tracker *tracker
	cancel  context.CancelFunc
	// done is closed once the scan's run loop has fully unwound and the
	// terminal status is set.
	done chan struct{}

	mu      sync.Mutex
	results []*model.RecoveredKey
}

func newScanJob(job model.ScanJob, cancel context.CancelFunc) *scanJob {
	return &scanJob{
		job:     job,
		tracker: newTracker(job),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (s *scanJob) setStarted(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job.Status = model.ScanRunning
	s.job.StartedAt = at
}

func (s *scanJob) setFinished(at time.Time, status model.ScanStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job.Status = status
	s.job.FinishedAt = at
}

func (s *scanJob) jobCopy() model.ScanJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.job
	job.AddressTypes = append([]model.AddressType(nil), s.job.AddressTypes...)
	return job
}

func (s *scanJob) addResult(key *model.RecoveredKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, key)
}

func (s *scanJob) resultsCopy() []*model.RecoveredKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.RecoveredKey(nil), s.results...)
}
