package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
)

const (
	logCapacity = 200
	rateWindow  = 64
)

// tracker aggregates the progress counters for one scan. The scan's
// workers are its only writers; Snapshot hands out consistent copies.
type tracker struct {
	mu sync.Mutex

	scanID      string
	status      model.ScanStatus
	startBlock  uint64
	totalBlocks uint64
	startedAt   time.Time

	currentBlock    uint64
	blocksScanned   uint64
	signaturesFound uint64
	rReusePairs     uint64
	keysRecovered   uint64
	apiCalls        uint64
	errors          uint64
	skippedInputs   uint64

	logs []model.LogEntry
	// completions is a rolling window of block completion times used to
	// derive blocks-per-minute.
	completions []time.Time
}

func newTracker(job model.ScanJob) *tracker {
	return &tracker{
		scanID:      job.ID,
		status:      job.Status,
		startBlock:  job.StartBlock,
		totalBlocks: job.TotalBlocks(),
		startedAt:   time.Now(),
	}
}

// RecordAPICall implements source.Observer; every pool attempt for this
// scan lands here exactly once.
func (t *tracker) RecordAPICall(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apiCalls++
	if err != nil {
		t.errors++
	}
}

func (t *tracker) AddSignatures(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.signaturesFound += uint64(n)
}

func (t *tracker) AddSkipped(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.skippedInputs += uint64(n)
}

func (t *tracker) AddPairs(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rReusePairs += uint64(n)
}

func (t *tracker) AddRecoveredKey() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keysRecovered++
}

// BlockDone marks one block finished. blocksScanned only ever grows.
func (t *tracker) BlockDone(height uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.blocksScanned++
	if height > t.currentBlock {
		t.currentBlock = height
	}
	t.completions = append(t.completions, time.Now())
	if len(t.completions) > rateWindow {
		t.completions = t.completions[len(t.completions)-rateWindow:]
	}
}

func (t *tracker) SetStatus(status model.ScanStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	t.status = status
}

func (t *tracker) Status() model.ScanStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *tracker) Logf(level model.LogLevel, format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.logs = append(t.logs, model.LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   fmt.Sprintf(format, args...),
	})
	if len(t.logs) > logCapacity {
		t.logs = t.logs[len(t.logs)-logCapacity:]
	}
}

// Snapshot returns a consistent copy of the progress, with the derived
// rate and estimate fields filled in.
func (t *tracker) Snapshot() model.ScanProgress {
	t.mu.Lock()
	defer t.mu.Unlock()

	progress := model.ScanProgress{
		ScanID:                 t.scanID,
		Status:                 t.status,
		CurrentBlock:           t.currentBlock,
		BlocksScanned:          t.blocksScanned,
		TotalBlocks:            t.totalBlocks,
		SignaturesFound:        t.signaturesFound,
		RReusePairs:            t.rReusePairs,
		KeysRecovered:          t.keysRecovered,
		APICallsMade:           t.apiCalls,
		ErrorsEncountered:      t.errors,
		SkippedInputs:          t.skippedInputs,
		EstimatedTimeRemaining: "unknown",
		Logs:                   append([]model.LogEntry(nil), t.logs...),
		UpdatedAt:              time.Now().UTC(),
	}

	if t.totalBlocks > 0 {
		progress.ProgressPercentage = float64(t.blocksScanned) / float64(t.totalBlocks) * 100
	}

	progress.BlocksPerMinute = t.blocksPerMinuteLocked()
	if progress.BlocksPerMinute > 0 && t.blocksScanned < t.totalBlocks {
		remaining := float64(t.totalBlocks-t.blocksScanned) / progress.BlocksPerMinute
		if remaining < 60 {
			progress.EstimatedTimeRemaining = fmt.Sprintf("%.1f minutes", remaining)
		} else {
			progress.EstimatedTimeRemaining = fmt.Sprintf("%.1f hours", remaining/60)
		}
	}

	return progress
}

func (t *tracker) blocksPerMinuteLocked() float64 {
	if len(t.completions) == 0 {
		return 0
	}

	first := t.startedAt
	if len(t.completions) == rateWindow {
		first = t.completions[0]
	}
	elapsed := t.completions[len(t.completions)-1].Sub(first)
	if elapsed <= 0 {
		return 0
	}
	return float64(len(t.completions)) / elapsed.Minutes()
}
