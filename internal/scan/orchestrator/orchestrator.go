package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/clock"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/chain"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/recovery"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/rindex"
	"github.com/goodnatureofminers/keyinsight7000-backend/pkg/workerpool"
)

var (
	// ErrInvalidRange means the submitted block range is empty or wider
	// than the configured limit.
	ErrInvalidRange = errors.New("invalid block range")
	// ErrScanNotFound means no scan with the given id is registered.
	ErrScanNotFound = errors.New("scan not found")
	// ErrScanRunning means the scan has not reached a terminal status yet.
	ErrScanRunning = errors.New("scan still running")
)

// Config bounds the concurrency and retry behaviour of a scan.
type Config struct {
	BlockWorkers   int
	TxWorkers      int
	MaxRangeBlocks uint64
	BlockRetries   int
	RetryWait      time.Duration
	PersistTimeout time.Duration
}

// DefaultConfig returns sane defaults for public API sources.
func DefaultConfig() Config {
	return Config{
		BlockWorkers:   4,
		TxWorkers:      8,
		MaxRangeBlocks: 10_000,
		BlockRetries:   3,
		RetryWait:      2 * time.Second,
		PersistTimeout: 30 * time.Second,
	}
}

// Orchestrator owns the scan lifecycle: it validates submissions, runs
// each scan on background worker pools and serves progress snapshots.
type Orchestrator struct {
	pool      SourcePool
	extractor Extractor
	recoverer Recoverer
	store     Store
	metrics   Metrics
	logger    *zap.Logger
	cfg       Config

	mu   sync.RWMutex
	jobs map[string]*scanJob
}

// New builds an orchestrator. store may be nil when persistence is
// disabled; everything else is required.
func New(
	pool SourcePool,
	extractor Extractor,
	recoverer Recoverer,
	store Store,
	metrics Metrics,
	logger *zap.Logger,
	cfg Config,
) (*Orchestrator, error) {
	if pool == nil || extractor == nil || recoverer == nil || metrics == nil {
		return nil, errors.New("orchestrator: missing dependency")
	}
	def := DefaultConfig()
	if cfg.BlockWorkers <= 0 {
		cfg.BlockWorkers = def.BlockWorkers
	}
	if cfg.TxWorkers <= 0 {
		cfg.TxWorkers = def.TxWorkers
	}
	if cfg.MaxRangeBlocks == 0 {
		cfg.MaxRangeBlocks = def.MaxRangeBlocks
	}
	if cfg.BlockRetries <= 0 {
		cfg.BlockRetries = def.BlockRetries
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = def.RetryWait
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = def.PersistTimeout
	}
	return &Orchestrator{
		pool:      pool,
		extractor: extractor,
		recoverer: recoverer,
		store:     store,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		jobs:      make(map[string]*scanJob),
	}, nil
}

// StartScan validates the range, registers a new scan and launches it
// in the background. The returned job is the accepted submission.
func (o *Orchestrator) StartScan(start, end uint64, addressTypes []model.AddressType) (model.ScanJob, error) {
	maxRange := o.config().MaxRangeBlocks
	if end < start {
		return model.ScanJob{}, fmt.Errorf("start %d after end %d: %w", start, end, ErrInvalidRange)
	}
	if span := end - start + 1; span > maxRange {
		return model.ScanJob{}, fmt.Errorf("range of %d blocks exceeds limit %d: %w", span, maxRange, ErrInvalidRange)
	}
	if len(addressTypes) == 0 {
		addressTypes = []model.AddressType{model.Legacy, model.Segwit, model.Taproot}
	}

	job := model.ScanJob{
		ID:           uuid.NewString(),
		StartBlock:   start,
		EndBlock:     end,
		AddressTypes: append([]model.AddressType(nil), addressTypes...),
		Status:       model.ScanPending,
		CreatedAt:    time.Now().UTC(),
	}

	runCtx, cancel := context.WithCancel(context.Background())
	entry := newScanJob(job, cancel)

	o.mu.Lock()
	o.jobs[job.ID] = entry
	o.mu.Unlock()

	o.metrics.ObserveScanStarted()
	o.logger.Info("scan accepted",
		zap.String("scan_id", job.ID),
		zap.Uint64("start_block", start),
		zap.Uint64("end_block", end))

	go o.run(runCtx, entry)

	return job, nil
}

// Progress returns the current progress snapshot for a scan.
func (o *Orchestrator) Progress(scanID string) (model.ScanProgress, error) {
	entry, err := o.lookup(scanID)
	if err != nil {
		return model.ScanProgress{}, err
	}
	return entry.tracker.Snapshot(), nil
}

// Results returns the recovered keys of a finished scan. A scan that is
// still running yields ErrScanRunning.
func (o *Orchestrator) Results(scanID string) ([]*model.RecoveredKey, error) {
	entry, err := o.lookup(scanID)
	if err != nil {
		return nil, err
	}
	if !entry.tracker.Status().Terminal() {
		return nil, fmt.Errorf("scan %s: %w", scanID, ErrScanRunning)
	}
	return entry.resultsCopy(), nil
}

// StopScan cancels a running scan and waits for its workers to drain.
// Stopping an already finished scan is a no-op.
func (o *Orchestrator) StopScan(ctx context.Context, scanID string) error {
	entry, err := o.lookup(scanID)
	if err != nil {
		return err
	}
	entry.cancel()
	select {
	case <-entry.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Config returns the currently applied scan tuning.
func (o *Orchestrator) Config() Config {
	return o.config()
}

// UpdateConfig adjusts worker counts and the range limit at runtime.
// Zero fields keep their current value. New values apply to scans
// accepted afterwards.
func (o *Orchestrator) UpdateConfig(blockWorkers, txWorkers int, maxRangeBlocks uint64) Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	if blockWorkers > 0 {
		o.cfg.BlockWorkers = blockWorkers
	}
	if txWorkers > 0 {
		o.cfg.TxWorkers = txWorkers
	}
	if maxRangeBlocks > 0 {
		o.cfg.MaxRangeBlocks = maxRangeBlocks
	}
	return o.cfg
}

func (o *Orchestrator) config() Config {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cfg
}

// Job returns the submission parameters of a scan with its live status.
func (o *Orchestrator) Job(scanID string) (model.ScanJob, error) {
	entry, err := o.lookup(scanID)
	if err != nil {
		return model.ScanJob{}, err
	}
	return entry.jobCopy(), nil
}

// List returns progress snapshots for every known scan, newest first.
func (o *Orchestrator) List() []model.ScanProgress {
	o.mu.RLock()
	entries := make([]*scanJob, 0, len(o.jobs))
	for _, entry := range o.jobs {
		entries = append(entries, entry)
	}
	o.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].job.CreatedAt.After(entries[j].job.CreatedAt)
	})

	out := make([]model.ScanProgress, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.tracker.Snapshot())
	}
	return out
}

func (o *Orchestrator) lookup(scanID string) (*scanJob, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	entry, ok := o.jobs[scanID]
	if !ok {
		return nil, fmt.Errorf("scan %s: %w", scanID, ErrScanNotFound)
	}
	return entry, nil
}

func (o *Orchestrator) run(ctx context.Context, entry *scanJob) {
	defer close(entry.done)

	tr := entry.tracker
	job := entry.job
	started := time.Now()
	entry.setStarted(started.UTC())

	tr.SetStatus(model.ScanRunning)
	tr.Logf(model.LogInfo, "scan started for blocks %d-%d", job.StartBlock, job.EndBlock)

	src := o.pool.Observed(tr)
	index := rindex.NewIndex()
	cfg := o.config()

	var failedBlocks atomic.Uint64

	tasks := make(chan uint64, cfg.BlockWorkers)
	wg := sync.WaitGroup{}
	for i := 0; i < cfg.BlockWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case height, ok := <-tasks:
					if !ok {
						return
					}
					if err := o.processBlock(ctx, entry, src, index, height); err != nil {
						if ctx.Err() != nil {
							return
						}
						failedBlocks.Add(1)
						tr.Logf(model.LogError, "skipping block %d: %v", height, err)
						o.logger.Warn("block skipped",
							zap.String("scan_id", job.ID),
							zap.Uint64("height", height),
							zap.Error(err))
					}
					tr.BlockDone(height)
				}
			}
		}()
	}

	go func() {
		defer close(tasks)
		for h := job.StartBlock; h <= job.EndBlock; h++ {
			select {
			case <-ctx.Done():
				return
			case tasks <- h:
			}
		}
	}()

	wg.Wait()

	status := model.ScanCompleted
	switch {
	case ctx.Err() != nil:
		status = model.ScanStopped
	case failedBlocks.Load() == job.TotalBlocks():
		status = model.ScanFailed
	}

	entry.setFinished(time.Now().UTC(), status)
	tr.SetStatus(status)
	final := tr.Snapshot()
	tr.Logf(levelFor(status), "scan %s: %d blocks, %d signatures, %d keys",
		status, final.BlocksScanned, final.SignaturesFound, final.KeysRecovered)
	o.metrics.ObserveScanFinished(string(status), started)

	o.logger.Info("scan finished",
		zap.String("scan_id", job.ID),
		zap.String("status", string(status)),
		zap.Duration("elapsed", time.Since(started)))

	o.persist(entry)
}

func levelFor(status model.ScanStatus) model.LogLevel {
	switch status {
	case model.ScanCompleted:
		return model.LogSuccess
	case model.ScanFailed:
		return model.LogError
	}
	return model.LogWarning
}

// processBlock fetches and scans one block, retrying a bounded number
// of times when every source in the pool was exhausted.
func (o *Orchestrator) processBlock(
	ctx context.Context,
	entry *scanJob,
	src chain.BlockchainSource,
	index *rindex.Index,
	height uint64,
) (err error) {
	started := time.Now()
	defer func() {
		o.metrics.ObserveBlock(err, started)
	}()

	cfg := o.config()
	for attempt := 1; ; attempt++ {
		err = o.scanBlock(ctx, entry, src, index, height)
		if err == nil || !errors.Is(err, chain.ErrAllSourcesExhausted) || attempt >= cfg.BlockRetries {
			return err
		}
		entry.tracker.Logf(model.LogWarning, "retrying block %d (attempt %d): %v", height, attempt, err)
		if err := clock.SleepWithContext(ctx, cfg.RetryWait); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) scanBlock(
	ctx context.Context,
	entry *scanJob,
	src chain.BlockchainSource,
	index *rindex.Index,
	height uint64,
) error {
	hash, err := src.BlockHash(ctx, height)
	if err != nil {
		return fmt.Errorf("block hash at height %d: %w", height, err)
	}
	txids, err := src.BlockTransactions(ctx, hash)
	if err != nil {
		return fmt.Errorf("transactions of block %s: %w", hash, err)
	}

	// A transaction error fails the whole block so the bounded retry in
	// processBlock can re-run it; the index dedups already-seen inputs.
	err = workerpool.Process(ctx, o.config().TxWorkers, txids, func(ctx context.Context, txid string) error {
		return o.scanTransaction(ctx, entry, src, index, txid)
	}, nil)
	if err != nil {
		return fmt.Errorf("block %d: %w", height, err)
	}
	return nil
}

func (o *Orchestrator) scanTransaction(
	ctx context.Context,
	entry *scanJob,
	src chain.BlockchainSource,
	index *rindex.Index,
	txid string,
) error {
	tx, err := src.RawTransaction(ctx, txid)
	if err != nil {
		return fmt.Errorf("tx %s: %w", txid, err)
	}

	records, skipped, err := o.extractor.Extract(tx, entry.job.AddressTypes)
	if err != nil {
		// Undecodable transaction bodies are data problems, not scan
		// failures. Record and move on.
		entry.tracker.AddSkipped(1)
		entry.tracker.Logf(model.LogWarning, "undecodable tx %s: %v", txid, err)
		return nil
	}
	if skipped > 0 {
		entry.tracker.AddSkipped(skipped)
	}
	if len(records) == 0 {
		return nil
	}

	entry.tracker.AddSignatures(len(records))
	for _, record := range records {
		o.metrics.ObserveSignature(string(record.AddressType))
		if !record.Recoverable() {
			continue
		}
		for _, pair := range index.Insert(record) {
			entry.tracker.AddPairs(1)
			o.resolvePair(entry, pair)
		}
	}
	return nil
}

func (o *Orchestrator) resolvePair(entry *scanJob, pair rindex.Collision) {
	tr := entry.tracker
	key, err := o.recoverer.Recover(pair)
	if err != nil {
		if benignRecoveryErr(err) {
			tr.Logf(model.LogWarning, "pair %s/%s not recoverable: %v",
				pair.Existing.TxID, pair.New.TxID, err)
			return
		}
		tr.Logf(model.LogError, "key recovery failed for %s/%s: %v",
			pair.Existing.TxID, pair.New.TxID, err)
		o.logger.Error("key recovery failed",
			zap.String("scan_id", entry.job.ID),
			zap.String("tx1", pair.Existing.TxID),
			zap.String("tx2", pair.New.TxID),
			zap.Error(err))
		return
	}

	entry.addResult(key)
	tr.AddRecoveredKey()
	o.metrics.ObserveRecoveredKey(string(key.ValidationStatus))
	tr.Logf(model.LogSuccess, "recovered private key from r reuse in %s and %s",
		pair.Existing.TxID, pair.New.TxID)
	o.logger.Info("private key recovered",
		zap.String("scan_id", entry.job.ID),
		zap.String("r", key.R),
		zap.String("address", key.CompressedAddress),
		zap.String("validation", string(key.ValidationStatus)))
}

// benignRecoveryErr reports whether a recovery failure is an expected
// property of the pair rather than a fault worth surfacing as an error.
func benignRecoveryErr(err error) bool {
	return errors.Is(err, recovery.ErrDuplicateSignature) ||
		errors.Is(err, recovery.ErrNonInvertible) ||
		errors.Is(err, recovery.ErrUnsupportedScheme) ||
		errors.Is(err, recovery.ErrPairProcessed)
}

func (o *Orchestrator) persist(entry *scanJob) {
	if o.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), o.config().PersistTimeout)
	defer cancel()

	job := entry.jobCopy()
	if err := o.store.SaveScan(ctx, job, entry.tracker.Snapshot()); err != nil {
		o.logger.Error("persist scan summary failed",
			zap.String("scan_id", job.ID), zap.Error(err))
	}

	results := entry.resultsCopy()
	if len(results) == 0 {
		return
	}
	keys := make([]model.RecoveredKey, 0, len(results))
	for _, key := range results {
		keys = append(keys, *key)
	}
	if err := o.store.SaveRecoveredKeys(ctx, job.ID, keys); err != nil {
		o.logger.Error("persist recovered keys failed",
			zap.String("scan_id", job.ID), zap.Error(err))
	}
}
