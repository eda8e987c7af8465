package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/clock"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/chain"
)

// SourceSpec configures one provider inside the pool.
type SourceSpec struct {
	Source chain.BlockchainSource
	// MaxConcurrent caps in-flight requests against this provider.
	MaxConcurrent int
	// RequestsPerSecond paces dispatch to the provider's sustainable rate.
	RequestsPerSecond int
}

// Config tunes the pool's rotation and retry policy.
type Config struct {
	// MaxAttempts bounds request attempts per logical request across
	// all sources.
	MaxAttempts int
	// Cooldown is how long a throttled or unavailable source is kept
	// out of rotation.
	Cooldown time.Duration
	// RetryWait is the pause before re-dispatching when every source
	// is cooling down.
	RetryWait time.Duration
}

// DefaultConfig returns the pool policy used in production.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 6,
		Cooldown:    15 * time.Second,
		RetryWait:   500 * time.Millisecond,
	}
}

type pooledSource struct {
	src     chain.BlockchainSource
	sem     chan struct{}
	limiter ratelimit.Limiter

	mu        sync.Mutex
	coolUntil time.Time
}

func (ps *pooledSource) cooling(now time.Time) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return now.Before(ps.coolUntil)
}

func (ps *pooledSource) coolDown(d time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.coolUntil = time.Now().Add(d)
}

// Pool rotates requests across providers, enforcing per-source
// concurrency caps and pacing, applying cooldown on failure and a
// bounded retry budget per logical request.
type Pool struct {
	cfg     Config
	metrics PoolMetrics
	logger  *zap.Logger

	mu      sync.Mutex
	next    int
	sources []*pooledSource
}

// NewPool builds a pool over the given source specs. At least one
// source is required; a scan cannot run without upstream data.
func NewPool(specs []SourceSpec, cfg Config, metrics PoolMetrics, logger *zap.Logger) (*Pool, error) {
	if len(specs) == 0 {
		return nil, errors.New("at least one blockchain source is required")
	}
	if metrics == nil {
		return nil, errors.New("pool metrics is required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultConfig()
	}

	sources := make([]*pooledSource, 0, len(specs))
	for _, spec := range specs {
		if spec.Source == nil {
			return nil, errors.New("nil source in pool spec")
		}
		maxConcurrent := spec.MaxConcurrent
		if maxConcurrent <= 0 {
			maxConcurrent = 1
		}
		rps := spec.RequestsPerSecond
		if rps <= 0 {
			rps = 1
		}
		sources = append(sources, &pooledSource{
			src:     spec.Source,
			sem:     make(chan struct{}, maxConcurrent),
			limiter: ratelimit.New(rps),
		})
	}

	return &Pool{
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.Named("sourcePool"),
		sources: sources,
	}, nil
}

// Observed returns a view of the pool that reports every request
// attempt to the given observer, so one scan's progress counters see
// each attempt exactly once.
func (p *Pool) Observed(obs Observer) chain.BlockchainSource {
	return view{pool: p, obs: obs}
}

// Name identifies the pool when used directly as a source.
func (p *Pool) Name() string { return "pool" }

// CurrentHeight dispatches through the rotation.
func (p *Pool) CurrentHeight(ctx context.Context) (uint64, error) {
	return view{pool: p}.CurrentHeight(ctx)
}

// BlockHash dispatches through the rotation.
func (p *Pool) BlockHash(ctx context.Context, height uint64) (string, error) {
	return view{pool: p}.BlockHash(ctx, height)
}

// BlockTransactions dispatches through the rotation.
func (p *Pool) BlockTransactions(ctx context.Context, blockHash string) ([]string, error) {
	return view{pool: p}.BlockTransactions(ctx, blockHash)
}

// RawTransaction dispatches through the rotation.
func (p *Pool) RawTransaction(ctx context.Context, txid string) (*chain.Transaction, error) {
	return view{pool: p}.RawTransaction(ctx, txid)
}

// view is the pool seen through one observer.
type view struct {
	pool *Pool
	obs  Observer
}

func (v view) Name() string { return v.pool.Name() }

func (v view) CurrentHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := v.pool.do(ctx, v.obs, "current_height", func(ctx context.Context, src chain.BlockchainSource) error {
		h, err := src.CurrentHeight(ctx)
		if err != nil {
			return err
		}
		height = h
		return nil
	})
	return height, err
}

func (v view) BlockHash(ctx context.Context, height uint64) (string, error) {
	var hash string
	err := v.pool.do(ctx, v.obs, "block_hash", func(ctx context.Context, src chain.BlockchainSource) error {
		h, err := src.BlockHash(ctx, height)
		if err != nil {
			return err
		}
		hash = h
		return nil
	})
	return hash, err
}

func (v view) BlockTransactions(ctx context.Context, blockHash string) ([]string, error) {
	var txids []string
	err := v.pool.do(ctx, v.obs, "block_transactions", func(ctx context.Context, src chain.BlockchainSource) error {
		ids, err := src.BlockTransactions(ctx, blockHash)
		if err != nil {
			return err
		}
		txids = ids
		return nil
	})
	return txids, err
}

func (v view) RawTransaction(ctx context.Context, txid string) (*chain.Transaction, error) {
	var tx *chain.Transaction
	err := v.pool.do(ctx, v.obs, "raw_transaction", func(ctx context.Context, src chain.BlockchainSource) error {
		t, err := src.RawTransaction(ctx, txid)
		if err != nil {
			return err
		}
		tx = t
		return nil
	})
	return tx, err
}

func (p *Pool) do(ctx context.Context, obs Observer, op string, fn func(context.Context, chain.BlockchainSource) error) error {
	for attempt := 0; attempt < p.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		ps := p.pick()
		if ps == nil {
			// Every source is cooling down; waiting still consumes
			// budget so a dead upstream set cannot stall the caller.
			if err := clock.SleepWithContext(ctx, p.cfg.RetryWait); err != nil {
				return err
			}
			continue
		}

		select {
		case ps.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
		ps.limiter.Take()
		started := time.Now()
		err := fn(ctx, ps.src)
		<-ps.sem

		p.metrics.ObserveRequest(ps.src.Name(), op, err, started)
		if obs != nil {
			obs.RecordAPICall(err)
		}

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch {
		case errors.Is(err, chain.ErrNotFound):
			return err
		case errors.Is(err, chain.ErrSourceThrottled), errors.Is(err, chain.ErrSourceUnavailable):
			ps.coolDown(p.cfg.Cooldown)
			p.metrics.ObserveCooldown(ps.src.Name())
			p.logger.Warn("source cooling down",
				zap.String("source", ps.src.Name()),
				zap.String("operation", op),
				zap.Error(err))
		default:
			p.logger.Warn("source request failed",
				zap.String("source", ps.src.Name()),
				zap.String("operation", op),
				zap.Error(err))
		}
	}

	p.metrics.ObserveExhausted()
	return fmt.Errorf("%s: %w", op, chain.ErrAllSourcesExhausted)
}

// pick returns the next source in rotation, preferring one that is not
// cooling down and has a free concurrency slot. Returns nil when every
// source is cooling down.
func (p *Pool) pick() *pooledSource {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	var fallback *pooledSource
	for i := 0; i < len(p.sources); i++ {
		ps := p.sources[(p.next+i)%len(p.sources)]
		if ps.cooling(now) {
			continue
		}
		if fallback == nil {
			fallback = ps
		}
		if len(ps.sem) < cap(ps.sem) {
			p.next = (p.next + i + 1) % len(p.sources)
			return ps
		}
	}
	if fallback != nil {
		p.next = (p.next + 1) % len(p.sources)
	}
	return fallback
}
