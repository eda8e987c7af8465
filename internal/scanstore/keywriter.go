// Package scanstore composes the persistence backends for scan results.
package scanstore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
)

// KeySink receives flushed batches of recovered keys.
type KeySink interface {
	SaveRecoveredKeys(ctx context.Context, scanID string, keys []model.RecoveredKey) error
}

type keyEntry struct {
	scanID string
	key    model.RecoveredKey
}

// KeyWriter buffers recovered keys and flushes them to the sink by size
// or interval, rate limiting the writes so many scans finishing at once
// cannot stampede the database.
type KeyWriter struct {
	sink          KeySink
	itemsCh       chan keyEntry
	flushSize     int
	flushInterval time.Duration
	rl            ratelimit.Limiter
	logger        *zap.Logger

	wg   sync.WaitGroup
	stop chan struct{}
}

// NewKeyWriter constructs a KeyWriter.
func NewKeyWriter(logger *zap.Logger, sink KeySink, flushSize int, flushInterval time.Duration, rps int) *KeyWriter {
	return &KeyWriter{
		sink:          sink,
		itemsCh:       make(chan keyEntry, flushSize*2),
		flushSize:     flushSize,
		flushInterval: flushInterval,
		rl:            ratelimit.New(rps),
		logger:        logger,
		stop:          make(chan struct{}),
	}
}

// Start begins the background flushing loop.
func (w *KeyWriter) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop drains buffered keys and stops the loop.
func (w *KeyWriter) Stop() {
	close(w.stop)
	w.wg.Wait()
}

// Add queues one recovered key, respecting context cancellation.
func (w *KeyWriter) Add(ctx context.Context, scanID string, key model.RecoveredKey) error {
	select {
	case <-w.stop:
		return context.Canceled
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case w.itemsCh <- keyEntry{scanID: scanID, key: key}:
		return nil
	}
}

func (w *KeyWriter) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	buf := make([]keyEntry, 0, w.flushSize)

	flush := func() {
		if len(buf) == 0 {
			return
		}

		byScan := make(map[string][]model.RecoveredKey)
		for _, entry := range buf {
			byScan[entry.scanID] = append(byScan[entry.scanID], entry.key)
		}

		for scanID, keys := range byScan {
			w.rl.Take()
			if err := w.sink.SaveRecoveredKeys(ctx, scanID, keys); err != nil {
				w.logger.Error("recovered keys not flushed",
					zap.String("scan_id", scanID),
					zap.Int("keys", len(keys)),
					zap.Error(err))
				continue
			}
			w.logger.Debug("recovered keys flushed",
				zap.String("scan_id", scanID),
				zap.Int("keys", len(keys)))
		}
		buf = buf[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case <-w.stop:
			// Drain what is already queued before the final flush.
			for {
				select {
				case entry := <-w.itemsCh:
					buf = append(buf, entry)
					continue
				default:
				}
				break
			}
			flush()
			return

		case entry := <-w.itemsCh:
			buf = append(buf, entry)
			if len(buf) >= w.flushSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}
