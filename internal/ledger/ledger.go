package ledger

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"sentinelx/internal/config"
	"sentinelx/internal/model"
)

const lockStripes = 64

// Ledger serializes increments per plate hash over a durable Store and maps
// counts to escalation levels. Increments for distinct plates proceed
// independently; increments for the same plate queue on one stripe lock so
// counts are never lost or double-applied.
type Ledger struct {
	store  Store
	cfg    atomic.Value
	logger *slog.Logger
	locks  [lockStripes]sync.Mutex
}

func New(store Store, cfg config.LedgerConfig, logger *slog.Logger) *Ledger {
	l := &Ledger{store: store, logger: logger}
	l.cfg.Store(cfg)
	return l
}

func (l *Ledger) UpdateConfig(cfg config.LedgerConfig) {
	l.cfg.Store(cfg)
}

func (l *Ledger) config() config.LedgerConfig {
	return l.cfg.Load().(config.LedgerConfig)
}

// RecordAndEscalate counts one violation for the plate and returns the new
// count with its escalation level. Write failures are retried with backoff;
// once retries exhaust it returns ErrLedgerWrite with a zero count so the
// caller can surface the event as reportable but uncounted.
func (l *Ledger) RecordAndEscalate(ctx context.Context, plate string) (int64, int, error) {
	cfg := l.config()
	hash := HashPlate(plate)

	lock := &l.locks[stripe(hash)]
	lock.Lock()
	defer lock.Unlock()

	var count int64
	var err error
	for attempt := 0; attempt < cfg.RetryAttempts; attempt++ {
		count, err = l.store.Increment(ctx, hash, time.Now().UTC())
		if err == nil {
			return count, l.Level(count), nil
		}
		if ctx.Err() != nil {
			break
		}
		if l.logger != nil {
			l.logger.Warn("ledger increment failed, retrying", "attempt", attempt+1, "err", err)
		}
		select {
		case <-time.After(cfg.RetryBackoff):
		case <-ctx.Done():
		}
	}
	return 0, 0, fmt.Errorf("%w: %v", model.ErrLedgerWrite, err)
}

// Level derives the escalation tier for a violation count from the configured
// thresholds: 0 below the first, 1 from the first, 2 from the second.
func (l *Ledger) Level(count int64) int {
	cfg := l.config()
	switch {
	case count >= cfg.SecondThreshold:
		return 2
	case count >= cfg.FirstThreshold:
		return 1
	default:
		return 0
	}
}

// Lookup returns the offender record for a raw plate, with its level filled in.
func (l *Ledger) Lookup(ctx context.Context, plate string) (model.OffenderRecord, bool, error) {
	rec, ok, err := l.store.Get(ctx, HashPlate(plate))
	if err != nil || !ok {
		return model.OffenderRecord{}, ok, err
	}
	rec.Level = l.Level(rec.Violations)
	return rec, true, nil
}

func stripe(hash string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(hash))
	return int(h.Sum32() % lockStripes)
}
