package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrSweepUnsupported is returned when the collection cannot bulk-delete
// expired records.
var ErrSweepUnsupported = errors.New("collection does not support removing expired records")

// DefaultSweepInterval is used by NewSweeper when interval is not positive.
const DefaultSweepInterval = 10 * time.Minute

// Sweeper periodically deletes expired records. It supplements read-time
// deletion in Get; it does not replace it. A sweep covers the whole
// collection, not just the store's prefix.
type Sweeper struct {
	store    *Store
	interval time.Duration
}

// NewSweeper creates a sweeper for s.
func NewSweeper(s *Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{store: s, interval: interval}
}

// SweepOnce removes every record whose expiration is at or before now.
func (w *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	r, ok := w.store.coll.(ExpiredRemover)
	if !ok {
		return 0, ErrSweepUnsupported
	}
	n, err := r.RemoveExpired(ctx, w.store.now())
	if err != nil {
		return 0, fmt.Errorf("sweep expired: %w", err)
	}
	return n, nil
}

// Run sweeps on every tick until ctx is done. Failed passes are logged and
// retried on the next tick.
func (w *Sweeper) Run(ctx context.Context) error {
	if _, ok := w.store.coll.(ExpiredRemover); !ok {
		return ErrSweepUnsupported
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := w.SweepOnce(ctx)
			if err != nil {
				w.store.log.Warn().Err(err).Msg("sweep failed")
				continue
			}
			if n > 0 {
				w.store.log.Debug().Int64("removed", n).Msg("swept expired records")
			}
		}
	}
}
