// Package worker runs the asynchronous persistence loop: mutations raise a
// dirty flag, the saver writes the whole snapshot in the background. Saves
// are best-effort; failures are logged and never ripple back into state.
package worker

import (
	"context"
	"log/slog"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/persist"
)

// SnapshotSource is where the saver pulls state from when flushing.
type SnapshotSource interface {
	Snapshot() core.Snapshot
}

type Saver struct {
	gateway persist.Gateway
	source  SnapshotSource
	timeout time.Duration
	dirty   chan struct{}
}

func NewSaver(gateway persist.Gateway, source SnapshotSource, timeout time.Duration) *Saver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Saver{
		gateway: gateway,
		source:  source,
		timeout: timeout,
		dirty:   make(chan struct{}, 1),
	}
}

// Notify raises the dirty flag. Never blocks: pending signals coalesce,
// since every flush writes the whole current state anyway.
func (s *Saver) Notify() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// Run flushes on every dirty signal until the context is cancelled, then
// performs one final flush so shutdown does not lose the last mutations.
func (s *Saver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			// final flush on a fresh context; the loop's is already dead
			s.flush(context.Background())
			return ctx.Err()
		case <-s.dirty:
			s.flush(ctx)
		}
	}
}

func (s *Saver) flush(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap := s.source.Snapshot()
	if err := s.gateway.Save(ctx, snap); err != nil {
		// in-memory state stays authoritative; the next flush retries
		slog.ErrorContext(ctx, "Snapshot save failed",
			"error", err,
			"expenses", len(snap.Expenses))
		return
	}
	slog.DebugContext(ctx, "Snapshot saved",
		"expenses", len(snap.Expenses),
		"currencies", len(snap.Currencies),
		"rates", len(snap.ExchangeRates))
}
