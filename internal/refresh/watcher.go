package refresh

import (
	"context"
	"errors"
	"time"

	"tokenwise/internal/logger"
	"tokenwise/internal/solana"
)

// DefaultDebounce is the minimum gap between watcher-triggered refreshes.
const DefaultDebounce = time.Minute

// Watcher refreshes when the tracked mint shows up in program logs.
type Watcher struct {
	sub       solana.LogsSubscriber
	refresher Refresher
	mint      string
	debounce  time.Duration
	log       *logger.Logger
}

// NewWatcher creates a watcher. debounce <= 0 uses DefaultDebounce.
func NewWatcher(sub solana.LogsSubscriber, refresher Refresher, mint string, debounce time.Duration, log *logger.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Watcher{
		sub:       sub,
		refresher: refresher,
		mint:      mint,
		debounce:  debounce,
		log:       log.Named("watcher"),
	}
}

// Run blocks until ctx is cancelled. Notifications arriving while a
// refresh is pending are coalesced into it.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(chan struct{}, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.loop(ctx, pending)
	}()

	err := w.sub.Subscribe(ctx, solana.LogsFilter{Mentions: []string{w.mint}}, func(n solana.LogNotification) {
		if n.Err != nil {
			return
		}
		select {
		case pending <- struct{}{}:
		default:
		}
	})
	<-done
	return err
}

func (w *Watcher) loop(ctx context.Context, pending <-chan struct{}) {
	var last time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-pending:
		}

		if !last.IsZero() {
			if wait := w.debounce - time.Since(last); wait > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(wait):
				}
			}
		}
		last = time.Now()

		res, err := w.refresher.Refresh(ctx)
		switch {
		case errors.Is(err, ErrRefreshInProgress):
			w.log.Debugw("refresh already running, skipping")
		case err != nil:
			if ctx.Err() == nil {
				w.log.Warnw("triggered refresh failed", "error", err)
			}
		default:
			w.log.Infow("triggered refresh finished", "run_id", res.RunID, "transactions", res.Transactions)
		}
	}
}
