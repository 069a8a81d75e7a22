// Package cleanup runs the periodic sweep that drops stale lockout
// records. The sweep is independent of the login path: it runs on its
// own ticker and is safe to invoke concurrently with checks and
// recordings on the same store.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Sweeper exposes the stale-record sweep of the lockout service.
type Sweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

// Worker periodically removes stale lockout records.
type Worker struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *slog.Logger
}

// Option configures the Worker.
type Option func(*Worker)

// WithInterval overrides the sweep interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithLogger overrides the logger used for sweep errors.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New constructs a Worker with the required sweeper and options applied.
func New(sweeper Sweeper, opts ...Option) (*Worker, error) {
	if sweeper == nil {
		return nil, fmt.Errorf("sweeper is required")
	}
	w := &Worker{
		sweeper:  sweeper,
		interval: 5 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start runs the sweep periodically until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "lockout sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single sweep and returns the number of records removed.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	deleted, err := w.sweeper.SweepStale(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep stale lockout records: %w", err)
	}
	if deleted > 0 {
		w.logger.InfoContext(ctx, "removed stale lockout records", "count", deleted)
	}
	return deleted, nil
}
