// Package cleanup runs the periodic sweep that deletes expired sessions.
// Expired sessions are also rejected lazily on validation; the sweep just
// keeps the store from accumulating dead rows between lookups.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionCleaner exposes the expired-session sweep of the auth service.
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int, error)
}

// Worker periodically removes expired sessions.
type Worker struct {
	cleaner  SessionCleaner
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

// New constructs a Worker with the required cleaner and options applied.
func New(cleaner SessionCleaner, opts ...Option) (*Worker, error) {
	if cleaner == nil {
		return nil, fmt.Errorf("session cleaner is required")
	}
	w := &Worker{
		cleaner:  cleaner,
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
				w.logger.ErrorContext(ctx, "session sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single sweep and returns the number of sessions removed.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	deleted, err := w.cleaner.CleanupExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	if deleted > 0 {
		w.logger.InfoContext(ctx, "removed expired sessions", "count", deleted)
	}
	return deleted, nil
}
