package lockout

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"casefile/internal/audit"
	"casefile/internal/platform/metrics"
	"casefile/internal/ratelimit/config"
	"casefile/internal/ratelimit/models"
	dErrors "casefile/pkg/domain-errors"
	requesttime "casefile/pkg/platform/middleware/requesttime"
)

// Store is the persistence boundary for failure records. Mutate must apply
// its callback atomically with respect to other calls for the same identity.
type Store interface {
	Get(ctx context.Context, identity string) (*models.LoginAttempt, error)
	Mutate(ctx context.Context, identity string, fn func(*models.LoginAttempt) *models.LoginAttempt) (*models.LoginAttempt, error)
	Clear(ctx context.Context, identity string) error
	Sweep(ctx context.Context, shouldDelete func(*models.LoginAttempt) bool) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the per-identity sliding-window failure counter with lockout.
// One instance is shared process-wide and injected into consumers; there is
// deliberately no package-level singleton.
type Service struct {
	store          Store
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	config         config.LockoutConfig
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConfig(cfg config.LockoutConfig) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("lockout store is required")
	}

	svc := &Service{
		store:  store,
		config: config.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// Config exposes the active policy, mainly so consumers can surface
// attempt budgets without duplicating constants.
func (s *Service) Config() config.LockoutConfig {
	return s.config
}

// Check decides whether a login attempt for the username may proceed.
// It never counts an attempt; callers record failures separately.
func (s *Service) Check(ctx context.Context, username string) (*models.Result, error) {
	identity := models.NormalizeIdentity(username)
	now := requesttime.Now(ctx)

	var result *models.Result
	_, err := s.store.Mutate(ctx, identity, func(record *models.LoginAttempt) *models.LoginAttempt {
		// No history: full budget.
		if record == nil {
			result = &models.Result{Allowed: true, AttemptsRemaining: s.config.MaxAttempts}
			return nil
		}

		// Actively locked: report remaining lock time.
		if record.IsLocked(now) {
			result = s.lockedResult(record.LockedUntil, now)
			return record
		}

		// Window slid past without an active lock: the episode is over,
		// drop the record and restore the full budget.
		if record.WindowExpired(now, s.config.Window) {
			result = &models.Result{Allowed: true, AttemptsRemaining: s.config.MaxAttempts}
			return nil
		}

		// At the cap but the lock was never set (the cap was crossed by a
		// concurrent recording): set it now so the lock episode starts here.
		if record.Count >= s.config.MaxAttempts {
			lockedUntil := now.Add(s.config.LockDuration)
			record.LockedUntil = &lockedUntil
			result = s.lockedResult(record.LockedUntil, now)
			return record
		}

		result = &models.Result{
			Allowed:           true,
			AttemptsRemaining: s.config.MaxAttempts - record.Count,
		}
		return record
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check lockout record")
	}
	return result, nil
}

// RecordFailure counts one failed login for the username. While an
// identity is locked only the last-attempt timestamp moves; the counter
// stays at the cap so the lock duration remains deterministic.
func (s *Service) RecordFailure(ctx context.Context, username string) error {
	identity := models.NormalizeIdentity(username)
	now := requesttime.Now(ctx)

	lockTriggered := false
	_, err := s.store.Mutate(ctx, identity, func(record *models.LoginAttempt) *models.LoginAttempt {
		if record == nil {
			return &models.LoginAttempt{
				Count:          1,
				FirstAttemptAt: now,
				LastAttemptAt:  now,
			}
		}

		if record.IsLocked(now) {
			record.LastAttemptAt = now
			return record
		}

		if record.WindowExpired(now, s.config.Window) {
			return &models.LoginAttempt{
				Count:          1,
				FirstAttemptAt: now,
				LastAttemptAt:  now,
			}
		}

		if record.Count < s.config.MaxAttempts {
			record.Count++
		}
		record.LastAttemptAt = now

		if record.Count >= s.config.MaxAttempts && !record.IsLocked(now) {
			lockedUntil := now.Add(s.config.LockDuration)
			record.LockedUntil = &lockedUntil
			lockTriggered = true
		}
		return record
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}

	if lockTriggered {
		s.logger.WarnContext(ctx, "brute force detected",
			"identity", identity,
			"attempts", s.config.MaxAttempts,
			"locked_for", s.config.LockDuration.String(),
		)
		if s.metrics != nil {
			s.metrics.IncrementLockouts()
		}
		s.emitAudit(ctx, identity, now)
	}
	return nil
}

// Clear removes the failure record for the username. Called on
// successful login so earlier failures stop counting against the budget.
func (s *Service) Clear(ctx context.Context, username string) error {
	identity := models.NormalizeIdentity(username)
	if err := s.store.Clear(ctx, identity); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear login failures")
	}
	return nil
}

// SweepStale deletes records whose lock (if any) has expired and whose
// last attempt fell outside the window. Actively locked records survive.
// Returns the number of records removed.
func (s *Service) SweepStale(ctx context.Context) (int, error) {
	now := requesttime.Now(ctx)
	deleted, err := s.store.Sweep(ctx, func(record *models.LoginAttempt) bool {
		return record.Stale(now, s.config.Window)
	})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sweep lockout records")
	}
	return deleted, nil
}

func (s *Service) lockedResult(lockedUntil *time.Time, now time.Time) *models.Result {
	retryAfter := int(math.Ceil(lockedUntil.Sub(now).Seconds()))
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &models.Result{
		Allowed:     false,
		RetryAfter:  retryAfter,
		LockedUntil: lockedUntil,
	}
}

func (s *Service) emitAudit(ctx context.Context, identity string, at time.Time) {
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp:    at,
		EventType:    audit.EventBruteForce,
		ResourceType: "account",
		ResourceID:   identity,
		Action:       "lockout",
		Success:      false,
		Details: map[string]string{
			"reason": "max failed login attempts exceeded",
		},
	})
}
