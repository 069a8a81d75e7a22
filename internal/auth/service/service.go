package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"casefile/internal/audit"
	"casefile/internal/auth/models"
	"casefile/internal/auth/persistence"
	"casefile/internal/auth/tracer"
	"casefile/internal/platform/metrics"
	rlmodels "casefile/internal/ratelimit/models"
	"casefile/pkg/password"
	request "casefile/pkg/platform/middleware/request"
)

// UserStore defines the persistence interface for user data.
// Error Contract: all Find methods return store.ErrNotFound when the
// entity doesn't exist; Create returns store.ErrAlreadyExists on
// uniqueness violations.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash, salt string) error
}

// SessionStore defines the persistence interface for session data.
// Error Contract: FindByID returns store.ErrNotFound when the entity
// doesn't exist.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// RateLimiter gates login attempts per identity. One shared instance is
// injected; the service never constructs its own.
type RateLimiter interface {
	Check(ctx context.Context, username string) (*rlmodels.Result, error)
	RecordFailure(ctx context.Context, username string) error
	Clear(ctx context.Context, username string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	defaultSessionTTL    = 24 * time.Hour
	defaultRememberMeTTL = 30 * 24 * time.Hour
)

// Service orchestrates registration, login, logout, session validation,
// password change, and session restoration.
type Service struct {
	users          UserStore
	sessions       SessionStore
	limiter        RateLimiter
	hasher         *password.Hasher
	persistence    persistence.Handler
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         tracer.Tracer
	sessionTTL     time.Duration
	rememberMeTTL  time.Duration
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

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithSessionPersistence wires the platform store for the remembered
// session id. Without it, rememberMe logins still work but do not
// survive restarts.
func WithSessionPersistence(h persistence.Handler) Option {
	return func(s *Service) {
		s.persistence = h
	}
}

func WithHasher(h *password.Hasher) Option {
	return func(s *Service) {
		s.hasher = h
	}
}

// WithSessionTTL configures the lifetime of plain sessions.
// Zero or negative values are ignored.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithRememberMeTTL configures the lifetime of remembered sessions.
// Zero or negative values are ignored.
func WithRememberMeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.rememberMeTTL = ttl
		}
	}
}

func New(users UserStore, sessions SessionStore, limiter RateLimiter, opts ...Option) (*Service, error) {
	if users == nil || sessions == nil || limiter == nil {
		return nil, fmt.Errorf("user store, session store, and rate limiter are required")
	}

	svc := &Service{
		users:         users,
		sessions:      sessions,
		limiter:       limiter,
		sessionTTL:    defaultSessionTTL,
		rememberMeTTL: defaultRememberMeTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.hasher == nil {
		svc.hasher = password.NewHasher()
	}
	if svc.tracer == nil {
		svc.tracer = tracer.Noop()
	}
	return svc, nil
}

// hash derives a key and records derivation latency when metrics are wired.
func (s *Service) hash(ctx context.Context, plaintext, salt string) (string, error) {
	start := time.Now()
	hash, err := s.hasher.Hash(ctx, plaintext, salt)
	if s.metrics != nil {
		s.metrics.ObserveHashLatency(time.Since(start).Seconds())
	}
	return hash, err
}

// verify compares in constant time and records derivation latency when
// metrics are wired.
func (s *Service) verify(ctx context.Context, plaintext, salt, storedHash string) (bool, error) {
	start := time.Now()
	ok, err := s.hasher.Verify(ctx, plaintext, salt, storedHash)
	if s.metrics != nil {
		s.metrics.ObserveHashLatency(time.Since(start).Seconds())
	}
	return ok, err
}

func (s *Service) logAudit(ctx context.Context, event audit.Event, attributes ...any) {
	if requestID := request.GetRequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event.EventType), "success", event.Success, "log_type", "audit")
	s.logger.InfoContext(ctx, string(event.EventType), args...)

	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, event)
}

func (s *Service) logAuthFailure(ctx context.Context, reason string, attributes ...any) {
	if requestID := request.GetRequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", "auth_failed", "reason", reason, "log_type", "standard")
	s.logger.WarnContext(ctx, "auth_failed", args...)
}

func (s *Service) incrementLoginFailures() {
	if s.metrics != nil {
		s.metrics.IncrementLoginFailures()
	}
}
