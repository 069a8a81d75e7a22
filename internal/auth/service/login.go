package service

import (
	"context"
	"errors"
	"fmt"

	"casefile/internal/audit"
	"casefile/internal/auth/device"
	"casefile/internal/auth/models"
	userStore "casefile/internal/auth/store/user"
	"casefile/internal/auth/tracer"
	dErrors "casefile/pkg/domain-errors"
	requesttime "casefile/pkg/platform/middleware/requesttime"
	"casefile/pkg/secrets"
)

// invalidCredentials is the single message returned for unknown usernames
// and wrong passwords alike, so responses cannot be used to enumerate
// accounts. Inactive accounts get a distinct message: account status is
// not a secret.
const invalidCredentials = "Invalid credentials"

// LoginInput carries one login attempt.
type LoginInput struct {
	Username   string
	Password   string
	RememberMe bool
	IPAddress  string
	UserAgent  string
}

// LoginResult is a successful authentication outcome.
type LoginResult struct {
	User    *models.User
	Session *models.Session
}

// Login authenticates a user. The rate limiter is consulted before any
// user data is touched: a locked identity fails fast without key
// derivation, so lockout status cannot be told apart from a wrong
// password by timing, and locked attempts cost nothing.
func (s *Service) Login(ctx context.Context, input LoginInput) (result *LoginResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.login", tracer.Bool("remember_me", input.RememberMe))
	defer func() { span.End(err) }()

	check, checkErr := s.limiter.Check(ctx, input.Username)
	if checkErr != nil {
		err = dErrors.Wrap(checkErr, dErrors.CodeInternal, "failed to check rate limit")
		return nil, err
	}
	if !check.Allowed {
		s.auditLoginFailure(ctx, input, "", "Rate limit exceeded")
		s.incrementLoginFailures()
		minutes := (check.RetryAfter + 59) / 60
		if minutes < 1 {
			minutes = 1
		}
		err = dErrors.NewRateLimited(
			fmt.Sprintf("Account temporarily locked. Please try again in %d minutes.", minutes),
			check.RetryAfter,
		)
		return nil, err
	}

	user, findErr := s.users.FindByUsername(ctx, input.Username)
	if findErr != nil {
		if errors.Is(findErr, userStore.ErrNotFound) {
			// Count the failure under the same normalized key the
			// limiter uses, so probing unknown names still locks.
			s.recordFailure(ctx, input.Username)
			s.auditLoginFailure(ctx, input, "", "User not found")
			s.incrementLoginFailures()
			err = dErrors.New(dErrors.CodeUnauthorized, invalidCredentials)
			return nil, err
		}
		err = dErrors.Wrap(findErr, dErrors.CodeInternal, "failed to look up user")
		return nil, err
	}

	if !user.IsActive {
		s.recordFailure(ctx, input.Username)
		s.auditLoginFailure(ctx, input, user.ID.String(), "Account inactive")
		s.incrementLoginFailures()
		err = dErrors.New(dErrors.CodeForbidden, "Account is inactive")
		return nil, err
	}

	match, verifyErr := s.verify(ctx, input.Password, user.PasswordSalt, user.PasswordHash)
	if verifyErr != nil {
		err = dErrors.Wrap(verifyErr, dErrors.CodeInternal, "failed to verify credentials")
		return nil, err
	}
	if !match {
		s.recordFailure(ctx, input.Username)
		s.auditLoginFailure(ctx, input, user.ID.String(), "Invalid password")
		s.incrementLoginFailures()
		err = dErrors.New(dErrors.CodeUnauthorized, invalidCredentials)
		return nil, err
	}

	if clearErr := s.limiter.Clear(ctx, input.Username); clearErr != nil {
		s.logger.ErrorContext(ctx, "failed to clear login failures", "error", clearErr)
	}

	session, err := s.createSession(ctx, user, input)
	if err != nil {
		return nil, err
	}

	persisted := false
	if input.RememberMe {
		persisted = s.persistSessionID(ctx, session.ID)
	}

	now := requesttime.Now(ctx)
	if updateErr := s.users.UpdateLastLogin(ctx, user.ID, now); updateErr != nil {
		s.logger.ErrorContext(ctx, "failed to update last login", "error", updateErr, "user_id", user.ID.String())
	}
	user.LastLoginAt = &now

	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		EventType:    audit.EventUserLogin,
		UserID:       user.ID.String(),
		ResourceType: "session",
		ResourceID:   session.ID,
		Action:       "login",
		Success:      true,
		Details: map[string]string{
			"remember_me": fmt.Sprintf("%t", input.RememberMe),
			"persisted":   fmt.Sprintf("%t", persisted),
			"ip_address":  input.IPAddress,
		},
	}, "user_id", user.ID.String(), "remember_me", input.RememberMe, "persisted", persisted)

	if s.metrics != nil {
		s.metrics.IncrementLoginSuccesses()
		s.metrics.IncrementActiveSessions(1)
	}
	span.SetAttributes(tracer.String("user_id", user.ID.String()))

	return &LoginResult{User: user, Session: session}, nil
}

// createSession mints a brand-new session. The id is generated here and
// nowhere else; an id presented by a client before authentication is
// never adopted, which closes off session fixation.
func (s *Service) createSession(ctx context.Context, user *models.User, input LoginInput) (*models.Session, error) {
	id, err := secrets.Generate()
	if err != nil {
		return nil, err
	}

	ttl := s.sessionTTL
	if input.RememberMe {
		ttl = s.rememberMeTTL
	}

	now := requesttime.Now(ctx)
	session := &models.Session{
		ID:         id,
		UserID:     user.ID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		IPAddress:  input.IPAddress,
		UserAgent:  input.UserAgent,
		DeviceName: device.ParseUserAgent(input.UserAgent),
		RememberMe: input.RememberMe,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}
	return session, nil
}

// persistSessionID writes the remembered session id. Persistence is a
// convenience, not a requirement: any failure is logged and swallowed so
// the login itself still succeeds.
func (s *Service) persistSessionID(ctx context.Context, id string) bool {
	if s.persistence == nil || !s.persistence.IsAvailable() {
		return false
	}
	if err := s.persistence.StoreSessionID(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to persist remembered session", "error", err)
		return false
	}
	return true
}

func (s *Service) recordFailure(ctx context.Context, username string) {
	if err := s.limiter.RecordFailure(ctx, username); err != nil {
		s.logger.ErrorContext(ctx, "failed to record login failure", "error", err)
	}
}

// auditLoginFailure records a failed attempt with the real reason. The
// audit trail keeps the specific cause even though the error returned to
// the caller is deliberately generic.
func (s *Service) auditLoginFailure(ctx context.Context, input LoginInput, userID, reason string) {
	s.logAuthFailure(ctx, reason, "username", input.Username)
	s.logAudit(ctx, audit.Event{
		Timestamp:    requesttime.Now(ctx),
		EventType:    audit.EventUserLogin,
		UserID:       userID,
		ResourceType: "user",
		ResourceID:   input.Username,
		Action:       "login",
		Success:      false,
		Details: map[string]string{
			"reason":     reason,
			"ip_address": input.IPAddress,
		},
	})
}
