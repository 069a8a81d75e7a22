package service

import (
	"context"
	"errors"
	"strconv"

	"casefile/internal/audit"
	"casefile/internal/auth/models"
	sessionStore "casefile/internal/auth/store/session"
	"casefile/internal/auth/tracer"
	dErrors "casefile/pkg/domain-errors"
	requesttime "casefile/pkg/platform/middleware/requesttime"
)

// Logout deletes a session. Logging out a session that no longer exists
// is not an error; the end state is the same.
func (s *Service) Logout(ctx context.Context, sessionID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.logout")
	defer func() { span.End(err) }()

	if sessionID == "" {
		return nil
	}

	session, findErr := s.sessions.FindByID(ctx, sessionID)
	if findErr != nil {
		if errors.Is(findErr, sessionStore.ErrNotFound) {
			return nil
		}
		err = dErrors.Wrap(findErr, dErrors.CodeInternal, "failed to look up session")
		return err
	}

	if session.RememberMe {
		s.clearPersistedSession(ctx, session.ID)
	}

	if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
		err = dErrors.Wrap(deleteErr, dErrors.CodeInternal, "failed to delete session")
		return err
	}

	s.logAudit(ctx, audit.Event{
		Timestamp:    requesttime.Now(ctx),
		EventType:    audit.EventUserLogout,
		UserID:       session.UserID.String(),
		ResourceType: "session",
		ResourceID:   session.ID,
		Action:       "logout",
		Success:      true,
	}, "user_id", session.UserID.String())

	if s.metrics != nil {
		s.metrics.DecrementActiveSessions(1)
	}
	return nil
}

// ValidateSession resolves a session id to its owning user. It returns
// (nil, nil) for empty, unknown, and expired ids; only infrastructure
// failures surface as errors. Expired sessions are deleted on sight.
// Deactivation is not re-checked here: an existing session outlives a
// later isActive flip until it expires or is explicitly invalidated.
func (s *Service) ValidateSession(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sessionStore.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up session")
	}

	if session.IsExpired(requesttime.Now(ctx)) {
		if deleteErr := s.sessions.Delete(ctx, session.ID); deleteErr != nil {
			s.logger.ErrorContext(ctx, "failed to delete expired session", "error", deleteErr)
		} else if s.metrics != nil {
			s.metrics.DecrementActiveSessions(1)
		}
		return nil, nil
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up session user")
	}
	return user, nil
}

// RestorePersistedSession attempts to resume the remembered session from
// the platform store. It never returns an error: restoration runs at
// startup and any failure, including a corrupted store, degrades to "no
// session" so the caller falls back to the login screen. A remembered id
// that fails any check is cleared so it is not retried on the next start.
func (s *Service) RestorePersistedSession(ctx context.Context) *LoginResult {
	ctx, span := s.tracer.Start(ctx, "auth.restore_session")
	defer func() { span.End(nil) }()

	if s.persistence == nil || !s.persistence.IsAvailable() {
		return nil
	}

	has, err := s.persistence.HasStoredSession(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to probe remembered session", "error", err)
		return nil
	}
	if !has {
		return nil
	}

	sessionID, err := s.persistence.RetrieveSessionID(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read remembered session", "error", err)
		return nil
	}
	if sessionID == "" {
		return nil
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, sessionStore.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to look up remembered session", "error", err)
		}
		s.clearPersistedSession(ctx, sessionID)
		return nil
	}

	now := requesttime.Now(ctx)
	if session.IsExpired(now) {
		s.discardRestoredSession(ctx, session)
		return nil
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "remembered session has no user", "error", err)
		s.discardRestoredSession(ctx, session)
		return nil
	}
	if !user.IsActive {
		s.discardRestoredSession(ctx, session)
		return nil
	}

	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		EventType:    audit.EventUserLogin,
		UserID:       user.ID.String(),
		ResourceType: "session",
		ResourceID:   session.ID,
		Action:       "restore",
		Success:      true,
		Details: map[string]string{
			"restored": "true",
		},
	}, "user_id", user.ID.String())

	return &LoginResult{User: user, Session: session}
}

// discardRestoredSession removes both the remembered id and its backing
// session once the restore check fails, so a dead token is only tried once.
func (s *Service) discardRestoredSession(ctx context.Context, session *models.Session) {
	s.clearPersistedSession(ctx, session.ID)
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete stale remembered session", "error", err)
	}
}

// clearPersistedSession drops the remembered id when it matches the given
// session. Best-effort: a different stored id belongs to a newer login
// and is left alone.
func (s *Service) clearPersistedSession(ctx context.Context, sessionID string) {
	if s.persistence == nil || !s.persistence.IsAvailable() {
		return
	}
	stored, err := s.persistence.RetrieveSessionID(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read remembered session", "error", err)
		return
	}
	if stored == "" || stored != sessionID {
		return
	}
	if err := s.persistence.ClearSession(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to clear remembered session", "error", err)
	}
}

// CleanupExpiredSessions deletes every session past its expiry and
// returns the count. Run periodically by the cleanup worker.
func (s *Service) CleanupExpiredSessions(ctx context.Context) (count int, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.cleanup_sessions")
	defer func() { span.End(err) }()

	now := requesttime.Now(ctx)
	count, err = s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		err = dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete expired sessions")
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		EventType:    audit.EventSessionCleanup,
		ResourceType: "session",
		Action:       "cleanup",
		Success:      true,
		Details: map[string]string{
			"deleted": strconv.Itoa(count),
		},
	}, "deleted", count)

	if s.metrics != nil {
		s.metrics.AddSessionsSwept(count)
		s.metrics.DecrementActiveSessions(count)
	}
	span.SetAttributes(tracer.Int("deleted", count))
	return count, nil
}
