package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"

	"casefile/internal/audit"
	"casefile/internal/auth/models"
	userStore "casefile/internal/auth/store/user"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/password"
	requesttime "casefile/pkg/platform/middleware/requesttime"
)

// ChangePassword replaces a user's password after re-verifying the
// current one. The new password is hashed with a fresh salt, and every
// session belonging to the user is invalidated so stolen session ids die
// with the old credential.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.change_password")
	defer func() { span.End(err) }()

	user, findErr := s.users.FindByID(ctx, userID)
	if findErr != nil {
		if errors.Is(findErr, userStore.ErrNotFound) {
			err = dErrors.New(dErrors.CodeNotFound, "user not found")
			return err
		}
		err = dErrors.Wrap(findErr, dErrors.CodeInternal, "failed to look up user")
		return err
	}

	match, verifyErr := s.verify(ctx, oldPassword, user.PasswordSalt, user.PasswordHash)
	if verifyErr != nil {
		err = dErrors.Wrap(verifyErr, dErrors.CodeInternal, "failed to verify credentials")
		return err
	}
	if !match {
		s.logAuthFailure(ctx, "Current password incorrect", "user_id", userID.String())
		s.logAudit(ctx, audit.Event{
			Timestamp:    requesttime.Now(ctx),
			EventType:    audit.EventPasswordChange,
			UserID:       userID.String(),
			ResourceType: "user",
			ResourceID:   userID.String(),
			Action:       "change_password",
			Success:      false,
			Details: map[string]string{
				"reason": "Current password incorrect",
			},
		})
		err = dErrors.New(dErrors.CodeUnauthorized, "Current password is incorrect")
		return err
	}

	if err = models.ValidatePassword(newPassword); err != nil {
		return err
	}

	salt, err := password.GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := s.hash(ctx, newPassword, salt)
	if err != nil {
		return err
	}

	if updateErr := s.users.UpdatePassword(ctx, userID, hash, salt); updateErr != nil {
		err = dErrors.Wrap(updateErr, dErrors.CodeInternal, "failed to update password")
		return err
	}

	invalidated, deleteErr := s.sessions.DeleteByUserID(ctx, userID)
	if deleteErr != nil {
		// The password did change; the caller should not retry. Sessions
		// that survived will still expire on their own.
		s.logger.ErrorContext(ctx, "failed to invalidate sessions after password change",
			"error", deleteErr, "user_id", userID.String())
	} else if s.metrics != nil && invalidated > 0 {
		s.metrics.DecrementActiveSessions(invalidated)
	}

	s.clearPersistedSessionForUser(ctx, userID)

	s.logAudit(ctx, audit.Event{
		Timestamp:    requesttime.Now(ctx),
		EventType:    audit.EventPasswordChange,
		UserID:       userID.String(),
		ResourceType: "user",
		ResourceID:   userID.String(),
		Action:       "change_password",
		Success:      true,
		Details: map[string]string{
			"sessions_invalidated": strconv.Itoa(invalidated),
		},
	}, "user_id", userID.String(), "sessions_invalidated", invalidated)

	if s.metrics != nil {
		s.metrics.IncrementPasswordChanges()
	}
	return nil
}

// clearPersistedSessionForUser drops the remembered session id when its
// backing session was just invalidated. A token whose session still
// exists belongs to someone else's login and is left alone.
func (s *Service) clearPersistedSessionForUser(ctx context.Context, userID uuid.UUID) {
	if s.persistence == nil || !s.persistence.IsAvailable() {
		return
	}
	stored, err := s.persistence.RetrieveSessionID(ctx)
	if err != nil || stored == "" {
		return
	}
	if _, err := s.sessions.FindByID(ctx, stored); err == nil {
		return
	}
	if err := s.persistence.ClearSession(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to clear remembered session", "error", err, "user_id", userID.String())
	}
}
