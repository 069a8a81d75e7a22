package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"casefile/internal/audit"
	"casefile/internal/auth/models"
	userStore "casefile/internal/auth/store/user"
	"casefile/internal/auth/tracer"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/password"
	requesttime "casefile/pkg/platform/middleware/requesttime"
)

// Register creates a new account after enforcing the password policy and
// username/email uniqueness. Registration never touches the rate limiter:
// only login failures count against the lockout budget.
func (s *Service) Register(ctx context.Context, username, plaintext, email string) (user *models.User, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.register")
	defer func() { span.End(err) }()

	if err = models.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err = models.ValidatePassword(plaintext); err != nil {
		return nil, err
	}
	if err = models.ValidateEmail(email); err != nil {
		return nil, err
	}

	if _, lookupErr := s.users.FindByUsername(ctx, username); lookupErr == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "username already exists")
	} else if !errors.Is(lookupErr, userStore.ErrNotFound) {
		return nil, dErrors.Wrap(lookupErr, dErrors.CodeInternal, "failed to check username")
	}

	if _, lookupErr := s.users.FindByEmail(ctx, email); lookupErr == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "email already exists")
	} else if !errors.Is(lookupErr, userStore.ErrNotFound) {
		return nil, dErrors.Wrap(lookupErr, dErrors.CodeInternal, "failed to check email")
	}

	salt, err := password.GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := s.hash(ctx, plaintext, salt)
	if err != nil {
		return nil, err
	}

	now := requesttime.Now(ctx)
	user = &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         models.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
	}

	if err = s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userStore.ErrAlreadyExists) {
			// Lost a race with a concurrent registration.
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "account already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.logAudit(ctx, audit.Event{
		Timestamp:    now,
		EventType:    audit.EventUserRegister,
		UserID:       user.ID.String(),
		ResourceType: "user",
		ResourceID:   user.ID.String(),
		Action:       "register",
		Success:      true,
	}, "user_id", user.ID.String(), "username", username)

	if s.metrics != nil {
		s.metrics.IncrementUsersRegistered()
	}
	span.SetAttributes(tracer.String("user_id", user.ID.String()))

	return user, nil
}
