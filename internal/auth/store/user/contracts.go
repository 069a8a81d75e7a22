package user

import (
	"context"
	"time"

	"github.com/google/uuid"

	"casefile/internal/auth/models"
	"casefile/pkg/platform/sentinel"
)

// ErrNotFound is returned by all Find methods when no user matches.
var ErrNotFound = sentinel.ErrNotFound

// ErrAlreadyExists is returned by Create on a username or email collision.
var ErrAlreadyExists = sentinel.ErrAlreadyExists

// Store defines the persistence interface for user data.
// Error Contract: all Find methods return ErrNotFound when the entity
// doesn't exist; Create returns ErrAlreadyExists on uniqueness violations.
type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// UpdatePassword writes hash and salt together; they are never
	// persisted independently.
	UpdatePassword(ctx context.Context, id uuid.UUID, hash, salt string) error
}
