package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"casefile/internal/auth/models"
	"casefile/pkg/platform/sentinel"
)

// ErrNotFound is returned by FindByID when no session matches.
var ErrNotFound = sentinel.ErrNotFound

// Store defines the persistence interface for session data. Sessions are
// only ever created and deleted; there is no update path.
// Error Contract: FindByID returns ErrNotFound when the entity doesn't exist.
type Store interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
