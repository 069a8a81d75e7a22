package user

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"casefile/internal/auth/models"
)

// InMemoryStore stores users in memory for tests and single-process use.
// Methods return copies so callers never share mutable state with the store.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
}

// New constructs an empty in-memory user store.
func New() *InMemoryStore {
	return &InMemoryStore{users: make(map[uuid.UUID]*models.User)}
}

func (s *InMemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return fmt.Errorf("username taken: %w", ErrAlreadyExists)
		}
		if existing.Email == user.Email {
			return fmt.Errorf("email taken: %w", ErrAlreadyExists)
		}
	}

	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		return clone(user), nil
	}
	return nil, fmt.Errorf("user not found: %w", ErrNotFound)
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return clone(user), nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", ErrNotFound)
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return clone(user), nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", ErrNotFound)
}

func (s *InMemoryStore) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	user.LastLoginAt = &at
	return nil
}

func (s *InMemoryStore) UpdatePassword(_ context.Context, id uuid.UUID, hash, salt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	user.PasswordHash = hash
	user.PasswordSalt = salt
	return nil
}

// SetActive flips the account's active flag. Used by admin tooling and tests.
func (s *InMemoryStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user not found: %w", ErrNotFound)
	}
	user.IsActive = active
	return nil
}

func clone(u *models.User) *models.User {
	out := *u
	if u.LastLoginAt != nil {
		at := *u.LastLoginAt
		out.LastLoginAt = &at
	}
	return &out
}
