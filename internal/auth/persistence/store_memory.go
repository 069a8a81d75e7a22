package persistence

import (
	"context"
	"sync"
)

// MemoryStore keeps the remembered session id in memory. Used in tests
// and in headless environments without a usable config directory.
type MemoryStore struct {
	mu sync.Mutex
	id string

	// FailNext forces the next call to return failErr; tests use it to
	// exercise the best-effort paths in the auth service.
	FailNext error
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) takeFailure() error {
	err := s.FailNext
	s.FailNext = nil
	return err
}

func (s *MemoryStore) StoreSessionID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	s.id = id
	return nil
}

func (s *MemoryStore) RetrieveSessionID(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return "", err
	}
	return s.id, nil
}

func (s *MemoryStore) ClearSession(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	s.id = ""
	return nil
}

func (s *MemoryStore) HasStoredSession(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return false, err
	}
	return s.id != "", nil
}

func (s *MemoryStore) IsAvailable() bool {
	return true
}
