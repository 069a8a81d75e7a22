package lockout

import (
	"context"
	"sync"

	"casefile/internal/ratelimit/models"
)

// InMemoryStore keeps failure records in a process-wide map keyed by
// normalized identity. All entry points take the store lock for their
// full read-modify-write, so a check followed by a concurrent record on
// the same identity can never interleave mid-update.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.LoginAttempt
}

// New constructs an empty in-memory lockout store.
func New() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*models.LoginAttempt),
	}
}

// Get returns a copy of the record for the identity, or nil when absent.
func (s *InMemoryStore) Get(_ context.Context, identity string) (*models.LoginAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[identity].Clone(), nil
}

// Mutate applies fn to the current record (nil when absent) under the
// store lock. fn returns the record to keep; returning nil deletes the
// entry. The updated record is returned as a copy.
func (s *InMemoryStore) Mutate(_ context.Context, identity string, fn func(*models.LoginAttempt) *models.LoginAttempt) (*models.LoginAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := fn(s.records[identity])
	if updated == nil {
		delete(s.records, identity)
		return nil, nil
	}
	updated.Identity = identity
	s.records[identity] = updated
	return updated.Clone(), nil
}

// Clear removes the record for the identity. Missing records are a no-op.
func (s *InMemoryStore) Clear(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identity)
	return nil
}

// Sweep deletes every record matched by shouldDelete and returns how many
// were removed. It holds the lock for the whole pass; record counts are
// small (one per recently failing identity) so this stays cheap.
func (s *InMemoryStore) Sweep(_ context.Context, shouldDelete func(*models.LoginAttempt) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for identity, record := range s.records {
		if shouldDelete(record) {
			delete(s.records, identity)
			deleted++
		}
	}
	return deleted, nil
}

// Len reports the number of tracked identities.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Reset drops every record. Test teardown hook.
func (s *InMemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*models.LoginAttempt)
}
