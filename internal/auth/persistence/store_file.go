package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const defaultFileName = "remembered-session"

// FileStore keeps the remembered session id in a mode-0600 file under the
// user's config directory. It holds one id at a time; storing overwrites
// any previous value.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore constructs a FileStore. An empty path places the file
// under the user config directory.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "casefile", defaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) StoreSessionID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path, []byte(id), 0o600); err != nil {
		return fmt.Errorf("store session id: %w", err)
	}
	return nil
}

func (s *FileStore) RetrieveSessionID(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("retrieve session id: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) ClearSession(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session id: %w", err)
	}
	return nil
}

func (s *FileStore) HasStoredSession(ctx context.Context) (bool, error) {
	id, err := s.RetrieveSessionID(ctx)
	if err != nil {
		return false, err
	}
	return id != "", nil
}

func (s *FileStore) IsAvailable() bool {
	return s.path != ""
}
