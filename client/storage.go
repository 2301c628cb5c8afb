// Package client is a Go client for the duty board API. It keeps one
// authenticated session alive across a program run: a durable token store,
// a concurrency-safe session state machine, a route guard, and an
// http.RoundTripper that attaches the token and tears the session down when
// the server stops honoring it.
package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStorage persists the session token between runs.
// Implementations must be safe for concurrent use.
type TokenStorage interface {
	// Load returns the stored token, or "" when none is stored.
	Load() (string, error)
	// Save replaces the stored token.
	Save(token string) error
	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear() error
}

// FileTokenStorage stores the token in a single file with owner-only
// permissions.
type FileTokenStorage struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStorage creates a FileTokenStorage at the given path.
// Parent directories are created on first save.
func NewFileTokenStorage(path string) *FileTokenStorage {
	return &FileTokenStorage{path: path}
}

func (s *FileTokenStorage) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *FileTokenStorage) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func (s *FileTokenStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// MemoryTokenStorage keeps the token in memory only. Useful for tests and
// short-lived programs.
type MemoryTokenStorage struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStorage creates an empty MemoryTokenStorage.
func NewMemoryTokenStorage() *MemoryTokenStorage {
	return &MemoryTokenStorage{}
}

func (s *MemoryTokenStorage) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStorage) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
