package credential

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists tokens as a small JSON document on disk, the CLI analog
// of the browser's persistent storage. The file is read once at construction
// and written only by SetToken/ClearToken.
type FileStore struct {
	mu     sync.Mutex
	path   string
	tokens map[string]string
}

// NewFileStore loads (or initializes) a file-backed store at path. A missing
// file is not an error; it is created on the first write.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, tokens: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("credential filestore: read %s failed: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err = json.Unmarshal(data, &s.tokens); err != nil {
		return nil, fmt.Errorf("credential filestore: parse %s failed: %w", path, err)
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Token returns the persisted token for the scope, or "".
func (s *FileStore) Token(scope Scope) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[scope.StorageKey()]
}

// SetToken replaces the token for the scope and flushes the file.
func (s *FileStore) SetToken(scope Scope, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[scope.StorageKey()] == token {
		return nil
	}
	s.tokens[scope.StorageKey()] = token
	return s.flushLocked()
}

// ClearToken removes the token for the scope and flushes the file.
func (s *FileStore) ClearToken(scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[scope.StorageKey()]; !ok {
		return nil
	}
	delete(s.tokens, scope.StorageKey())
	return s.flushLocked()
}

// reload replaces the in-memory tokens with the current file contents.
func (s *FileStore) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.tokens = make(map[string]string)
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("credential filestore: reload %s failed: %w", s.path, err)
	}
	tokens := make(map[string]string)
	if len(data) > 0 {
		if err = json.Unmarshal(data, &tokens); err != nil {
			return fmt.Errorf("credential filestore: reload parse %s failed: %w", s.path, err)
		}
	}
	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()
	return nil
}

func (s *FileStore) flushLocked() error {
	raw, err := json.Marshal(s.tokens)
	if err != nil {
		return fmt.Errorf("credential filestore: marshal failed: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("credential filestore: create dir failed: %w", err)
	}
	if existing, errRead := os.ReadFile(s.path); errRead == nil {
		if string(existing) == string(raw) {
			return nil
		}
	}
	if err = os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("credential filestore: write %s failed: %w", s.path, err)
	}
	return nil
}
