package credential

import "sync"

// MemoryStore keeps tokens in process memory only. It backs tests and
// short-lived programs that must not leave credentials on disk.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[Scope]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[Scope]string)}
}

// Token returns the stored token for the scope, or "".
func (s *MemoryStore) Token(scope Scope) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[scope]
}

// SetToken replaces the token for the scope.
func (s *MemoryStore) SetToken(scope Scope, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[scope] = token
	return nil
}

// ClearToken removes the token for the scope.
func (s *MemoryStore) ClearToken(scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, scope)
	return nil
}
