// Package session holds the current user profile and session token for the
// user scope. Token persistence is delegated to the credential store so that
// the persisted "token" key has a single source of truth; Login and Logout
// are the only paths that write it from here.
package session

import (
	"fmt"
	"sync"

	"github.com/xinsaaa/hailuo/sdk/credential"
)

// User is the profile returned by GET /users/me.
type User struct {
	ID         int64   `json:"id"`
	Username   string  `json:"username"`
	Balance    float64 `json:"balance"`
	InviteCode string  `json:"invite_code,omitempty"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

// Store is the in-memory session state. The profile may be empty while a
// token is present (profile not yet fetched); a non-empty token means the
// user is considered authenticated.
type Store struct {
	mu    sync.RWMutex
	user  *User
	token string
	creds credential.Store
}

// NewStore builds a session store over a credential store. A token already
// persisted for the user scope is picked up so a restarted client resumes
// its session.
func NewStore(creds credential.Store) *Store {
	return &Store{creds: creds, token: creds.Token(credential.ScopeUser)}
}

// Login records the profile and token in memory and persists the token.
func (s *Store) Login(user User, token string) error {
	if err := s.creds.SetToken(credential.ScopeUser, token); err != nil {
		return fmt.Errorf("session: persist token failed: %w", err)
	}
	s.mu.Lock()
	s.user = &user
	s.token = token
	s.mu.Unlock()
	return nil
}

// Logout clears the profile and token in memory and in persistent storage.
func (s *Store) Logout() error {
	if err := s.creds.ClearToken(credential.ScopeUser); err != nil {
		return fmt.Errorf("session: clear token failed: %w", err)
	}
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
	return nil
}

// SetUser updates the cached profile without touching the token, used after
// a fresh GET /users/me.
func (s *Store) SetUser(user User) {
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
}

// CurrentUser returns the cached profile, or nil when not fetched.
func (s *Store) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the in-memory session token.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a session token is present.
func (s *Store) Authenticated() bool { return s.Token() != "" }
