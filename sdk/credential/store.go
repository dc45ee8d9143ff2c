// Package credential owns bearer credentials for the two principals the
// Hailuo service distinguishes: ordinary users and administrators. A store
// holds at most one live token per scope; every other component reads tokens
// through a Store and never retains them beyond a single request.
package credential

// Scope identifies which principal a credential belongs to.
type Scope string

const (
	// ScopeUser is the ordinary end-user principal.
	ScopeUser Scope = "user"
	// ScopeAdmin is the administrator principal.
	ScopeAdmin Scope = "admin"
)

// StorageKey returns the persisted storage key for the scope. The keys are
// part of the external contract shared with the web front end and must not
// change.
func (s Scope) StorageKey() string {
	if s == ScopeAdmin {
		return "adminToken"
	}
	return "token"
}

func (s Scope) String() string { return string(s) }

// Store abstracts persistence of per-scope bearer tokens.
type Store interface {
	// Token returns the live token for the scope, or "" when absent.
	Token(scope Scope) string
	// SetToken replaces the token for the scope.
	SetToken(scope Scope, token string) error
	// ClearToken removes the token for the scope. Clearing an absent token
	// is a no-op.
	ClearToken(scope Scope) error
}
