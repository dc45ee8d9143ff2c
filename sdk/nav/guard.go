package nav

import (
	log "github.com/sirupsen/logrus"

	"github.com/xinsaaa/hailuo/sdk/credential"
)

// Decision is the outcome of evaluating one navigation intent.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Guard performs the navigation-time access-control check. Evaluation is
// synchronous; the caller must not commit a navigation before consulting it.
type Guard struct {
	routes Routes
	creds  credential.Store
}

// NewGuard builds a guard over a static route table and a credential store.
func NewGuard(routes Routes, creds credential.Store) *Guard {
	return &Guard{routes: routes, creds: creds}
}

// Resolve evaluates a navigation intent. Credential state is read at
// evaluation time, so the decision reflects the store as of this call.
func (g *Guard) Resolve(path string) Decision {
	switch g.routes.Requirement(path) {
	case AuthAdmin:
		if g.creds.Token(credential.ScopeAdmin) == "" {
			return Decision{RedirectTo: AdminLoginPath}
		}
	case AuthUser:
		if g.creds.Token(credential.ScopeUser) == "" {
			return Decision{RedirectTo: UserLoginPath}
		}
	}
	return Decision{Allowed: true}
}

// Navigator abstracts the browser's location state: the current route and
// the ability to commit a navigation.
type Navigator interface {
	// Current returns the current route path.
	Current() string
	// Navigate commits a navigation to path.
	Navigate(path string)
	// At reports whether the current route is path, compared after
	// normalization so query strings and trailing slashes do not matter.
	At(path string) bool
}

// History is an in-memory navigator, the process-local stand-in for the
// browser history.
type History struct {
	current string
}

// NewHistory creates a navigator positioned at path.
func NewHistory(path string) *History {
	return &History{current: NormalizePath(path)}
}

// Current returns the current route path.
func (h *History) Current() string { return h.current }

// Navigate moves to path.
func (h *History) Navigate(path string) {
	next := NormalizePath(path)
	if next == h.current {
		return
	}
	log.Debugf("nav: %s -> %s", h.current, next)
	h.current = next
}

// At reports whether the navigator currently sits on path.
func (h *History) At(path string) bool {
	return h.current == NormalizePath(path)
}

// Guarded wraps a navigator so that every navigation is resolved through
// the guard before it commits; denied navigations land on the redirect
// target instead, with no intermediate stop on the protected route.
type Guarded struct {
	nav   Navigator
	guard *Guard
}

// NewGuarded builds a guard-enforcing navigator.
func NewGuarded(nav Navigator, guard *Guard) *Guarded {
	return &Guarded{nav: nav, guard: guard}
}

// Current returns the underlying navigator's current route.
func (g *Guarded) Current() string { return g.nav.Current() }

// At reports whether the underlying navigator sits on path.
func (g *Guarded) At(path string) bool { return g.nav.At(path) }

// Navigate resolves the guard and commits either the requested path or the
// guard's redirect target.
func (g *Guarded) Navigate(path string) {
	decision := g.guard.Resolve(path)
	if decision.Allowed {
		g.nav.Navigate(path)
		return
	}
	log.Debugf("nav: guard redirected %s to %s", NormalizePath(path), decision.RedirectTo)
	g.nav.Navigate(decision.RedirectTo)
}
