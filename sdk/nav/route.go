// Package nav evaluates navigation intents against route metadata and the
// credential store, redirecting unauthenticated navigation to the login
// surface of the scope that protects the target route.
package nav

import (
	"strings"

	"github.com/xinsaaa/hailuo/sdk/credential"
)

// AuthRequirement declares which principal a route demands.
type AuthRequirement int

const (
	// AuthNone allows navigation regardless of credential state.
	AuthNone AuthRequirement = iota
	// AuthUser requires a user credential.
	AuthUser
	// AuthAdmin requires an admin credential.
	AuthAdmin
)

// Login surfaces, one per scope.
const (
	UserLoginPath  = "/login"
	AdminLoginPath = "/admin/login"
)

// LoginPath returns the login surface for a scope.
func LoginPath(scope credential.Scope) string {
	if scope == credential.ScopeAdmin {
		return AdminLoginPath
	}
	return UserLoginPath
}

// Route describes one navigable path. Child paths are relative to the
// parent; children inherit the requirement of the closest ancestor that
// declares one.
type Route struct {
	Path        string
	Name        string
	Requirement AuthRequirement
	Children    []Route
}

// Routes is the static route table defined at startup.
type Routes []Route

// DefaultRoutes mirrors the application's navigation surface.
func DefaultRoutes() Routes {
	return Routes{
		{Path: "/", Name: "home"},
		{Path: "/login", Name: "login"},
		{Path: "/forgot-password", Name: "forgot-password"},
		{Path: "/dashboard", Name: "dashboard", Requirement: AuthUser},
		{Path: "/recharge", Name: "recharge", Requirement: AuthUser},
		{Path: "/tickets", Name: "tickets", Requirement: AuthUser},
		{Path: "/invite", Name: "invite", Requirement: AuthUser},
		{Path: "/admin/login", Name: "admin-login"},
		{Path: "/admin", Name: "admin", Requirement: AuthAdmin, Children: []Route{
			{Path: "dashboard", Name: "admin-dashboard"},
			{Path: "users", Name: "admin-users"},
			{Path: "orders", Name: "admin-orders"},
			{Path: "tickets", Name: "admin-tickets"},
			{Path: "security", Name: "admin-security"},
			{Path: "models", Name: "admin-models"},
		}},
	}
}

// Requirement resolves the auth requirement for a path. The most specific
// matching route wins; a route that declares no requirement inherits from
// its closest declaring ancestor. Unknown paths are open.
func (rs Routes) Requirement(path string) AuthRequirement {
	path = NormalizePath(path)
	best := AuthNone
	bestLen := -1
	var walk func(routes []Route, base string, inherited AuthRequirement)
	walk = func(routes []Route, base string, inherited AuthRequirement) {
		for _, r := range routes {
			full := joinPath(base, r.Path)
			req := r.Requirement
			if req == AuthNone {
				req = inherited
			}
			if matched, l := matchPath(full, path); matched && l > bestLen {
				best = req
				bestLen = l
			}
			walk(r.Children, full, req)
		}
	}
	walk(rs, "", AuthNone)
	return best
}

// NormalizePath strips the query string and any trailing slash so that
// route comparison does not depend on raw string equality.
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	if path == "" {
		path = "/"
	}
	return path
}

func joinPath(base, p string) string {
	if strings.HasPrefix(p, "/") {
		return NormalizePath(p)
	}
	if base == "" || base == "/" {
		return NormalizePath("/" + p)
	}
	return NormalizePath(base + "/" + p)
}

// matchPath reports whether target equals route or lives beneath it, and
// the specificity (route length) used to pick the closest match.
func matchPath(route, target string) (bool, int) {
	if route == target {
		return true, len(route)
	}
	if route != "/" && strings.HasPrefix(target, route+"/") {
		return true, len(route)
	}
	return false, 0
}
