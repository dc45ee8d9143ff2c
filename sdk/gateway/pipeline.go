package gateway

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/xinsaaa/hailuo/sdk/credential"
	"github.com/xinsaaa/hailuo/sdk/nav"
)

// RequestHook transforms an outgoing request before it is sent. Hooks run in
// registration order on every request with no exceptions.
type RequestHook interface {
	PrepareRequest(req *http.Request) error
}

// ResponseHook observes a response after the body has been read. Hooks run
// in registration order; returning true stops the chain. A hook may react to
// a failure but never suppresses it: a non-2xx status is always surfaced to
// the caller after the chain finishes.
type ResponseHook interface {
	HandleResponse(req *http.Request, resp *http.Response) bool
}

// authInjector attaches the bearer credential matching the request's scope.
// An absent credential forwards the request unauthenticated; rejecting it is
// the server's job.
type authInjector struct {
	creds    credential.Store
	basePath string
}

func (a *authInjector) PrepareRequest(req *http.Request) error {
	scope := ScopeForPath(relativePath(req, a.basePath))
	if token := a.creds.Token(scope); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// failureHandler reacts to authentication failures. The two scopes are fully
// independent: an admin-token failure never clears or redirects the user
// session, and vice versa.
type failureHandler struct {
	creds    credential.Store
	nav      nav.Navigator
	basePath string
}

func (h *failureHandler) HandleResponse(req *http.Request, resp *http.Response) bool {
	if resp.StatusCode != http.StatusUnauthorized {
		return false
	}
	scope := ScopeForPath(relativePath(req, h.basePath))
	login := nav.LoginPath(scope)
	if h.nav.At(login) {
		// The login page itself probed an authenticated endpoint; clearing
		// and redirecting again would loop.
		return true
	}
	if err := h.creds.ClearToken(scope); err != nil {
		log.Warnf("gateway: clear %s credential failed: %v", scope, err)
	}
	log.Infof("gateway: %s credential rejected, redirecting to %s", scope, login)
	h.nav.Navigate(login)
	return true
}

// relativePath strips the API base path so classification matches the
// logical operation path.
func relativePath(req *http.Request, basePath string) string {
	path := req.URL.Path
	if basePath != "" && basePath != "/" && len(path) >= len(basePath) && path[:len(basePath)] == basePath {
		path = path[len(basePath):]
	}
	if path == "" {
		path = "/"
	}
	return path
}
