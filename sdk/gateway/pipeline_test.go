package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xinsaaa/hailuo/sdk/credential"
	"github.com/xinsaaa/hailuo/sdk/nav"
)

func TestScopeForPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path string
		want credential.Scope
	}{
		{"/users/me", credential.ScopeUser},
		{"/orders", credential.ScopeUser},
		{"/login", credential.ScopeUser},
		{"/admin/login", credential.ScopeAdmin},
		{"/admin/stats", credential.ScopeAdmin},
		{"/administrators", credential.ScopeAdmin},
	}
	for _, tt := range tests {
		if got := ScopeForPath(tt.path); got != tt.want {
			t.Fatalf("ScopeForPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

// newTestClient builds a client against handler with fresh stores.
func newTestClient(t *testing.T, handler http.Handler) (*Client, credential.Store, nav.Navigator) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	creds := credential.NewMemoryStore()
	navigator := nav.NewHistory("/")
	client, err := New(Options{
		Endpoint:    server.URL + "/api",
		Credentials: creds,
		Navigator:   navigator,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client, creds, navigator
}

func TestAuthInjectorSelectsScopeToken(t *testing.T) {
	t.Parallel()
	var userAuth, adminAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/me", func(w http.ResponseWriter, r *http.Request) {
		userAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id":1,"username":"alice"}`))
	})
	mux.HandleFunc("/api/admin/stats", func(w http.ResponseWriter, r *http.Request) {
		adminAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	})
	client, creds, _ := newTestClient(t, mux)
	if err := creds.SetToken(credential.ScopeUser, "user-token"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	if err := creds.SetToken(credential.ScopeAdmin, "admin-token"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}

	if _, err := client.CurrentUser(context.Background()); err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if userAuth != "Bearer user-token" {
		t.Fatalf("user endpoint Authorization = %q, want %q", userAuth, "Bearer user-token")
	}
	if _, err := client.AdminStats(context.Background()); err != nil {
		t.Fatalf("AdminStats() error = %v", err)
	}
	if adminAuth != "Bearer admin-token" {
		t.Fatalf("admin endpoint Authorization = %q, want %q", adminAuth, "Bearer admin-token")
	}
}

func TestAuthInjectorSkipsAbsentToken(t *testing.T) {
	t.Parallel()
	var sawAuth bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte(`{}`))
	})
	client, _, _ := newTestClient(t, mux)
	if _, err := client.PublicConfig(context.Background()); err != nil {
		t.Fatalf("PublicConfig() error = %v", err)
	}
	if sawAuth {
		t.Fatalf("Authorization header sent without a stored token")
	}
}

func TestFailureHandlerClearsOnlyMatchingScope(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"not authenticated"}`))
	})
	client, creds, navigator := newTestClient(t, mux)
	if err := creds.SetToken(credential.ScopeUser, "user-token"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	if err := creds.SetToken(credential.ScopeAdmin, "admin-token"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}

	_, err := client.CurrentUser(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("CurrentUser() error = %v, want 401 StatusError", err)
	}
	if got := creds.Token(credential.ScopeUser); got != "" {
		t.Fatalf("user token after 401 = %q, want cleared", got)
	}
	if got := creds.Token(credential.ScopeAdmin); got != "admin-token" {
		t.Fatalf("admin token after user 401 = %q, want untouched", got)
	}
	if got := navigator.Current(); got != nav.UserLoginPath {
		t.Fatalf("navigator after user 401 = %q, want %s", got, nav.UserLoginPath)
	}

	_, err = client.AdminStats(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("AdminStats() error = %v, want 401 StatusError", err)
	}
	if got := creds.Token(credential.ScopeAdmin); got != "" {
		t.Fatalf("admin token after 401 = %q, want cleared", got)
	}
	if got := navigator.Current(); got != nav.AdminLoginPath {
		t.Fatalf("navigator after admin 401 = %q, want %s", got, nav.AdminLoginPath)
	}
}

func TestFailureHandlerIdempotentOnLoginPage(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client, creds, navigator := newTestClient(t, mux)
	if err := creds.SetToken(credential.ScopeUser, "stale"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	navigator.Navigate(nav.UserLoginPath)

	// A 401 while already on the login page must neither clear nor redirect.
	_, err := client.CurrentUser(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("CurrentUser() error = %v, want 401 StatusError", err)
	}
	if got := creds.Token(credential.ScopeUser); got != "stale" {
		t.Fatalf("user token on login page after 401 = %q, want untouched", got)
	}
	if got := navigator.Current(); got != nav.UserLoginPath {
		t.Fatalf("navigator = %q, want to stay on %s", got, nav.UserLoginPath)
	}
}

func TestNon401FailureDoesNotTouchCredentials(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"insufficient balance"}`))
	})
	client, creds, navigator := newTestClient(t, mux)
	if err := creds.SetToken(credential.ScopeUser, "user-token"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}

	_, err := client.Orders(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Fatalf("Orders() error = %v, want 403 StatusError", err)
	}
	if got := creds.Token(credential.ScopeUser); got != "user-token" {
		t.Fatalf("user token after 403 = %q, want untouched", got)
	}
	if got := navigator.Current(); got != "/" {
		t.Fatalf("navigator after 403 = %q, want /", got)
	}
}
