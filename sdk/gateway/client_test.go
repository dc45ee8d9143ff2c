package gateway

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/xinsaaa/hailuo/sdk/captcha"
	"github.com/xinsaaa/hailuo/sdk/credential"
)

func TestResolveEndpoint(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		explicit string
		origin   string
		want     string
	}{
		{"explicit wins", "https://api.example.com/api/", "https://app.example.com", "https://api.example.com/api"},
		{"origin derives", "", "https://hailuo.example.com", "https://hailuo.example.com:8000/api"},
		{"origin keeps scheme", "", "http://hailuo.example.com:3000", "http://hailuo.example.com:8000/api"},
		{"localhost falls back", "", "http://localhost:5173", "http://localhost:8000/api"},
		{"loopback ip falls back", "", "http://127.0.0.1:5173", "http://localhost:8000/api"},
		{"empty falls back", "", "", "http://localhost:8000/api"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ResolveEndpoint(tt.explicit, tt.origin); got != tt.want {
				t.Fatalf("ResolveEndpoint(%q, %q) = %q, want %q", tt.explicit, tt.origin, got, tt.want)
			}
		})
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()
	if _, err := New(Options{Navigator: noopNavigator{}}); err == nil {
		t.Fatalf("New() without credentials succeeded, want error")
	}
	if _, err := New(Options{Credentials: credential.NewMemoryStore()}); err == nil {
		t.Fatalf("New() without navigator succeeded, want error")
	}
}

func TestNewGeneratesFingerprint(t *testing.T) {
	t.Parallel()
	client, err := New(Options{Credentials: credential.NewMemoryStore(), Navigator: noopNavigator{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.DeviceFingerprint() == "" {
		t.Fatalf("DeviceFingerprint() = empty, want generated value")
	}

	fixed, err := New(Options{
		Credentials:       credential.NewMemoryStore(),
		Navigator:         noopNavigator{},
		DeviceFingerprint: "known",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := fixed.DeviceFingerprint(); got != "known" {
		t.Fatalf("DeviceFingerprint() = %q, want %q", got, "known")
	}
}

func TestRegisterRejectsMissingChallengeWithoutNetwork(t *testing.T) {
	t.Parallel()
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	if _, err := client.Register(context.Background(), "alice", "pw", nil); !errors.Is(err, captcha.ErrMissingChallenge) {
		t.Fatalf("Register(nil solution) error = %v, want ErrMissingChallenge", err)
	}
	partial := &captcha.Solution{Challenge: &captcha.Challenge{Challenge: "only"}, Position: 1}
	if _, err := client.Register(context.Background(), "alice", "pw", partial); !errors.Is(err, captcha.ErrPartialChallenge) {
		t.Fatalf("Register(partial solution) error = %v, want ErrPartialChallenge", err)
	}
}

func TestLoginWithoutChallenge(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	})
	client, _, _ := newTestClient(t, mux)
	token, err := client.Login(context.Background(), "alice", "pw", nil)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token.AccessToken != "tok" {
		t.Fatalf("Login() access token = %q, want %q", token.AccessToken, "tok")
	}
}

func TestLoginRejectsTokenlessResponse(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token_type":"bearer"}`))
	})
	client, _, _ := newTestClient(t, mux)
	if _, err := client.Login(context.Background(), "alice", "pw", nil); err == nil {
		t.Fatalf("Login() with missing access_token succeeded, want error")
	}
}

func TestDecompress(t *testing.T) {
	t.Parallel()
	payload := []byte(`{"hello":"world","padding":"aaaaaaaaaaaaaaaaaaaaaaaaaaaa"}`)

	var gzipBuf bytes.Buffer
	gz := gzip.NewWriter(&gzipBuf)
	if _, err := gz.Write(payload); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	var brBuf bytes.Buffer
	br := brotli.NewWriter(&brBuf)
	if _, err := br.Write(payload); err != nil {
		t.Fatalf("brotli write: %v", err)
	}
	if err := br.Close(); err != nil {
		t.Fatalf("brotli close: %v", err)
	}

	var zstdBuf bytes.Buffer
	zw, err := zstd.NewWriter(&zstdBuf)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	if _, err = zw.Write(payload); err != nil {
		t.Fatalf("zstd write: %v", err)
	}
	if err = zw.Close(); err != nil {
		t.Fatalf("zstd close: %v", err)
	}

	tests := []struct {
		encoding string
		data     []byte
	}{
		{"gzip", gzipBuf.Bytes()},
		{"br", brBuf.Bytes()},
		{"zstd", zstdBuf.Bytes()},
		{"", payload},
		{"identity", payload},
	}
	for _, tt := range tests {
		got, err := decompress(tt.encoding, tt.data)
		if err != nil {
			t.Fatalf("decompress(%q) error = %v", tt.encoding, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("decompress(%q) = %s, want %s", tt.encoding, got, payload)
		}
	}
}

func TestStatusErrorMessage(t *testing.T) {
	t.Parallel()
	err := &StatusError{StatusCode: 402, Body: []byte(`{"detail":"insufficient balance"}`)}
	want := `gateway: HTTP 402: {"detail":"insufficient balance"}`
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if err.Unauthorized() {
		t.Fatalf("Unauthorized() on 402 = true, want false")
	}
	if !IsUnauthorized(&StatusError{StatusCode: 401}) {
		t.Fatalf("IsUnauthorized(401) = false, want true")
	}
	if IsUnauthorized(errors.New("other")) {
		t.Fatalf("IsUnauthorized(plain error) = true, want false")
	}
}

// noopNavigator satisfies nav.Navigator for construction-only tests.
type noopNavigator struct{}

func (noopNavigator) Current() string { return "/" }
func (noopNavigator) Navigate(string) {}
func (noopNavigator) At(string) bool { return false }
