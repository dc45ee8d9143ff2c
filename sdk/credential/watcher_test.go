package credential

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsExternalWrite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "credentials.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	watcher, err := NewWatcher(store)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	// Another process rewrites the file.
	if err = os.WriteFile(path, []byte(`{"token":"external"}`), 0o600); err != nil {
		t.Fatalf("write store file: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if store.Token(ScopeUser) == "external" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("Token(user) = %q, want %q after external write", store.Token(ScopeUser), "external")
}
