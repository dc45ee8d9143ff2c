package credential

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "credentials.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if got := store.Token(ScopeUser); got != "" {
		t.Fatalf("Token(user) on empty store = %q, want empty", got)
	}
	if err = store.SetToken(ScopeUser, "tok123"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	if got := store.Token(ScopeUser); got != "tok123" {
		t.Fatalf("Token(user) = %q, want %q", got, "tok123")
	}

	// A second store over the same file must see the persisted token.
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() reopen error = %v", err)
	}
	if got := reopened.Token(ScopeUser); got != "tok123" {
		t.Fatalf("reopened Token(user) = %q, want %q", got, "tok123")
	}
}

func TestFileStoreScopesIndependent(t *testing.T) {
	t.Parallel()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err = store.SetToken(ScopeUser, "user-token"); err != nil {
		t.Fatalf("SetToken(user) error = %v", err)
	}
	if err = store.SetToken(ScopeAdmin, "admin-token"); err != nil {
		t.Fatalf("SetToken(admin) error = %v", err)
	}
	if err = store.ClearToken(ScopeAdmin); err != nil {
		t.Fatalf("ClearToken(admin) error = %v", err)
	}
	if got := store.Token(ScopeUser); got != "user-token" {
		t.Fatalf("Token(user) after admin clear = %q, want %q", got, "user-token")
	}
	if got := store.Token(ScopeAdmin); got != "" {
		t.Fatalf("Token(admin) after clear = %q, want empty", got)
	}
}

func TestFileStoreStorageKeys(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "credentials.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err = store.SetToken(ScopeUser, "u"); err != nil {
		t.Fatalf("SetToken(user) error = %v", err)
	}
	if err = store.SetToken(ScopeAdmin, "a"); err != nil {
		t.Fatalf("SetToken(admin) error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read store file: %v", err)
	}
	want := `{"adminToken":"a","token":"u"}`
	if string(data) != want {
		t.Fatalf("store file = %s, want %s", data, want)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	t.Parallel()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "credentials.json"))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err = store.ClearToken(ScopeUser); err != nil {
		t.Fatalf("ClearToken() on empty store error = %v", err)
	}
	if err = store.SetToken(ScopeAdmin, "a"); err != nil {
		t.Fatalf("SetToken() into missing dir error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	if err := store.SetToken(ScopeAdmin, "abc"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	if got := store.Token(ScopeAdmin); got != "abc" {
		t.Fatalf("Token(admin) = %q, want %q", got, "abc")
	}
	if got := store.Token(ScopeUser); got != "" {
		t.Fatalf("Token(user) = %q, want empty", got)
	}
	if err := store.ClearToken(ScopeAdmin); err != nil {
		t.Fatalf("ClearToken() error = %v", err)
	}
	if got := store.Token(ScopeAdmin); got != "" {
		t.Fatalf("Token(admin) after clear = %q, want empty", got)
	}
}

func TestScopeStorageKey(t *testing.T) {
	t.Parallel()
	if got := ScopeUser.StorageKey(); got != "token" {
		t.Fatalf("ScopeUser.StorageKey() = %q, want %q", got, "token")
	}
	if got := ScopeAdmin.StorageKey(); got != "adminToken" {
		t.Fatalf("ScopeAdmin.StorageKey() = %q, want %q", got, "adminToken")
	}
}
