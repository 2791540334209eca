package credstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/quotabar/internal/provider"
)

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "creds"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	cred := Credential{
		ProviderID: "claude",
		Kind:       provider.CredentialAPIKey,
		Secret:     "sk-test-123",
	}
	if err := store.Put(cred); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get("claude", provider.CredentialAPIKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Secret != "sk-test-123" {
		t.Errorf("unexpected secret roundtrip")
	}

	if err := store.Delete("claude", provider.CredentialAPIKey); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_, err = store.Get("claude", provider.CredentialAPIKey)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFileStore_NotFound(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "creds"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	_, err = store.Get("nobody", provider.CredentialAPIKey)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStore_FilePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "creds")
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	cred := Credential{ProviderID: "claude", Kind: provider.CredentialOAuthToken, Secret: "tok"}
	if err := store.Put(cred); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 credential file, got %d", len(entries))
	}
	info, err := entries[0].Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Mode().Perm()&0o077 != 0 {
		t.Errorf("credential file has loose permissions: %o", info.Mode().Perm())
	}
}

func TestFileStore_RejectsLooseFilePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "creds")
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	cred := Credential{ProviderID: "kimi", Kind: provider.CredentialSessionCookie, Secret: "c"}
	if err := store.Put(cred); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	path := filepath.Join(dir, "kimi.session-cookie.json")
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}

	_, err = store.Get("kimi", provider.CredentialSessionCookie)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for 0644 file, got %v", err)
	}
}

func TestFileStore_ConcurrentSameKeyWrites(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "creds"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cred := Credential{
				ProviderID: "copilot",
				Kind:       provider.CredentialOAuthToken,
				Secret:     fmt.Sprintf("token-%d", n),
			}
			if err := store.Put(cred); err != nil {
				t.Errorf("Put failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Last writer wins; the stored value must be one complete write, not
	// an interleaving.
	got, err := store.Get("copilot", provider.CredentialOAuthToken)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !strings.HasPrefix(got.Secret, "token-") {
		t.Errorf("torn credential value: %q", got.Secret)
	}
}

func TestCredential_Redaction(t *testing.T) {
	cred := Credential{
		ProviderID: "claude",
		Kind:       provider.CredentialAPIKey,
		Secret:     "sk-very-secret",
	}

	for name, out := range map[string]string{
		"String":   cred.String(),
		"Sprintf":  fmt.Sprintf("%v", cred),
		"SprintfP": fmt.Sprintf("%+v", cred),
	} {
		if strings.Contains(out, "sk-very-secret") {
			t.Errorf("%s leaked the secret: %q", name, out)
		}
	}
}

func TestCredential_Expired(t *testing.T) {
	now := time.Now()
	cred := Credential{ExpiresAt: now.Add(-time.Minute)}
	if !cred.Expired(now) {
		t.Error("expected past expiry to report expired")
	}
	cred.ExpiresAt = now.Add(time.Minute)
	if cred.Expired(now) {
		t.Error("future expiry must not report expired")
	}
	if (Credential{}).Expired(now) {
		t.Error("zero expiry means no known expiry")
	}
}
