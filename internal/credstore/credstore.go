// Package credstore owns credentials: it is the only component that reads
// or writes secret material. Secrets are handed out by value into the
// scope of one fetch call and are redacted from any diagnostic output.
package credstore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/user/quotabar/internal/provider"
)

var (
	// ErrNotFound is returned when no credential exists for the key.
	ErrNotFound = errors.New("credential not found")
	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("credential store unavailable")
	// ErrPermissionDenied is returned when the caller lacks rights to the
	// store or the store's permissions are unsafe.
	ErrPermissionDenied = errors.New("credential store permission denied")
)

// Credential is one stored secret for a (provider, kind) key.
type Credential struct {
	ProviderID provider.ProviderID     `json:"provider_id"`
	Kind       provider.CredentialKind `json:"kind"`

	// Secret is the credential payload: API key, access token or cookie
	// header value.
	Secret string `json:"secret"`

	// RefreshSecret holds OAuth refresh material, when present.
	RefreshSecret string `json:"refresh_secret,omitempty"`

	// ExpiresAt is the secret's expiry; zero means no known expiry.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the credential has a known expiry in the past.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// String redacts the secret payload. fmt verbs and %+v go through here, so
// a credential can never leak into log or error text by accident.
func (c Credential) String() string {
	return string(c.ProviderID) + "/" + string(c.Kind) + " [redacted]"
}

// LogValue keeps slog output redacted as well.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", string(c.ProviderID)),
		slog.String("kind", string(c.Kind)),
		slog.Bool("has_refresh", c.RefreshSecret != ""),
		slog.Time("expires_at", c.ExpiresAt),
	)
}

// Store is the uniform get/set/delete contract over a secret store. All
// operations are atomic per key; concurrent writes to the same key are
// serialized (last writer wins, no torn reads).
type Store interface {
	Get(id provider.ProviderID, kind provider.CredentialKind) (Credential, error)
	Put(cred Credential) error
	Delete(id provider.ProviderID, kind provider.CredentialKind) error
}
