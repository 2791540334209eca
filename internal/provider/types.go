package provider

import (
	"net/http"
	"time"
)

// ProviderID is a stable identifier for one tracked service. IDs are
// assigned once in the catalog and never change.
type ProviderID string

// StrategyKind identifies one method of acquiring raw usage data.
type StrategyKind string

const (
	StrategyAPIKey     StrategyKind = "api_key"
	StrategyOAuth      StrategyKind = "oauth"
	StrategyCLI        StrategyKind = "cli"
	StrategyLocalDB    StrategyKind = "local_db"
	StrategyWebSession StrategyKind = "web_session"
)

// CredentialKind identifies what sort of secret a credential holds.
type CredentialKind string

const (
	CredentialAPIKey        CredentialKind = "api-key"
	CredentialOAuthToken    CredentialKind = "oauth-token"
	CredentialSessionCookie CredentialKind = "session-cookie"
)

// Credential returns the credential kind a strategy reads, or "" for
// strategies that do not touch the secret store.
func (k StrategyKind) Credential() CredentialKind {
	switch k {
	case StrategyAPIKey:
		return CredentialAPIKey
	case StrategyOAuth:
		return CredentialOAuthToken
	case StrategyWebSession:
		return CredentialSessionCookie
	default:
		return ""
	}
}

// RatePolicy bounds the outbound request rate for one provider: Burst
// tokens refilled over Interval.
type RatePolicy struct {
	Burst    int
	Interval time.Duration
}

// DefaultRatePolicy is applied when a descriptor does not declare its own.
var DefaultRatePolicy = RatePolicy{Burst: 5, Interval: 10 * time.Second}

// StrategyConfig declares one acquisition method for a provider. Only the
// fields relevant to the Kind are set.
type StrategyConfig struct {
	Kind StrategyKind

	// HTTP strategies (api_key, oauth, web_session).
	Endpoint string
	Method   string
	Headers  map[string]string
	Body     string

	// AuthScheme prefixes the secret in the auth header, e.g. "Bearer".
	// AuthHeader names a non-Authorization key header when a provider
	// uses one.
	AuthScheme string
	AuthHeader string

	// oauth only: token refresh endpoint.
	TokenURL string

	// cli only.
	Command string
	Args    []string

	// local_db only.
	DatabasePath string
	Query        string
	QueryArgs    []any
}

// ParseFunc turns a provider-specific raw payload into the normalized
// usage record. Parsers never mutate the payload.
type ParseFunc func(raw *RawResponse) (*UsageRecord, error)

// Descriptor is the immutable registry entry for one provider: display
// metadata, the strategies it supports in priority order, its outbound
// host allowlist and its parser.
type Descriptor struct {
	ID          ProviderID
	DisplayName string

	// Hosts is the fixed set of destinations requests may reach.
	Hosts []string

	// Strategies in priority order; the chain falls through only on
	// auth-required or unsupported signals.
	Strategies []StrategyConfig

	Parser ParseFunc

	// Rate overrides DefaultRatePolicy when Burst > 0.
	Rate RatePolicy
}

// RatePolicyOrDefault returns the descriptor's policy or the default.
func (d *Descriptor) RatePolicyOrDefault() RatePolicy {
	if d.Rate.Burst > 0 {
		return d.Rate
	}
	return DefaultRatePolicy
}

// RawResponse is the transient provider-specific payload produced by a
// strategy: body bytes plus status metadata. It is destroyed after
// parsing and never persisted unless debug capture is explicitly on.
type RawResponse struct {
	ProviderID ProviderID
	Source     StrategyKind
	StatusCode int
	Header     http.Header
	Body       []byte
	FetchedAt  time.Time
	Elapsed    time.Duration
}

// Ptr is a helper to create a pointer to a value.
func Ptr[T any](v T) *T {
	return &v
}
