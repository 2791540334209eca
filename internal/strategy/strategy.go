// Package strategy implements the acquisition methods a provider may
// declare: direct API key, OAuth with refresh, CLI subprocess, read-only
// local database and authenticated web session. All variants share one
// contract: given the descriptor, the credential store and the HTTP layer,
// produce a raw payload or a classified error.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/quotabar/internal/credstore"
	"github.com/user/quotabar/internal/httpx"
	"github.com/user/quotabar/internal/provider"
)

// ErrUnsupported signals that a strategy cannot run in this environment
// (missing CLI binary, absent local database). The chain falls through to
// the next strategy on it.
var ErrUnsupported = errors.New("strategy unsupported in this environment")

// Deps are the collaborators a strategy may use. Credentials are read
// inside one acquire call and never retained past it.
type Deps struct {
	Store  credstore.Store
	Client *httpx.Client
	Log    *slog.Logger

	// SubprocessTimeout bounds CLI strategy runs; zero means 30s.
	SubprocessTimeout time.Duration
}

func (d Deps) logger() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.Default()
}

// acquire dispatches one strategy config.
func acquire(ctx context.Context, desc *provider.Descriptor, cfg provider.StrategyConfig, deps Deps) (*provider.RawResponse, error) {
	switch cfg.Kind {
	case provider.StrategyAPIKey:
		return acquireAPIKey(ctx, desc, cfg, deps)
	case provider.StrategyOAuth:
		return acquireOAuth(ctx, desc, cfg, deps)
	case provider.StrategyCLI:
		return acquireCLI(ctx, desc, cfg, deps)
	case provider.StrategyLocalDB:
		return acquireLocalDB(ctx, desc, cfg, deps)
	case provider.StrategyWebSession:
		return acquireWebSession(ctx, desc, cfg, deps)
	default:
		return nil, provider.Errorf(provider.ResultPermanent, "unknown strategy kind %q", cfg.Kind)
	}
}

// Run executes the descriptor's strategy chain in declared order. The
// chain falls through to the next strategy only on auth-required or
// unsupported signals; transient, rate-limit and permanent errors abort
// immediately so the real cause is never masked by a fallback.
func Run(ctx context.Context, desc *provider.Descriptor, deps Deps) (*provider.RawResponse, provider.StrategyKind, []provider.Attempt, error) {
	var attempts []provider.Attempt
	var firstAuthErr error

	for _, cfg := range desc.Strategies {
		start := time.Now()
		raw, err := acquire(ctx, desc, cfg, deps)
		elapsed := time.Since(start)

		if err == nil {
			attempts = append(attempts, provider.Attempt{Strategy: cfg.Kind, Elapsed: elapsed})
			return raw, cfg.Kind, attempts, nil
		}

		attempts = append(attempts, provider.Attempt{Strategy: cfg.Kind, Err: err.Error(), Elapsed: elapsed})

		if errors.Is(err, ErrUnsupported) {
			deps.logger().Debug("strategy unsupported, trying next",
				"provider", desc.ID, "strategy", cfg.Kind)
			continue
		}
		if provider.KindOf(err) == provider.ResultAuthRequired {
			deps.logger().Debug("strategy needs auth, trying next",
				"provider", desc.ID, "strategy", cfg.Kind)
			if firstAuthErr == nil {
				firstAuthErr = err
			}
			continue
		}

		return nil, cfg.Kind, attempts, err
	}

	if firstAuthErr != nil {
		// The most preferred strategy's auth reason is the actionable one.
		return nil, "", attempts, firstAuthErr
	}
	return nil, "", attempts, provider.Errorf(provider.ResultPermanent,
		"no usable strategy for provider %q", desc.ID)
}

// credential loads the secret a strategy needs, translating store errors
// into the fetch classification. Store unavailability and permission
// problems abort the chain rather than falling through, so they are never
// silently skipped.
func credential(deps Deps, id provider.ProviderID, kind provider.CredentialKind) (credstore.Credential, error) {
	cred, err := deps.Store.Get(id, kind)
	if err == nil {
		return cred, nil
	}
	switch {
	case errors.Is(err, credstore.ErrNotFound):
		return credstore.Credential{}, provider.WrapErr(provider.ResultAuthRequired, err,
			"no stored %s for %s", kind, id)
	case errors.Is(err, credstore.ErrPermissionDenied):
		return credstore.Credential{}, provider.WrapErr(provider.ResultPermanent, err,
			"credential store permission denied")
	default:
		return credstore.Credential{}, provider.WrapErr(provider.ResultPermanent, err,
			"credential store unavailable")
	}
}

// authHeaderValue renders "<scheme> <secret>" or the bare secret.
func authHeaderValue(scheme, secret string) string {
	if scheme == "" {
		return secret
	}
	return fmt.Sprintf("%s %s", scheme, secret)
}
