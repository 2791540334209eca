package strategy

import (
	"context"
	"net/http"

	"github.com/user/quotabar/internal/httpx"
	"github.com/user/quotabar/internal/provider"
)

// acquireWebSession fetches an authenticated page with a stored session
// cookie. An absent or rejected session surfaces as auth-required; this
// strategy never attempts credential recovery itself.
func acquireWebSession(ctx context.Context, desc *provider.Descriptor, cfg provider.StrategyConfig, deps Deps) (*provider.RawResponse, error) {
	cred, err := credential(deps, desc.ID, provider.CredentialSessionCookie)
	if err != nil {
		return nil, err
	}

	header := make(http.Header, len(cfg.Headers)+2)
	for k, v := range cfg.Headers {
		header.Set(k, v)
	}
	header.Set("Cookie", cred.Secret)
	if header.Get("Accept") == "" {
		header.Set("Accept", "text/html,application/json")
	}

	raw, err := deps.Client.Execute(ctx, httpx.Request{
		ProviderID: desc.ID,
		Source:     provider.StrategyWebSession,
		Method:     cfg.Method,
		URL:        cfg.Endpoint,
		Header:     header,
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}
