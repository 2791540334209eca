package strategy

import (
	"context"
	"net/http"

	"github.com/user/quotabar/internal/httpx"
	"github.com/user/quotabar/internal/provider"
)

// acquireAPIKey reads the stored API key and issues one authenticated
// call through the HTTP layer.
func acquireAPIKey(ctx context.Context, desc *provider.Descriptor, cfg provider.StrategyConfig, deps Deps) (*provider.RawResponse, error) {
	cred, err := credential(deps, desc.ID, provider.CredentialAPIKey)
	if err != nil {
		return nil, err
	}

	header := make(http.Header, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		header.Set(k, v)
	}
	name := cfg.AuthHeader
	if name == "" {
		name = "Authorization"
	}
	header.Set(name, authHeaderValue(cfg.AuthScheme, cred.Secret))

	return deps.Client.Execute(ctx, httpx.Request{
		ProviderID: desc.ID,
		Source:     provider.StrategyAPIKey,
		Method:     cfg.Method,
		URL:        cfg.Endpoint,
		Header:     header,
		Body:       []byte(cfg.Body),
	})
}
