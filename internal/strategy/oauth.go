package strategy

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/user/quotabar/internal/credstore"
	"github.com/user/quotabar/internal/httpx"
	"github.com/user/quotabar/internal/provider"
)

// tokenResponse is the refresh-grant reply shape shared by the providers
// in the catalog.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// acquireOAuth issues the authenticated call with the stored access token,
// refreshing it first when the stored expiry has passed. The refreshed
// token is persisted before the usage call so a crash between the two
// never loses it. Refresh failure means the user must re-authenticate.
func acquireOAuth(ctx context.Context, desc *provider.Descriptor, cfg provider.StrategyConfig, deps Deps) (*provider.RawResponse, error) {
	cred, err := credential(deps, desc.ID, provider.CredentialOAuthToken)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if cred.Expired(now) {
		cred, err = refresh(ctx, desc, cfg, deps, cred)
		if err != nil {
			return nil, err
		}
	}

	header := make(http.Header, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		header.Set(k, v)
	}
	scheme := cfg.AuthScheme
	if scheme == "" {
		scheme = "Bearer"
	}
	header.Set("Authorization", authHeaderValue(scheme, cred.Secret))

	return deps.Client.Execute(ctx, httpx.Request{
		ProviderID: desc.ID,
		Source:     provider.StrategyOAuth,
		Method:     cfg.Method,
		URL:        cfg.Endpoint,
		Header:     header,
		Body:       []byte(cfg.Body),
	})
}

func refresh(ctx context.Context, desc *provider.Descriptor, cfg provider.StrategyConfig, deps Deps, cred credstore.Credential) (credstore.Credential, error) {
	if cred.RefreshSecret == "" {
		return credstore.Credential{}, provider.Errorf(provider.ResultAuthRequired,
			"access token for %s expired and no refresh token is stored", desc.ID)
	}
	if cfg.TokenURL == "" {
		return credstore.Credential{}, provider.Errorf(provider.ResultAuthRequired,
			"access token for %s expired and the provider declares no token endpoint", desc.ID)
	}

	body, err := json.Marshal(map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": cred.RefreshSecret,
	})
	if err != nil {
		return credstore.Credential{}, provider.WrapErr(provider.ResultPermanent, err, "encoding refresh request")
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	raw, err := deps.Client.Execute(ctx, httpx.Request{
		ProviderID: desc.ID,
		Source:     provider.StrategyOAuth,
		Method:     http.MethodPost,
		URL:        cfg.TokenURL,
		Header:     header,
		Body:       body,
	})
	if err != nil {
		// Whatever went wrong, the stored token no longer works; the
		// caller should prompt for re-auth rather than retry blindly.
		return credstore.Credential{}, provider.WrapErr(provider.ResultAuthRequired, err,
			"token refresh for %s failed", desc.ID)
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw.Body, &tok); err != nil || tok.AccessToken == "" {
		return credstore.Credential{}, provider.Errorf(provider.ResultAuthRequired,
			"token endpoint for %s returned an unusable reply", desc.ID)
	}

	next := credstore.Credential{
		ProviderID:    desc.ID,
		Kind:          provider.CredentialOAuthToken,
		Secret:        tok.AccessToken,
		RefreshSecret: cred.RefreshSecret,
	}
	if tok.RefreshToken != "" {
		next.RefreshSecret = tok.RefreshToken
	}
	if tok.ExpiresIn > 0 {
		next.ExpiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	if err := deps.Store.Put(next); err != nil {
		return credstore.Credential{}, provider.WrapErr(provider.ResultPermanent, err,
			"persisting refreshed token for %s", desc.ID)
	}
	deps.logger().Debug("refreshed oauth token", "provider", desc.ID)
	return next, nil
}
