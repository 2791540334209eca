// Package zai reads the Z.ai subscription usage endpoint with an API key.
package zai

import (
	"encoding/json"
	"time"

	"github.com/user/quotabar/internal/provider"
)

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		PlanName   string     `json:"plan_name"`
		UsedTokens *float64   `json:"used_tokens"`
		TokenLimit *float64   `json:"token_limit"`
		UsedCents  *int64     `json:"used_cents"`
		LimitCents *int64     `json:"limit_cents"`
		ResetsAt   *time.Time `json:"resets_at"`
	} `json:"data"`
}

func Descriptor() *provider.Descriptor {
	return &provider.Descriptor{
		ID:          "zai",
		DisplayName: "Z.ai",
		Hosts:       []string{"api.z.ai"},
		Strategies: []provider.StrategyConfig{
			{
				Kind:       provider.StrategyAPIKey,
				Endpoint:   "https://api.z.ai/api/biz/subscription/usage",
				AuthScheme: "Bearer",
			},
		},
		Parser: Parse,
	}
}

func Parse(raw *provider.RawResponse) (*provider.UsageRecord, error) {
	var resp apiResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "zai: decoding usage reply")
	}
	if !resp.Success || resp.Data == nil {
		return nil, provider.Errorf(provider.ResultPermanent, "zai: api rejected request: %s", resp.Message)
	}

	d := resp.Data
	rec := &provider.UsageRecord{
		ProviderID: raw.ProviderID,
		CapturedAt: raw.FetchedAt,
		Plan:       d.PlanName,
	}
	if d.UsedTokens != nil || d.TokenLimit != nil {
		rec.Quota = &provider.Quota{Used: d.UsedTokens, Limit: d.TokenLimit, Unit: "tokens"}
	}
	if d.UsedCents != nil || d.LimitCents != nil {
		rec.Cost = &provider.Cost{Amount: d.UsedCents, Limit: d.LimitCents, Currency: "USD"}
	}
	if d.ResetsAt != nil {
		rec.RateLimit = &provider.RateWindow{ResetsAt: d.ResetsAt, Label: "cycle"}
	}

	if err := rec.Validate(); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "zai: invalid usage record")
	}
	return rec, nil
}
