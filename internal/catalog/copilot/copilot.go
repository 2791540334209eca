// Package copilot reads the GitHub Copilot entitlement snapshot over OAuth.
package copilot

import (
	"encoding/json"
	"time"

	"github.com/user/quotabar/internal/provider"
)

type apiResponse struct {
	QuotaSnapshots map[string]quotaSnapshot `json:"quota_snapshots"`
	QuotaResetDate string                   `json:"quota_reset_date"`
	CopilotPlan    string                   `json:"copilot_plan"`
}

type quotaSnapshot struct {
	Entitlement      *float64 `json:"entitlement"`
	Remaining        *float64 `json:"remaining"`
	PercentRemaining *float64 `json:"percent_remaining"`
	Unlimited        bool     `json:"unlimited"`
}

func Descriptor() *provider.Descriptor {
	return &provider.Descriptor{
		ID:          "copilot",
		DisplayName: "GitHub Copilot",
		Hosts:       []string{"api.github.com", "github.com"},
		Strategies: []provider.StrategyConfig{
			{
				Kind:       provider.StrategyOAuth,
				Endpoint:   "https://api.github.com/copilot_internal/user",
				TokenURL:   "https://github.com/login/oauth/access_token",
				AuthScheme: "token",
				Headers: map[string]string{
					"Accept":               "application/json",
					"Editor-Version":       "vscode/1.96.0",
					"Editor-Plugin-Version": "copilot/1.250.0",
				},
			},
		},
		Parser: Parse,
	}
}

// Parse lifts the premium-interactions snapshot into a request quota. An
// unlimited entitlement yields a record with no quota at all.
func Parse(raw *provider.RawResponse) (*provider.UsageRecord, error) {
	var resp apiResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "copilot: decoding user reply")
	}

	rec := &provider.UsageRecord{
		ProviderID: raw.ProviderID,
		CapturedAt: raw.FetchedAt,
		Plan:       resp.CopilotPlan,
	}

	if snap, ok := resp.QuotaSnapshots["premium_interactions"]; ok && !snap.Unlimited {
		q := &provider.Quota{Limit: snap.Entitlement, Unit: "requests"}
		if snap.Remaining != nil && snap.Entitlement != nil && *snap.Remaining <= *snap.Entitlement {
			q.Used = provider.Ptr(*snap.Entitlement - *snap.Remaining)
		}
		rec.Quota = q
		rec.RateLimit = &provider.RateWindow{
			Remaining: snap.Remaining,
			Label:     "monthly",
		}
		if resp.QuotaResetDate != "" {
			if t, err := time.Parse("2006-01-02", resp.QuotaResetDate); err == nil {
				rec.RateLimit.ResetsAt = &t
			}
		}
	}

	if err := rec.Validate(); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "copilot: invalid usage record")
	}
	return rec, nil
}
