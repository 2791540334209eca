// Package claude describes the Anthropic usage endpoint. Spend arrives as
// integer USD cents; quota windows are optional percent meters.
package claude

import (
	"encoding/json"
	"time"

	"github.com/user/quotabar/internal/provider"
)

type apiResponse struct {
	UsedUSDCents  *int64 `json:"used_usd_cents"`
	LimitUSDCents *int64 `json:"limit_usd_cents"`

	Session *windowData `json:"session"`
	Weekly  *windowData `json:"weekly"`

	User *struct {
		Email string `json:"email"`
		Plan  string `json:"plan"`
	} `json:"user"`
}

type windowData struct {
	UsedPercent *float64   `json:"used_percent"`
	Remaining   *float64   `json:"remaining_percent"`
	ResetsAt    *time.Time `json:"resets_at"`
}

func Descriptor() *provider.Descriptor {
	return &provider.Descriptor{
		ID:          "claude",
		DisplayName: "Claude",
		Hosts:       []string{"api.anthropic.com", "console.anthropic.com"},
		Strategies: []provider.StrategyConfig{
			{
				Kind:       provider.StrategyAPIKey,
				Endpoint:   "https://api.anthropic.com/api/oauth/usage",
				AuthHeader: "x-api-key",
				Headers:    map[string]string{"anthropic-version": "2023-06-01"},
			},
			{
				Kind:       provider.StrategyOAuth,
				Endpoint:   "https://api.anthropic.com/api/oauth/usage",
				TokenURL:   "https://console.anthropic.com/v1/oauth/token",
				AuthScheme: "Bearer",
				Headers:    map[string]string{"anthropic-version": "2023-06-01"},
			},
		},
		Parser: Parse,
	}
}

// Parse normalizes the usage reply. Spend fields are required to be whole
// cents when present; windows and plan are optional.
func Parse(raw *provider.RawResponse) (*provider.UsageRecord, error) {
	var resp apiResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "claude: decoding usage reply")
	}

	rec := &provider.UsageRecord{
		ProviderID: raw.ProviderID,
		CapturedAt: raw.FetchedAt,
	}

	if resp.UsedUSDCents != nil || resp.LimitUSDCents != nil {
		rec.Cost = &provider.Cost{
			Amount:   resp.UsedUSDCents,
			Limit:    resp.LimitUSDCents,
			Currency: "USD",
		}
	}

	// The session window is the one the menu surfaces; weekly only fills
	// in when the session meter is absent.
	if w := pickWindow(resp.Session, resp.Weekly); w != nil {
		rec.RateLimit = &provider.RateWindow{
			ResetsAt:  w.ResetsAt,
			Remaining: w.Remaining,
			Label:     "session",
		}
		if w.UsedPercent != nil {
			rec.Quota = &provider.Quota{
				Used:  w.UsedPercent,
				Limit: provider.Ptr(100.0),
				Unit:  "percent",
			}
		}
	}

	if resp.User != nil {
		rec.Plan = resp.User.Plan
	}

	if err := rec.Validate(); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "claude: invalid usage record")
	}
	return rec, nil
}

func pickWindow(session, weekly *windowData) *windowData {
	if session != nil {
		return session
	}
	return weekly
}
