// Package codex reads usage from the codex CLI's JSON status output.
package codex

import (
	"encoding/json"
	"time"

	"github.com/user/quotabar/internal/provider"
)

type cliResponse struct {
	Session *usageWindow `json:"session"`
	Weekly  *usageWindow `json:"weekly"`

	Account *struct {
		Email string `json:"email"`
		Plan  string `json:"plan"`
	} `json:"account"`

	Credits *struct {
		Remaining *float64 `json:"remaining"`
		Total     *float64 `json:"total"`
		Unit      string   `json:"unit"`
	} `json:"credits"`
}

type usageWindow struct {
	UsedPercent *float64   `json:"used_percent"`
	ResetsAt    *time.Time `json:"resets_at"`
}

func Descriptor() *provider.Descriptor {
	return &provider.Descriptor{
		ID:          "codex",
		DisplayName: "Codex",
		Strategies: []provider.StrategyConfig{
			{
				Kind:    provider.StrategyCLI,
				Command: "codex",
				Args:    []string{"usage", "--json"},
			},
		},
		Parser: Parse,
	}
}

// Parse normalizes the CLI status dump: the session meter becomes the quota,
// credits become spend-style remaining units.
func Parse(raw *provider.RawResponse) (*provider.UsageRecord, error) {
	var resp cliResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "codex: decoding cli output")
	}

	rec := &provider.UsageRecord{
		ProviderID: raw.ProviderID,
		CapturedAt: raw.FetchedAt,
	}

	window := resp.Session
	label := "session"
	if window == nil {
		window, label = resp.Weekly, "weekly"
	}
	if window != nil {
		if window.UsedPercent != nil {
			rec.Quota = &provider.Quota{
				Used:  window.UsedPercent,
				Limit: provider.Ptr(100.0),
				Unit:  "percent",
			}
		}
		rec.RateLimit = &provider.RateWindow{ResetsAt: window.ResetsAt, Label: label}
	} else if resp.Credits != nil {
		unit := resp.Credits.Unit
		if unit == "" {
			unit = "credits"
		}
		q := &provider.Quota{Limit: resp.Credits.Total, Unit: unit}
		if resp.Credits.Remaining != nil && resp.Credits.Total != nil && *resp.Credits.Remaining <= *resp.Credits.Total {
			q.Used = provider.Ptr(*resp.Credits.Total - *resp.Credits.Remaining)
		}
		rec.Quota = q
	}

	if resp.Account != nil {
		rec.Plan = resp.Account.Plan
	}

	if err := rec.Validate(); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "codex: invalid usage record")
	}
	return rec, nil
}
