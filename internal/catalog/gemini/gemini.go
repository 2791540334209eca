// Package gemini reads the daily request meter from the gemini CLI.
package gemini

import (
	"encoding/json"
	"time"

	"github.com/user/quotabar/internal/provider"
)

type cliResponse struct {
	Requests *struct {
		Used    *float64   `json:"used"`
		Limit   *float64   `json:"limit"`
		ResetAt *time.Time `json:"reset_at"`
	} `json:"requests"`
	Plan string `json:"plan"`
}

func Descriptor() *provider.Descriptor {
	return &provider.Descriptor{
		ID:          "gemini",
		DisplayName: "Gemini",
		Strategies: []provider.StrategyConfig{
			{
				Kind:    provider.StrategyCLI,
				Command: "gemini",
				Args:    []string{"usage", "--json"},
			},
		},
		Parser: Parse,
	}
}

func Parse(raw *provider.RawResponse) (*provider.UsageRecord, error) {
	var resp cliResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "gemini: decoding cli output")
	}

	rec := &provider.UsageRecord{
		ProviderID: raw.ProviderID,
		CapturedAt: raw.FetchedAt,
		Plan:       resp.Plan,
	}
	if r := resp.Requests; r != nil {
		rec.Quota = &provider.Quota{Used: r.Used, Limit: r.Limit, Unit: "requests"}
		if r.ResetAt != nil {
			rec.RateLimit = &provider.RateWindow{ResetsAt: r.ResetAt, Label: "daily"}
		}
	}

	if err := rec.Validate(); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "gemini: invalid usage record")
	}
	return rec, nil
}
