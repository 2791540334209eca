// Package minimax reads the coding-plan remains endpoint with a direct API
// key. Amounts arrive in fen, the CNY minor unit, and stay that way.
package minimax

import (
	"encoding/json"
	"time"

	"github.com/user/quotabar/internal/provider"
)

type apiResponse struct {
	Remains *struct {
		UsedCount  *float64 `json:"used_count"`
		TotalCount *float64 `json:"total_count"`
		ResetTime  *int64   `json:"reset_time"`
	} `json:"remains"`
	Subscription *struct {
		PlanName string `json:"plan_name"`
		SpentFen *int64 `json:"spent_fen"`
		QuotaFen *int64 `json:"quota_fen"`
	} `json:"subscription"`
	BaseResp *struct {
		StatusCode int    `json:"status_code"`
		StatusMsg  string `json:"status_msg"`
	} `json:"base_resp"`
}

func Descriptor() *provider.Descriptor {
	return &provider.Descriptor{
		ID:          "minimax",
		DisplayName: "MiniMax",
		Hosts:       []string{"api.minimaxi.com", "www.minimaxi.com"},
		Strategies: []provider.StrategyConfig{
			{
				Kind:       provider.StrategyAPIKey,
				Endpoint:   "https://api.minimaxi.com/v1/api/openplatform/coding_plan/remains",
				AuthScheme: "Bearer",
			},
		},
		Parser: Parse,
	}
}

// Parse normalizes the remains reply. The envelope carries its own status
// code; a non-zero one means the key is fine but the account state is not,
// which is permanent from the fetcher's point of view.
func Parse(raw *provider.RawResponse) (*provider.UsageRecord, error) {
	var resp apiResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "minimax: decoding remains reply")
	}
	if resp.BaseResp != nil && resp.BaseResp.StatusCode != 0 {
		return nil, provider.Errorf(provider.ResultPermanent,
			"minimax: api status %d: %s", resp.BaseResp.StatusCode, resp.BaseResp.StatusMsg)
	}

	rec := &provider.UsageRecord{
		ProviderID: raw.ProviderID,
		CapturedAt: raw.FetchedAt,
	}
	if r := resp.Remains; r != nil {
		rec.Quota = &provider.Quota{Used: r.UsedCount, Limit: r.TotalCount, Unit: "requests"}
		if r.ResetTime != nil && *r.ResetTime > 0 {
			t := time.Unix(*r.ResetTime, 0).UTC()
			rec.RateLimit = &provider.RateWindow{ResetsAt: &t, Label: "cycle"}
		}
	}
	if s := resp.Subscription; s != nil {
		rec.Plan = s.PlanName
		if s.SpentFen != nil || s.QuotaFen != nil {
			rec.Cost = &provider.Cost{Amount: s.SpentFen, Limit: s.QuotaFen, Currency: "CNY"}
		}
	}

	if err := rec.Validate(); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "minimax: invalid usage record")
	}
	return rec, nil
}
