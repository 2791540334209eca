// Package cursor reads usage out of the editor's local state database. The
// state.vscdb key/value table stores the usage meter as a JSON blob.
package cursor

import (
	"encoding/json"

	"github.com/user/quotabar/internal/provider"
)

type stateBlob struct {
	Requests     *float64 `json:"requests"`
	RequestLimit *float64 `json:"request_limit"`
	SpentCents   *int64   `json:"spent_cents"`
	BudgetCents  *int64   `json:"budget_cents"`
	Plan         string   `json:"plan"`
}

func Descriptor() *provider.Descriptor {
	return &provider.Descriptor{
		ID:          "cursor",
		DisplayName: "Cursor",
		Strategies: []provider.StrategyConfig{
			{
				Kind:         provider.StrategyLocalDB,
				DatabasePath: "~/.config/Cursor/User/globalStorage/state.vscdb",
				Query:        "SELECT value FROM ItemTable WHERE key = ?",
				QueryArgs:    []any{"aiService.usage"},
			},
		},
		Parser: Parse,
	}
}

// Parse reads the row set produced by the local-db strategy. A reachable
// database with no usage row is a data condition and therefore permanent,
// not something a retry can fix.
func Parse(raw *provider.RawResponse) (*provider.UsageRecord, error) {
	var rows []map[string]any
	if err := json.Unmarshal(raw.Body, &rows); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "cursor: decoding state rows")
	}
	if len(rows) == 0 {
		return nil, provider.Errorf(provider.ResultPermanent,
			"cursor: state database has no usage entry")
	}

	value, ok := rows[0]["value"].(string)
	if !ok || value == "" {
		return nil, provider.Errorf(provider.ResultPermanent,
			"cursor: usage entry has no value column")
	}

	var blob stateBlob
	if err := json.Unmarshal([]byte(value), &blob); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "cursor: decoding usage blob")
	}

	rec := &provider.UsageRecord{
		ProviderID: raw.ProviderID,
		CapturedAt: raw.FetchedAt,
		Plan:       blob.Plan,
	}
	if blob.Requests != nil || blob.RequestLimit != nil {
		rec.Quota = &provider.Quota{
			Used:  blob.Requests,
			Limit: blob.RequestLimit,
			Unit:  "requests",
		}
	}
	if blob.SpentCents != nil || blob.BudgetCents != nil {
		rec.Cost = &provider.Cost{
			Amount:   blob.SpentCents,
			Limit:    blob.BudgetCents,
			Currency: "USD",
		}
	}

	if err := rec.Validate(); err != nil {
		return nil, provider.WrapErr(provider.ResultPermanent, err, "cursor: invalid usage record")
	}
	return rec, nil
}
