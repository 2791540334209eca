package zai

import (
	"testing"
	"time"

	"github.com/user/quotabar/internal/provider"
)

func rawWith(body string) *provider.RawResponse {
	return &provider.RawResponse{
		ProviderID: "zai",
		Source:     provider.StrategyAPIKey,
		Body:       []byte(body),
		FetchedAt:  time.Now(),
	}
}

func TestParse_TokensAndSpend(t *testing.T) {
	body := `{
		"success": true,
		"data": {
			"plan_name": "coding-max",
			"used_tokens": 150000,
			"token_limit": 1000000,
			"used_cents": 420,
			"limit_cents": 2000
		}
	}`
	rec, err := Parse(rawWith(body))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if rec.Quota == nil || *rec.Quota.Used != 150000 || rec.Quota.Unit != "tokens" {
		t.Errorf("unexpected quota %+v", rec.Quota)
	}
	if rec.Cost == nil || *rec.Cost.Amount != 420 || *rec.Cost.Limit != 2000 {
		t.Errorf("unexpected cost %+v", rec.Cost)
	}
	if rec.Plan != "coding-max" {
		t.Errorf("plan = %q", rec.Plan)
	}
}

func TestParse_RejectedIsPermanent(t *testing.T) {
	_, err := Parse(rawWith(`{"success": false, "message": "plan suspended"}`))
	if provider.KindOf(err) != provider.ResultPermanent {
		t.Fatalf("expected permanent_error, got %v", err)
	}
}
