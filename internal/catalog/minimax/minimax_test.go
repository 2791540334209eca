package minimax

import (
	"testing"
	"time"

	"github.com/user/quotabar/internal/provider"
)

func rawWith(body string) *provider.RawResponse {
	return &provider.RawResponse{
		ProviderID: "minimax",
		Source:     provider.StrategyAPIKey,
		Body:       []byte(body),
		FetchedAt:  time.Now(),
	}
}

func TestParse_RemainsAndSubscription(t *testing.T) {
	body := `{
		"remains": {"used_count": 80, "total_count": 200, "reset_time": 1756425600},
		"subscription": {"plan_name": "coding-pro", "spent_fen": 1500, "quota_fen": 9900},
		"base_resp": {"status_code": 0}
	}`
	rec, err := Parse(rawWith(body))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if rec.Quota == nil || *rec.Quota.Used != 80 || *rec.Quota.Limit != 200 {
		t.Errorf("unexpected quota %+v", rec.Quota)
	}
	if rec.Cost == nil || *rec.Cost.Amount != 1500 || rec.Cost.Currency != "CNY" {
		t.Errorf("unexpected cost %+v", rec.Cost)
	}
	if rec.RateLimit == nil || rec.RateLimit.ResetsAt == nil {
		t.Error("expected reset time on the rate window")
	}
	if rec.Plan != "coding-pro" {
		t.Errorf("plan = %q", rec.Plan)
	}
}

func TestParse_EnvelopeErrorIsPermanent(t *testing.T) {
	_, err := Parse(rawWith(`{"base_resp": {"status_code": 1004, "status_msg": "no active plan"}}`))
	if provider.KindOf(err) != provider.ResultPermanent {
		t.Fatalf("expected permanent_error, got %v", err)
	}
}
