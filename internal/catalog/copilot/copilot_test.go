package copilot

import (
	"testing"
	"time"

	"github.com/user/quotabar/internal/provider"
)

func rawWith(body string) *provider.RawResponse {
	return &provider.RawResponse{
		ProviderID: "copilot",
		Source:     provider.StrategyOAuth,
		Body:       []byte(body),
		FetchedAt:  time.Now(),
	}
}

func TestParse_PremiumInteractions(t *testing.T) {
	body := `{
		"copilot_plan": "individual",
		"quota_reset_date": "2026-09-01",
		"quota_snapshots": {
			"premium_interactions": {"entitlement": 300, "remaining": 120}
		}
	}`
	rec, err := Parse(rawWith(body))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if rec.Quota == nil || *rec.Quota.Used != 180 || *rec.Quota.Limit != 300 {
		t.Errorf("unexpected quota %+v", rec.Quota)
	}
	if rec.RateLimit == nil || rec.RateLimit.ResetsAt == nil {
		t.Fatal("expected reset date on the rate window")
	}
	if rec.Plan != "individual" {
		t.Errorf("plan = %q", rec.Plan)
	}
}

func TestParse_UnlimitedHasNoQuota(t *testing.T) {
	body := `{"quota_snapshots": {"premium_interactions": {"unlimited": true}}}`
	rec, err := Parse(rawWith(body))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if rec.Quota != nil {
		t.Error("unlimited entitlement must not fabricate a quota")
	}
}

func TestParse_MalformedIsPermanent(t *testing.T) {
	_, err := Parse(rawWith(`<!DOCTYPE html>`))
	if provider.KindOf(err) != provider.ResultPermanent {
		t.Fatalf("expected permanent_error, got %v", err)
	}
}
