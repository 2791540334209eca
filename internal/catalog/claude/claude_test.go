package claude

import (
	"reflect"
	"testing"
	"time"

	"github.com/user/quotabar/internal/provider"
)

func rawWith(body string) *provider.RawResponse {
	return &provider.RawResponse{
		ProviderID: "claude",
		Source:     provider.StrategyAPIKey,
		StatusCode: 200,
		Body:       []byte(body),
		FetchedAt:  time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}
}

func TestParse_CostOnly(t *testing.T) {
	rec, err := Parse(rawWith(`{"used_usd_cents": 1200, "limit_usd_cents": 5000}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if rec.Cost == nil {
		t.Fatal("expected cost")
	}
	if *rec.Cost.Amount != 1200 || *rec.Cost.Limit != 5000 {
		t.Errorf("got %d/%d cents, want 1200/5000", *rec.Cost.Amount, *rec.Cost.Limit)
	}
	if rec.Cost.Currency != "USD" {
		t.Errorf("unexpected currency %q", rec.Cost.Currency)
	}
	if rec.Quota != nil {
		t.Error("quota should be absent when the reply has no window data")
	}
}

func TestParse_SessionWindowAndPlan(t *testing.T) {
	body := `{
		"session": {"used_percent": 42.5, "remaining_percent": 57.5, "resets_at": "2026-08-28T17:00:00Z"},
		"user": {"email": "dev@example.com", "plan": "max"}
	}`
	rec, err := Parse(rawWith(body))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if rec.Quota == nil || *rec.Quota.Used != 42.5 || *rec.Quota.Limit != 100 {
		t.Errorf("unexpected quota %+v", rec.Quota)
	}
	if rec.RateLimit == nil || rec.RateLimit.ResetsAt == nil {
		t.Fatal("expected a rate window with reset time")
	}
	if rec.Plan != "max" {
		t.Errorf("plan = %q, want max", rec.Plan)
	}
}

func TestParse_MalformedIsPermanent(t *testing.T) {
	_, err := Parse(rawWith(`{"used_usd_cents": "lots"`))
	if provider.KindOf(err) != provider.ResultPermanent {
		t.Fatalf("expected permanent_error for malformed JSON, got %v", err)
	}
}

func TestParse_OverspendFlagsInconsistent(t *testing.T) {
	rec, err := Parse(rawWith(`{"used_usd_cents": 6000, "limit_usd_cents": 5000}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !rec.Inconsistent {
		t.Error("spend above limit must flag the record inconsistent, not reject it")
	}
}

func TestParse_Idempotent(t *testing.T) {
	raw := rawWith(`{"used_usd_cents": 1200, "limit_usd_cents": 5000, "user": {"plan": "pro"}}`)
	a, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("parsing the same payload twice diverged:\n%+v\n%+v", a, b)
	}
}
