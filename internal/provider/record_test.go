package provider

import (
	"errors"
	"testing"
	"time"
)

func TestUsageRecord_Validate_NonNegative(t *testing.T) {
	rec := &UsageRecord{
		ProviderID: "claude",
		CapturedAt: time.Now(),
		Quota:      &Quota{Used: Ptr(-1.0), Limit: Ptr(100.0), Unit: "requests"},
	}
	if err := rec.Validate(); err == nil {
		t.Fatal("expected error for negative quota used")
	}

	rec = &UsageRecord{
		ProviderID: "claude",
		Cost:       &Cost{Amount: Ptr(int64(-5)), Currency: "USD"},
	}
	if err := rec.Validate(); err == nil {
		t.Fatal("expected error for negative cost amount")
	}
}

func TestUsageRecord_Validate_UsedOverLimit_FlagsInconsistent(t *testing.T) {
	rec := &UsageRecord{
		ProviderID: "claude",
		Quota:      &Quota{Used: Ptr(120.0), Limit: Ptr(100.0), Unit: "requests"},
	}
	if err := rec.Validate(); err != nil {
		t.Fatalf("used > limit must not be rejected: %v", err)
	}
	if !rec.Inconsistent {
		t.Fatal("expected record flagged inconsistent")
	}
}

func TestUsageRecord_Validate_CostOverLimit_FlagsInconsistent(t *testing.T) {
	rec := &UsageRecord{
		ProviderID: "openai",
		Cost:       &Cost{Amount: Ptr(int64(6000)), Limit: Ptr(int64(5000)), Currency: "USD"},
	}
	if err := rec.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if !rec.Inconsistent {
		t.Fatal("expected record flagged inconsistent")
	}
}

func TestUsageRecord_Validate_MissingProvider(t *testing.T) {
	rec := &UsageRecord{}
	if err := rec.Validate(); err == nil {
		t.Fatal("expected error for record without provider id")
	}
}

func TestUsageRecord_MarkStale(t *testing.T) {
	now := time.Now()
	rec := &UsageRecord{ProviderID: "claude", CapturedAt: now.Add(-2 * time.Hour)}

	rec.MarkStale(now, time.Hour)
	if !rec.Stale {
		t.Fatal("expected record older than threshold to be stale")
	}

	fresh := &UsageRecord{ProviderID: "claude", CapturedAt: now}
	fresh.MarkStale(now, time.Hour)
	if fresh.Stale {
		t.Fatal("fresh record must not be stale")
	}
}

func TestError_Classification(t *testing.T) {
	err := Errorf(ResultAuthRequired, "token expired")
	if KindOf(err) != ResultAuthRequired {
		t.Errorf("expected auth_required, got %s", KindOf(err))
	}

	wrapped := WrapErr(ResultPermanent, errors.New("bad payload"), "parse failed")
	if KindOf(wrapped) != ResultPermanent {
		t.Errorf("expected permanent_error, got %s", KindOf(wrapped))
	}
	if !errors.Is(wrapped, wrapped.Unwrap()) {
		t.Error("expected wrapped cause to be reachable via Unwrap")
	}

	if KindOf(errors.New("plain")) != ResultTransient {
		t.Error("unclassified errors should default to transient")
	}
}

func TestError_RetryAfter(t *testing.T) {
	err := RateLimitedErr(42 * time.Second)
	if KindOf(err) != ResultRateLimited {
		t.Fatalf("expected rate_limited, got %s", KindOf(err))
	}
	if RetryAfterOf(err) != 42*time.Second {
		t.Fatalf("expected retry-after 42s, got %s", RetryAfterOf(err))
	}
}

func TestFailure_PropagatesRetryAfter(t *testing.T) {
	res := Failure("kimi", RateLimitedErr(10*time.Second))
	if res.Kind != ResultRateLimited {
		t.Fatalf("expected rate_limited, got %s", res.Kind)
	}
	if res.RetryAfter != 10*time.Second {
		t.Fatalf("expected 10s retry-after, got %s", res.RetryAfter)
	}
	if res.OK() {
		t.Fatal("failure result must not report OK")
	}
}
