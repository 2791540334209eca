package cursor

import (
	"testing"
	"time"

	"github.com/user/quotabar/internal/provider"
)

func rawRows(body string) *provider.RawResponse {
	return &provider.RawResponse{
		ProviderID: "cursor",
		Source:     provider.StrategyLocalDB,
		Body:       []byte(body),
		FetchedAt:  time.Now(),
	}
}

func TestParse_UsageBlob(t *testing.T) {
	body := `[{"value": "{\"requests\": 120, \"request_limit\": 500, \"spent_cents\": 350, \"plan\": \"pro\"}"}]`
	rec, err := Parse(rawRows(body))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if rec.Quota == nil || *rec.Quota.Used != 120 || *rec.Quota.Limit != 500 {
		t.Errorf("unexpected quota %+v", rec.Quota)
	}
	if rec.Cost == nil || *rec.Cost.Amount != 350 {
		t.Errorf("unexpected cost %+v", rec.Cost)
	}
	if rec.Plan != "pro" {
		t.Errorf("plan = %q, want pro", rec.Plan)
	}
}

func TestParse_NoRowsIsPermanent(t *testing.T) {
	_, err := Parse(rawRows(`[]`))
	if provider.KindOf(err) != provider.ResultPermanent {
		t.Fatalf("empty reachable database must be a permanent error, got %v (%s)",
			err, provider.KindOf(err))
	}
}

func TestParse_RowWithoutValueIsPermanent(t *testing.T) {
	_, err := Parse(rawRows(`[{"key": "aiService.usage"}]`))
	if provider.KindOf(err) != provider.ResultPermanent {
		t.Fatalf("expected permanent_error, got %v", err)
	}
}

func TestParse_BadBlobIsPermanent(t *testing.T) {
	_, err := Parse(rawRows(`[{"value": "not json"}]`))
	if provider.KindOf(err) != provider.ResultPermanent {
		t.Fatalf("expected permanent_error, got %v", err)
	}
}
