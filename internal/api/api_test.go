package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/user/quotabar/internal/credstore"
	"github.com/user/quotabar/internal/httpx"
	"github.com/user/quotabar/internal/orchestrator"
	"github.com/user/quotabar/internal/provider"
	"github.com/user/quotabar/internal/strategy"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	reg := provider.NewRegistry()
	reg.MustRegister(&provider.Descriptor{
		ID: "good",
		Parser: func(raw *provider.RawResponse) (*provider.UsageRecord, error) {
			return &provider.UsageRecord{
				ProviderID: raw.ProviderID,
				CapturedAt: raw.FetchedAt,
				Quota:      &provider.Quota{Used: provider.Ptr(3.0), Unit: "requests"},
			}, nil
		},
		Strategies: []provider.StrategyConfig{
			{Kind: provider.StrategyCLI, Command: "echo", Args: []string{"{}"}},
		},
	})
	reg.Seal()

	deps := strategy.Deps{
		Store:  credstore.NewMemStore(),
		Client: httpx.NewClient(httpx.DefaultPolicy()),
	}
	orch := orchestrator.New(reg, deps, orchestrator.Options{})
	return NewServer(reg, orch, "127.0.0.1:0", time.Minute, 5*time.Second)
}

func TestUsageEndpoint_CachesFullSnapshots(t *testing.T) {
	s := testServer(t)

	first := httptest.NewRecorder()
	s.Handler().ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d", first.Code)
	}
	if first.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first call X-Cache = %q, want MISS", first.Header().Get("X-Cache"))
	}

	var results map[provider.ProviderID]provider.FetchResult
	if err := json.Unmarshal(first.Body.Bytes(), &results); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if res, ok := results["good"]; !ok || res.Kind != provider.ResultSuccess {
		t.Errorf("unexpected results %+v", results)
	}

	second := httptest.NewRecorder()
	s.Handler().ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))
	if second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second call X-Cache = %q, want HIT", second.Header().Get("X-Cache"))
	}
}

func TestUsageEndpoint_ProviderFilter(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/usage?provider=absent", nil))

	var results map[provider.ProviderID]provider.FetchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if res, ok := results["absent"]; !ok || res.Kind != provider.ResultPermanent {
		t.Errorf("unknown provider must yield a permanent result, got %+v", results)
	}
}

func TestProvidersEndpoint(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var info []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(info) != 1 || info[0]["id"] != "good" {
		t.Errorf("unexpected providers payload %v", info)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
