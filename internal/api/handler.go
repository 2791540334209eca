package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/user/quotabar/internal/provider"
)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) usageHandler(w http.ResponseWriter, r *http.Request) {
	filter := provider.ProviderID(r.URL.Query().Get("provider"))

	if data, ok := s.cache.Get(); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		json.NewEncoder(w).Encode(filterResults(data, filter))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	var ids []provider.ProviderID
	if filter != "" {
		ids = []provider.ProviderID{filter}
	}
	results := s.orch.FetchAll(ctx, ids)

	// Only full snapshots are worth caching; a filtered fetch would
	// otherwise serve partial data to the next caller.
	if filter == "" {
		s.cache.Set(results)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	json.NewEncoder(w).Encode(results)
}

func filterResults(results map[provider.ProviderID]provider.FetchResult, filter provider.ProviderID) map[provider.ProviderID]provider.FetchResult {
	if filter == "" {
		return results
	}
	filtered := make(map[provider.ProviderID]provider.FetchResult, 1)
	if res, ok := results[filter]; ok {
		filtered[filter] = res
	}
	return filtered
}

func (s *Server) providersHandler(w http.ResponseWriter, r *http.Request) {
	descriptors := s.registry.All()
	info := make([]map[string]any, len(descriptors))

	for i, d := range descriptors {
		kinds := make([]provider.StrategyKind, 0, len(d.Strategies))
		for _, cfg := range d.Strategies {
			kinds = append(kinds, cfg.Kind)
		}
		info[i] = map[string]any{
			"id":           d.ID,
			"display_name": d.DisplayName,
			"strategies":   kinds,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}
