// Package api exposes the fetched usage data over HTTP for dashboards and
// status bars that poll instead of shelling out.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/quotabar/internal/orchestrator"
	"github.com/user/quotabar/internal/provider"
)

type Server struct {
	registry *provider.Registry
	orch     *orchestrator.Orchestrator
	cache    *Cache
	timeout  time.Duration
	server   *http.Server
}

func NewServer(registry *provider.Registry, orch *orchestrator.Orchestrator, addr string, cacheTTL, timeout time.Duration) *Server {
	s := &Server{
		registry: registry,
		orch:     orch,
		cache:    NewCache(cacheTTL),
		timeout:  timeout,
	}

	mux := http.NewServeMux()
	s.registerHandlers(mux)

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return s
}

func (s *Server) registerHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/health", s.healthHandler)
	mux.HandleFunc("/api/v1/usage", s.usageHandler)
	mux.HandleFunc("/api/v1/providers", s.providersHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
