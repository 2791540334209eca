package httpx

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts outbound HTTP activity per provider.
type Metrics struct {
	requests  *prometheus.CounterVec
	retries   *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewMetrics registers the httpx collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quotabar",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Outbound HTTP requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quotabar",
			Subsystem: "http",
			Name:      "retries_total",
			Help:      "Retries performed by provider.",
		}, []string{"provider"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quotabar",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Outbound request latency by provider.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.retries, m.durations)
	}
	return m
}

func (m *Metrics) observe(providerID, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(providerID, outcome).Inc()
	m.durations.WithLabelValues(providerID).Observe(seconds)
}

func (m *Metrics) retried(providerID string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(providerID).Inc()
}
