// Package observability bundles Prometheus collectors for the chat backend.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the orchestrator and router.
type Metrics struct {
	registry         *prometheus.Registry
	SendRequests     *prometheus.CounterVec
	SendDuration     *prometheus.HistogramVec
	ProviderFailures *prometheus.CounterVec
	FallbackRetries  *prometheus.CounterVec
	ActiveSends      prometheus.Gauge
}

// NewMetrics constructs a metrics registry with chat collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	sends := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lyra_send_requests_total",
		Help: "Total send-message requests by outcome",
	}, []string{"outcome"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lyra_send_duration_seconds",
		Help:    "Send-message duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lyra_provider_failures_total",
		Help: "Upstream provider failures by provider and model",
	}, []string{"provider", "model"})

	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lyra_fallback_retries_total",
		Help: "Fallback model retries by provider",
	}, []string{"provider"})

	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lyra_active_sends",
		Help: "Send-message calls currently in flight",
	})

	reg.MustRegister(sends, durs, failures, fallbacks, active)

	return &Metrics{
		registry:         reg,
		SendRequests:     sends,
		SendDuration:     durs,
		ProviderFailures: failures,
		FallbackRetries:  fallbacks,
		ActiveSends:      active,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSend records a completed send-message call.
func (m *Metrics) RecordSend(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.SendRequests.WithLabelValues(outcome).Inc()
	m.SendDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordProviderFailure records an upstream provider failure.
func (m *Metrics) RecordProviderFailure(provider, model string) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "unknown"
	}
	if model == "" {
		model = "unknown"
	}
	m.ProviderFailures.WithLabelValues(provider, model).Inc()
}

// RecordFallbackRetry records a fallback-model retry.
func (m *Metrics) RecordFallbackRetry(provider string) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "unknown"
	}
	m.FallbackRetries.WithLabelValues(provider).Inc()
}

// IncActiveSends increments the in-flight send gauge.
func (m *Metrics) IncActiveSends() {
	if m == nil {
		return
	}
	m.ActiveSends.Inc()
}

// DecActiveSends decrements the in-flight send gauge.
func (m *Metrics) DecActiveSends() {
	if m == nil {
		return
	}
	m.ActiveSends.Dec()
}
