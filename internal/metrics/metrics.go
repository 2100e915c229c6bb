// Package metrics exposes Prometheus metrics for signin.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/willemschots/signin/internal/auth"
)

const namespace = "signin"

// Metrics holds the collectors and the registry they're registered with.
type Metrics struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
	requests *prometheus.HistogramVec
}

// New creates a new Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_outcomes_total",
			Help:      "Number of login attempts by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.outcomes,
		m.requests,
	)

	// Initialize all outcomes, so they're exported before the first attempt.
	for _, o := range auth.Outcomes {
		m.outcomes.WithLabelValues(o.String())
	}

	return m
}

// Record counts the outcome of a login attempt. The identity is not used,
// it would result in unbounded label cardinality.
func (m *Metrics) Record(_ context.Context, _ string, outcome auth.Outcome) {
	m.outcomes.WithLabelValues(outcome.String()).Inc()
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentRoute measures the duration of requests handled by h.
func (m *Metrics) InstrumentRoute(route string, h http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(m.requests.MustCurryWith(prometheus.Labels{"route": route}), h)
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
