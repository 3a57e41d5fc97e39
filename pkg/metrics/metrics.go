package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initLexiconMetrics()
	r.initGraphMetrics()
	r.initLayoutMetrics()
	r.initHTTPMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordFetch records one lexicon lookup. source is "static" or
// "remote", op is "word" or "neighborhood", status is "ok", "not_found"
// or "error".
func (r *Registry) RecordFetch(source, op, status string, duration time.Duration) {
	r.FetchesTotal.WithLabelValues(source, op, status).Inc()
	r.FetchDuration.WithLabelValues(source, op).Observe(duration.Seconds())
}

// RecordCache records a response cache lookup.
func (r *Registry) RecordCache(cache string, hit bool) {
	if hit {
		r.CacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	r.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordExpansion records the outcome of an expand call. trigger is
// "user" or "auto".
func (r *Registry) RecordExpansion(trigger, status string) {
	r.ExpansionsTotal.WithLabelValues(trigger, status).Inc()
}

// SetGraphSize updates the visible node and edge gauges.
func (r *Registry) SetGraphSize(nodes, edges int) {
	r.VisibleNodes.Set(float64(nodes))
	r.VisibleEdges.Set(float64(edges))
}

// RecordSimulationTick records one force step.
func (r *Registry) RecordSimulationTick(bodies int, alpha float64, duration time.Duration) {
	r.SimulationTicksTotal.Inc()
	r.SimulationTickSeconds.Observe(duration.Seconds())
	r.SimulationAlpha.Set(alpha)
	r.SimulationBodies.Set(float64(bodies))
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
