package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLayoutMetrics() {
	r.SimulationTicksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "etymograph_simulation_ticks_total",
			Help: "Total number of force simulation steps",
		},
	)

	r.SimulationTickSeconds = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "etymograph_simulation_tick_duration_seconds",
			Help:    "Time spent in one simulation step",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
	)

	r.SimulationAlpha = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "etymograph_simulation_alpha",
			Help: "Current simulation energy",
		},
	)

	r.SimulationBodies = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "etymograph_simulation_bodies",
			Help: "Number of nodes in the simulation",
		},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "etymograph_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "etymograph_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "etymograph_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)
}
