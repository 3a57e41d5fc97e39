package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Lexicon fetch metrics
	FetchesTotal     *prometheus.CounterVec
	FetchDuration    *prometheus.HistogramVec
	FetchesInFlight  prometheus.Gauge
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Graph metrics
	VisibleNodes      prometheus.Gauge
	VisibleEdges      prometheus.Gauge
	ExpansionsTotal   *prometheus.CounterVec
	SuppressedTotal   prometheus.Counter
	StaleDropsTotal   prometheus.Counter
	DroppedLinksTotal prometheus.Counter
	ResetsTotal       prometheus.Counter

	// Layout metrics
	SimulationTicksTotal  prometheus.Counter
	SimulationTickSeconds prometheus.Histogram
	SimulationAlpha       prometheus.Gauge
	SimulationBodies      prometheus.Gauge

	// HTTP metrics for the lexicon API
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)
