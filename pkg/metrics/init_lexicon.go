package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLexiconMetrics() {
	r.FetchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "etymograph_lexicon_fetches_total",
			Help: "Total number of lexicon lookups",
		},
		[]string{"source", "op", "status"},
	)

	r.FetchDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "etymograph_lexicon_fetch_duration_seconds",
			Help:    "Lexicon lookup latency in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"source", "op"},
	)

	r.FetchesInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "etymograph_lexicon_fetches_in_flight",
			Help: "Current number of outstanding lexicon lookups",
		},
	)

	r.CacheHitsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "etymograph_cache_hits_total",
			Help: "Response cache hits",
		},
		[]string{"cache"},
	)

	r.CacheMissesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "etymograph_cache_misses_total",
			Help: "Response cache misses",
		},
		[]string{"cache"},
	)
}
