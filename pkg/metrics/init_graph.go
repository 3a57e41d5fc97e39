package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.VisibleNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "etymograph_graph_visible_nodes",
			Help: "Number of words in the visible graph",
		},
	)

	r.VisibleEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "etymograph_graph_visible_edges",
			Help: "Number of relationships in the visible graph",
		},
	)

	r.ExpansionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "etymograph_graph_expansions_total",
			Help: "Total number of node expansions",
		},
		[]string{"trigger", "status"},
	)

	r.SuppressedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "etymograph_graph_expansions_suppressed_total",
			Help: "Expand calls ignored because the node was expanded or in flight",
		},
	)

	r.StaleDropsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "etymograph_graph_stale_responses_total",
			Help: "Lookup responses discarded because the graph moved on",
		},
	)

	r.DroppedLinksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "etymograph_graph_dropped_links_total",
			Help: "Relationships dropped because an endpoint did not resolve",
		},
	)

	r.ResetsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "etymograph_graph_resets_total",
			Help: "Total number of graph resets",
		},
	)
}
