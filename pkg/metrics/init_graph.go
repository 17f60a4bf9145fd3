package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Number of nodes in the latest snapshot, by node type",
		},
		[]string{"ntype"},
	)

	r.GraphEdges = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Number of edges in the latest snapshot, by edge type",
		},
		[]string{"etype"},
	)

	r.ValidationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Integrity validations run, by stage and outcome",
		},
		[]string{"stage", "status"},
	)

	r.ValidationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Integrity validation duration in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		},
		[]string{"stage"},
	)

	r.JoinLookupsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "join_lookups_total",
			Help:      "Keys resolved through a sort-join index, by caller",
		},
		[]string{"component"},
	)
}
