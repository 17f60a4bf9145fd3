package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPipelineMetrics() {
	r.LayerTransitionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layer_transitions_total",
			Help:      "Layer transitions attempted, by target stage and outcome",
		},
		[]string{"stage", "status"},
	)

	r.LayerTransitionDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layer_transition_duration_seconds",
			Help:      "Layer transition duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 1.0, 10.0},
		},
		[]string{"stage"},
	)

	r.IDAllocationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "id_allocations_total",
			Help:      "Node ids moved into the global id space, by node type",
		},
		[]string{"ntype"},
	)

	r.AugmentedRowsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "augmented_rows_total",
			Help:      "Cluster rows joined to LLM evaluations, by level and match outcome",
		},
		[]string{"level", "result"},
	)

	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs, by outcome",
		},
		[]string{"status"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end pipeline run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)
}
