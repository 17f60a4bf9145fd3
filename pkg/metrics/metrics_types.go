// Package metrics holds the Prometheus collectors of one pipeline run.
//
// Each Registry owns its own prometheus.Registry. There is no package-level default: the
// registry travels with pipeline.RunContext so concurrent runs (and tests) never share
// counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kg"

// Registry holds all metrics for a pipeline run
type Registry struct {
	// Graph size
	GraphNodes *prometheus.GaugeVec
	GraphEdges *prometheus.GaugeVec

	// Integrity validation
	ValidationsTotal   *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec

	// Layer transitions
	LayerTransitionsTotal   *prometheus.CounterVec
	LayerTransitionDuration *prometheus.HistogramVec
	IDAllocationsTotal      *prometheus.CounterVec

	// Sort-join lookups
	JoinLookupsTotal *prometheus.CounterVec

	// LLM augmentation
	AugmentedRowsTotal *prometheus.CounterVec

	// Snapshot stores
	StoreWritesTotal  *prometheus.CounterVec
	StoreBytesWritten *prometheus.CounterVec

	// Whole runs
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initGraphMetrics()
	r.initPipelineMetrics()
	r.initStoreMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
