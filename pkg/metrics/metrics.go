package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordValidation records one integrity validation
func (r *Registry) RecordValidation(stage string, err error, duration time.Duration) {
	r.ValidationsTotal.WithLabelValues(stage, status(err)).Inc()
	r.ValidationDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordTransition records one layer transition
func (r *Registry) RecordTransition(stage string, err error, duration time.Duration) {
	r.LayerTransitionsTotal.WithLabelValues(stage, status(err)).Inc()
	r.LayerTransitionDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordAllocation counts ids moved into the global id space
func (r *Registry) RecordAllocation(ntype string, n int) {
	r.IDAllocationsTotal.WithLabelValues(ntype).Add(float64(n))
}

// RecordJoin counts keys resolved through a sort-join index
func (r *Registry) RecordJoin(component string, n int) {
	r.JoinLookupsTotal.WithLabelValues(component).Add(float64(n))
}

// RecordAugment counts matched and unmatched cluster rows of one augmentation
func (r *Registry) RecordAugment(level string, matched, unmatched int) {
	r.AugmentedRowsTotal.WithLabelValues(level, "matched").Add(float64(matched))
	r.AugmentedRowsTotal.WithLabelValues(level, "unmatched").Add(float64(unmatched))
}

// RecordStoreWrite records one snapshot write
func (r *Registry) RecordStoreWrite(backend string, bytes int64, err error) {
	r.StoreWritesTotal.WithLabelValues(backend, status(err)).Inc()
	if err == nil {
		r.StoreBytesWritten.WithLabelValues(backend).Add(float64(bytes))
	}
}

// RecordRun records a finished pipeline run
func (r *Registry) RecordRun(err error, duration time.Duration) {
	r.RunsTotal.WithLabelValues(status(err)).Inc()
	r.RunDuration.Observe(duration.Seconds())
}

// SetGraphSize sets the node and edge gauges from per-type counts
func (r *Registry) SetGraphSize(nodes, edges map[string]int) {
	for ntype, n := range nodes {
		r.GraphNodes.WithLabelValues(ntype).Set(float64(n))
	}
	for etype, n := range edges {
		r.GraphEdges.WithLabelValues(etype).Set(float64(n))
	}
}

// WriteTextfile writes every metric in the Prometheus text format, for node_exporter's
// textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
