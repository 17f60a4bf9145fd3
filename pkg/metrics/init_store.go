package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	r.StoreWritesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_writes_total",
			Help:      "Snapshot writes, by backend and outcome",
		},
		[]string{"backend", "status"},
	)

	r.StoreBytesWritten = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_bytes_written_total",
			Help:      "Bytes written by snapshot stores, by backend",
		},
		[]string{"backend"},
	)
}
