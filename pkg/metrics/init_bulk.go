package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initBulkMetrics() {
	r.ChunksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphclient_bulk_chunks_total",
			Help: "Total number of bulk chunk executions",
		},
		[]string{"operation", "status"},
	)

	r.ChunkDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphclient_bulk_chunk_duration_seconds",
			Help:    "Bulk chunk execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	r.ChunkRows = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphclient_bulk_chunk_rows",
			Help:    "Number of rows per executed chunk",
			Buckets: []float64{10, 100, 500, 1000, 5000, 10000},
		},
	)

	r.DedupDiscardsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphclient_bulk_dedup_discards_total",
			Help: "Relationship additions discarded by the uniqueness filter",
		},
	)
}
