// Package metrics exposes client-side observability: batch submissions, bulk
// chunk executions and their outcomes. There is no process-wide default
// registry; construct one and inject it into the components that should
// record into it, then expose it through your application's scrape endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the client
type Registry struct {
	// Batch metrics
	BatchesTotal          *prometheus.CounterVec
	BatchDuration         *prometheus.HistogramVec
	BatchJobs             prometheus.Histogram
	BatchJobFailuresTotal *prometheus.CounterVec

	// Bulk metrics
	ChunksTotal        *prometheus.CounterVec
	ChunkDuration      *prometheus.HistogramVec
	ChunkRows          prometheus.Histogram
	DedupDiscardsTotal prometheus.Counter

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initBatchMetrics()
	r.initBulkMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
