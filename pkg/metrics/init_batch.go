package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initBatchMetrics() {
	r.BatchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphclient_batches_total",
			Help: "Total number of batch submissions",
		},
		[]string{"status"},
	)

	r.BatchDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphclient_batch_duration_seconds",
			Help:    "Batch round-trip latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	r.BatchJobs = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphclient_batch_jobs",
			Help:    "Number of jobs per submitted batch",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
		},
	)

	r.BatchJobFailuresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphclient_batch_job_failures_total",
			Help: "Total number of failed jobs by status class",
		},
		[]string{"status_class"},
	)
}
