package metrics

import (
	"fmt"
	"time"
)

// RecordBatch records one batch submission with its job count and duration
func (r *Registry) RecordBatch(jobs int, status string, duration time.Duration) {
	r.BatchesTotal.WithLabelValues(status).Inc()
	r.BatchDuration.WithLabelValues(status).Observe(duration.Seconds())
	r.BatchJobs.Observe(float64(jobs))
}

// RecordJobFailure records one failed job by its status class ("4xx", "5xx")
func (r *Registry) RecordJobFailure(statusCode int) {
	r.BatchJobFailuresTotal.WithLabelValues(statusClass(statusCode)).Inc()
}

// RecordChunk records one bulk chunk execution
func (r *Registry) RecordChunk(operation, status string, rows int, duration time.Duration) {
	r.ChunksTotal.WithLabelValues(operation, status).Inc()
	r.ChunkDuration.WithLabelValues(operation).Observe(duration.Seconds())
	r.ChunkRows.Observe(float64(rows))
}

// RecordDedupDiscard records one relationship addition dropped by the
// uniqueness filter
func (r *Registry) RecordDedupDiscard() {
	r.DedupDiscardsTotal.Inc()
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", code/100)
}
