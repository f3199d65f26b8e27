package batch

import (
	"errors"
	"fmt"
)

// ErrBatchFinished is returned when a batch that has already been submitted is
// submitted again. Batches are single-use: submission clears the job list, so
// resubmitting would silently post nothing.
var ErrBatchFinished = errors.New("batch already submitted")

// JobNotFoundError reports a job that was resolved against a batch it does not
// belong to.
type JobNotFoundError struct {
	BatchID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job not found in batch %s", e.BatchID)
}

// BatchError reports a server-side failure of one job within a submitted
// batch. It retains the original server message and enough submission context
// (batch, job index, status, origin URI) to correlate the failure against the
// operation that caused it.
type BatchError struct {
	Message    string
	BatchID    string
	JobID      int
	StatusCode int
	URI        string
	Location   string

	cause error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %s job %d failed with status %d at %s: %s",
		e.BatchID, e.JobID, e.StatusCode, e.URI, e.Message)
}

// Unwrap exposes the original hydration or server error for errors.Is/As.
func (e *BatchError) Unwrap() error {
	return e.cause
}

// UniquenessError reports a merge that was expected to match at most one
// entity but matched several. It is never resolved silently by picking one;
// the server's own message is retained. Retrieve it from a failed JobResult
// with errors.As.
type UniquenessError struct {
	BatchID string
	JobID   int
	Message string
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("batch %s job %d: merge matched more than one entity: %s", e.BatchID, e.JobID, e.Message)
}
