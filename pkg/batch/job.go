// Package batch implements the client's batch execution engine: jobs are
// accumulated into an ordered batch, forward references between jobs in the
// same batch are resolved into positional pointers, the whole batch is posted
// as one network exchange, and per-job results are demultiplexed back into
// typed domain values.
package batch

// Method is the verb of a single job. The server's batch endpoint accepts
// exactly these four.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// Job is one unit of work within a batch. Jobs compare by identity, never by
// value: the same "create node with these properties" job can be appended
// twice and the batch still tells the two apart by pointer. A Job is immutable
// after construction and is consumed exactly once by submission.
type Job struct {
	// Method is the job's verb.
	Method Method

	// Target is the resolved destination path for the job. It may contain a
	// "{n}" placeholder referring to the result of job n in the same batch.
	Target string

	// Body is the optional payload: a mapping, list or scalar.
	Body any

	// RawResult bypasses domain hydration for this job's result; the reply
	// body is returned as opaque data.
	RawResult bool
}

// NewJob creates a job with the given verb, target and body.
func NewJob(method Method, target string, body any) *Job {
	return &Job{Method: method, Target: target, Body: body}
}

// Raw marks the job's result as opaque and returns the job for chaining.
func (j *Job) Raw() *Job {
	j.RawResult = true
	return j
}
