package batch

import (
	"github.com/google/uuid"

	"github.com/dd0wney/cluso-graphclient/pkg/entity"
	"github.com/dd0wney/cluso-graphclient/pkg/wire"
)

// Batch is an ordered, append-only collection of jobs scoped to one
// submission. Indices are 0-based and stable: they become the wire-level job
// ids that forward references are expressed in.
//
// A Batch is single-use. Submission marks it finished and clears the job
// list; submitting again returns ErrBatchFinished. Call Clear to reuse the
// object for an unrelated submission.
//
// A Batch is a single-writer structure: it must not be appended to from
// multiple goroutines, nor appended to while a submission is in flight.
type Batch struct {
	id       string
	jobs     []*Job
	finished bool
}

// New creates an empty batch with a fresh correlation id.
func New() *Batch {
	return &Batch{id: uuid.NewString()}
}

// ID returns the batch's correlation id, used in logs and errors.
func (b *Batch) ID() string {
	return b.id
}

// Append adds a job at the end of the batch and returns the same job so call
// sites can capture it for later resolution.
func (b *Batch) Append(job *Job) *Job {
	b.jobs = append(b.jobs, job)
	return job
}

// Find returns the index of a job by reference identity. Duplicate-by-value
// jobs at different positions are distinguished correctly because only
// pointer equality counts.
func (b *Batch) Find(job *Job) (int, error) {
	for i, j := range b.jobs {
		if j == job {
			return i, nil
		}
	}
	return 0, &JobNotFoundError{BatchID: b.id}
}

// Resolve converts a value into an entity reference for use as a job target.
// A job belonging to this batch becomes a Pointer to its index, which is what
// lets a caller say "create a relationship from node A to the node I just
// asked to create" without knowing the future id. A job from a different
// batch is a usage error. Anything that is already a Ref passes through, and
// a plain value is wrapped as Inline.
func (b *Batch) Resolve(value any) (entity.Ref, error) {
	switch v := value.(type) {
	case *Job:
		index, err := b.Find(v)
		if err != nil {
			return nil, err
		}
		return entity.Pointer{BatchIndex: index}, nil
	case entity.Ref:
		return v, nil
	default:
		return entity.Inline{Value: value}, nil
	}
}

// Clear empties the batch and makes it submittable again.
func (b *Batch) Clear() {
	b.jobs = nil
	b.finished = false
}

// Len returns the number of jobs currently in the batch.
func (b *Batch) Len() int {
	return len(b.jobs)
}

// Jobs returns the ordered job slice. The slice is shared, not copied;
// callers must not modify it.
func (b *Batch) Jobs() []*Job {
	return b.jobs
}

// Payloads serializes the batch into wire records in append order. Each
// payload's id equals the job's position, which is what forward references in
// the same payload are written against.
func (b *Batch) Payloads() []wire.JobPayload {
	payloads := make([]wire.JobPayload, len(b.jobs))
	for i, job := range b.jobs {
		payloads[i] = wire.JobPayload{
			ID:     i,
			Method: string(job.Method),
			To:     job.Target,
			Body:   job.Body,
		}
	}
	return payloads
}

// finish marks the batch consumed and detaches its jobs for submission.
func (b *Batch) finish() []*Job {
	jobs := b.jobs
	b.jobs = nil
	b.finished = true
	return jobs
}
