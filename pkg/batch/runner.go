package batch

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dd0wney/cluso-graphclient/pkg/hydrate"
	"github.com/dd0wney/cluso-graphclient/pkg/logging"
	"github.com/dd0wney/cluso-graphclient/pkg/metrics"
	"github.com/dd0wney/cluso-graphclient/pkg/wire"
)

// Transport is the network collaborator. It owns connections, authentication
// and timeouts; the runner only asks it to exchange one batch payload for one
// response.
type Transport interface {
	PostBatch(ctx context.Context, payloads []wire.JobPayload) (Response, error)
}

// Response is one batch response being consumed. Next returns reply elements
// as the transport delivers them and io.EOF when the response is exhausted.
type Response interface {
	ContentLength() int64
	ContentType() string
	Next() (wire.ReplyElement, error)
	Close() error
}

// FailurePolicy controls what Submit does when one job among many fails.
// Which behavior is appropriate depends on the server: protocol revisions that
// apply a batch transactionally abort everything on first failure, so sibling
// results would be fabricated; revisions that apply jobs independently can
// meaningfully report them.
type FailurePolicy int

const (
	// FailFast aborts Submit on the first failed job and returns its
	// BatchError. Results for sibling jobs are discarded.
	FailFast FailurePolicy = iota

	// CollectPartial returns a result for every reply element; failed jobs
	// carry their BatchError in JobResult.Err alongside sibling successes.
	CollectPartial
)

// JobResult is the demultiplexed outcome of one job. Results are created only
// by the runner and are not modified afterwards. A result whose job failed
// server-side carries no content; the failure is in Err.
type JobResult struct {
	BatchID    string
	JobID      int
	URI        string
	StatusCode int
	Location   string
	Content    any
	Err        error
}

// Runner posts batches and demultiplexes their responses.
type Runner struct {
	transport Transport
	hydrator  hydrate.Hydrator
	logger    logging.Logger
	registry  *metrics.Registry
	policy    FailurePolicy
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithHydrator sets the domain hydration collaborator. Without one, all
// results are returned as raw data.
func WithHydrator(h hydrate.Hydrator) RunnerOption {
	return func(r *Runner) { r.hydrator = h }
}

// WithLogger sets the runner's logger.
func WithLogger(l logging.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics sets the metrics registry the runner records into.
func WithMetrics(m *metrics.Registry) RunnerOption {
	return func(r *Runner) { r.registry = m }
}

// WithFailurePolicy sets the partial-failure policy for Submit.
func WithFailurePolicy(p FailurePolicy) RunnerOption {
	return func(r *Runner) { r.policy = p }
}

// NewRunner creates a runner over the given transport. The default
// configuration hydrates nothing, logs nothing and fails fast.
func NewRunner(transport Transport, opts ...RunnerOption) *Runner {
	r := &Runner{
		transport: transport,
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Post serializes the batch, sends it as one exchange and returns the raw
// reply elements without hydration. The batch is consumed: its jobs are
// cleared and a second submission returns ErrBatchFinished.
func (r *Runner) Post(ctx context.Context, b *Batch) ([]wire.ReplyElement, error) {
	stream, err := r.open(ctx, b)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var replies []wire.ReplyElement
	for {
		result, err := stream.nextReply()
		if err == io.EOF {
			return replies, nil
		}
		if err != nil {
			return nil, err
		}
		replies = append(replies, result)
	}
}

// Run submits the batch and discards all result bodies. Server-side failures
// are still surfaced.
func (r *Runner) Run(ctx context.Context, b *Batch) error {
	stream, err := r.open(ctx, b)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		result, err := stream.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if result.Err != nil {
			return result.Err
		}
	}
}

// Stream submits the batch and returns a single-pass stream of results in
// transport delivery order. The stream is finite and not restartable:
// re-iterating after exhaustion requires building and submitting a new batch.
// The caller must Close the stream if it abandons iteration early.
func (r *Runner) Stream(ctx context.Context, b *Batch) (*ResultStream, error) {
	return r.open(ctx, b)
}

// Submit submits the batch and fully materializes results in job-id order.
// Under FailFast the first failed job aborts with its BatchError; under
// CollectPartial every reply becomes a result and failures are attached to
// the individual results.
func (r *Runner) Submit(ctx context.Context, b *Batch) ([]JobResult, error) {
	stream, err := r.open(ctx, b)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var results []JobResult
	for {
		result, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if result.Err != nil && r.policy == FailFast {
			return nil, result.Err
		}
		results = append(results, result)
	}

	// Delivery order is not submission order; re-correlate by job id.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].JobID < results[j].JobID
	})
	return results, nil
}

// open consumes the batch and starts the exchange.
func (r *Runner) open(ctx context.Context, b *Batch) (*ResultStream, error) {
	if b.finished {
		return nil, ErrBatchFinished
	}
	payloads := b.Payloads()
	jobs := b.finish()

	r.logger.Debug("submitting batch",
		logging.String("batch_id", b.id),
		logging.Int("jobs", len(jobs)))

	started := time.Now()
	response, err := r.transport.PostBatch(ctx, payloads)
	if err != nil {
		if r.registry != nil {
			r.registry.RecordBatch(len(jobs), "transport_error", time.Since(started))
		}
		return nil, fmt.Errorf("batch %s: %w", b.id, err)
	}
	if r.registry != nil {
		r.registry.RecordBatch(len(jobs), "ok", time.Since(started))
	}

	return &ResultStream{
		runner:   r,
		batchID:  b.id,
		jobs:     jobs,
		response: response,
	}, nil
}

// ResultStream yields JobResults incrementally as the transport delivers
// reply elements. It is single-pass: once drained or closed it only returns
// io.EOF.
type ResultStream struct {
	runner   *Runner
	batchID  string
	jobs     []*Job
	response Response
	drained  bool
	sawReply bool
}

// Next returns the next result, or io.EOF when the stream is exhausted.
func (s *ResultStream) Next() (JobResult, error) {
	reply, err := s.nextReply()
	if err != nil {
		return JobResult{}, err
	}
	return s.runner.demux(s.batchID, s.jobs, reply), nil
}

// Close releases the underlying response. Further calls to Next return io.EOF.
func (s *ResultStream) Close() error {
	if s.drained {
		return nil
	}
	s.drained = true
	return s.response.Close()
}

func (s *ResultStream) nextReply() (wire.ReplyElement, error) {
	if s.drained {
		return wire.ReplyElement{}, io.EOF
	}

	reply, err := s.response.Next()
	if err == io.EOF {
		s.drained = true
		s.response.Close()
		return wire.ReplyElement{}, io.EOF
	}
	if err != nil {
		// Some servers answer a batch of pure side-effecting jobs with a
		// declared JSON content type and a zero-length body. That is an empty
		// result list, not a parse failure — but only under exactly that
		// precondition. Every other malformed body is a hard error.
		if !s.sawReply && s.response.ContentLength() == 0 && isJSONContentType(s.response.ContentType()) {
			s.drained = true
			s.response.Close()
			return wire.ReplyElement{}, io.EOF
		}
		s.drained = true
		s.response.Close()
		return wire.ReplyElement{}, fmt.Errorf("batch %s: %w", s.batchID, err)
	}
	s.sawReply = true
	return reply, nil
}

// demux converts one reply element into a JobResult, applying hydration and
// the progressive table reduction unless the owning job asked for raw data.
func (r *Runner) demux(batchID string, jobs []*Job, reply wire.ReplyElement) JobResult {
	result := JobResult{
		BatchID:    batchID,
		JobID:      reply.ID,
		URI:        reply.From,
		StatusCode: reply.StatusCode(),
		Location:   reply.Location,
	}

	var job *Job
	if reply.ID >= 0 && reply.ID < len(jobs) {
		job = jobs[reply.ID]
	}
	if job == nil {
		result.Err = &BatchError{
			Message: fmt.Sprintf("server replied for unknown job id %d", reply.ID),
			BatchID: batchID,
			JobID:   reply.ID,
			URI:     reply.From,
		}
		return result
	}

	if result.StatusCode >= 400 {
		if r.registry != nil {
			r.registry.RecordJobFailure(result.StatusCode)
		}
		message := serverMessage(reply.Body)
		var cause error
		if isUniquenessViolation(reply.Body) {
			cause = &UniquenessError{BatchID: batchID, JobID: reply.ID, Message: message}
		}
		result.Err = r.batchError(batchID, reply, message, cause)
		return result
	}

	if job.RawResult || r.hydrator == nil {
		result.Content = reply.Body
		return result
	}

	value, err := r.hydrator.Hydrate(reply.Body)
	if err != nil {
		result.Err = r.batchError(batchID, reply, err.Error(), err)
		return result
	}
	result.Content = hydrate.ReduceTable(value)
	return result
}

func (r *Runner) batchError(batchID string, reply wire.ReplyElement, message string, cause error) *BatchError {
	return &BatchError{
		Message:    message,
		BatchID:    batchID,
		JobID:      reply.ID,
		StatusCode: reply.StatusCode(),
		URI:        reply.From,
		Location:   reply.Location,
		cause:      cause,
	}
}

// serverMessage extracts the server's own error message from a failed reply
// body so the operator sees the remote taxonomy, not a generic substitute.
func serverMessage(body any) string {
	if obj, ok := body.(map[string]any); ok {
		if msg, ok := obj["message"].(string); ok && msg != "" {
			return msg
		}
		if exc, ok := obj["exception"].(string); ok && exc != "" {
			return exc
		}
	}
	return "job failed"
}

// isUniquenessViolation recognizes the server exception classes raised when a
// unique path or constraint matched more than one entity.
func isUniquenessViolation(body any) bool {
	obj, ok := body.(map[string]any)
	if !ok {
		return false
	}
	for _, key := range []string{"exception", "fullname"} {
		if name, ok := obj[key].(string); ok {
			if strings.Contains(strings.ToLower(name), "unique") {
				return true
			}
		}
	}
	return false
}

func isJSONContentType(contentType string) bool {
	mediaType := contentType
	if idx := strings.IndexByte(mediaType, ';'); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
