package bulk

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dd0wney/cluso-graphclient/pkg/cypher"
	"github.com/dd0wney/cluso-graphclient/pkg/logging"
	"github.com/dd0wney/cluso-graphclient/pkg/metrics"
)

// NodeSet is a client-side buffer of node property mappings sharing one label
// set and one merge key specification. Rows accumulate via Add and drain in
// fixed-size chunks through Create or Merge, one statement execution per
// chunk. The buffer is single-owner: append, then drain.
type NodeSet struct {
	labels    []string
	mergeKeys []string
	rows      []any

	logger   logging.Logger
	registry *metrics.Registry
}

// ContainerOption configures a NodeSet or RelationshipSet.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	logger   logging.Logger
	registry *metrics.Registry
	unique   bool
}

// WithContainerLogger sets the container's logger.
func WithContainerLogger(l logging.Logger) ContainerOption {
	return func(c *containerConfig) { c.logger = l }
}

// WithContainerMetrics sets the metrics registry the container records into.
func WithContainerMetrics(m *metrics.Registry) ContainerOption {
	return func(c *containerConfig) { c.registry = m }
}

// WithUnique enables client-side deduplication on add (RelationshipSet only).
func WithUnique() ContainerOption {
	return func(c *containerConfig) { c.unique = true }
}

func applyOptions(opts []ContainerOption) containerConfig {
	c := containerConfig{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewNodeSet creates a buffer for nodes carrying the given labels. mergeKeys
// name the properties that assert node identity during Merge; the first label
// is the merge label.
func NewNodeSet(labels []string, mergeKeys []string, opts ...ContainerOption) *NodeSet {
	c := applyOptions(opts)
	return &NodeSet{
		labels:    labels,
		mergeKeys: mergeKeys,
		logger:    c.logger,
		registry:  c.registry,
	}
}

// Add appends one node's properties to the buffer.
func (s *NodeSet) Add(properties map[string]any) {
	s.rows = append(s.rows, properties)
}

// Len returns the number of buffered nodes.
func (s *NodeSet) Len() int {
	return len(s.rows)
}

// Create drains the buffer, creating every buffered node in chunks of at most
// batchSize rows (DefaultBatchSize when <= 0).
func (s *NodeSet) Create(ctx context.Context, conn Connection, batchSize int) error {
	return s.drain(ctx, conn, batchSize, "create_nodes", func(chunk []any) (string, map[string]any, error) {
		return CreateNodesQuery(chunk, nil, s.labels...)
	})
}

// Merge drains the buffer, merging every buffered node on the set's merge
// keys. Nodes that already exist are refreshed, not duplicated.
func (s *NodeSet) Merge(ctx context.Context, conn Connection, batchSize int) error {
	if len(s.labels) == 0 {
		return invalidSpec("merge requires at least one label")
	}
	mergeKey := NodeKey{Label: s.labels[0], Keys: s.mergeKeys}
	return s.drain(ctx, conn, batchSize, "merge_nodes", func(chunk []any) (string, map[string]any, error) {
		return MergeNodesQuery(chunk, mergeKey, nil, s.labels, nil)
	})
}

func (s *NodeSet) drain(ctx context.Context, conn Connection, batchSize int, operation string, build func([]any) (string, map[string]any, error)) error {
	if len(s.rows) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	rows := s.rows
	s.rows = nil

	for chunk := range slices.Chunk(rows, batchSize) {
		statement, params, err := build(chunk)
		if err != nil {
			return err
		}
		if err := runChunk(ctx, conn, s.logger, s.registry, operation, statement, params, len(chunk)); err != nil {
			return err
		}
	}
	return nil
}

// runChunk executes one chunk statement with logging and metrics.
func runChunk(ctx context.Context, conn Connection, logger logging.Logger, registry *metrics.Registry, operation, statement string, params map[string]any, rows int) error {
	if err := cypher.ValidateStatement(statement); err != nil {
		return fmt.Errorf("refusing to execute %s chunk: %w", operation, err)
	}

	started := time.Now()
	_, err := conn.Run(ctx, statement, params)
	if err != nil {
		if registry != nil {
			registry.RecordChunk(operation, "error", rows, time.Since(started))
		}
		return fmt.Errorf("failed to execute %s chunk of %d rows: %w", operation, rows, err)
	}

	if registry != nil {
		registry.RecordChunk(operation, "ok", rows, time.Since(started))
	}
	logger.Debug("executed bulk chunk",
		logging.String("operation", operation),
		logging.ChunkSize(rows),
		logging.Latency(time.Since(started)))
	return nil
}
