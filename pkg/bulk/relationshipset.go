package bulk

import (
	"context"
	"slices"

	"github.com/dd0wney/cluso-graphclient/pkg/logging"
	"github.com/dd0wney/cluso-graphclient/pkg/metrics"
)

// RelationshipSet is a client-side buffer of (start, end, relationship)
// property triples sharing one relationship type and endpoint key specs.
// Endpoints are located by label plus the key spec's property values, which
// are extracted from the endpoint property mappings on drain.
//
// In unique mode a structural fingerprint of every added triple is remembered
// and later additions with the same fingerprint are discarded silently. That
// is an at-most-once guarantee for this buffer only; nothing is implied about
// data already on the server — that guarantee comes from Merge, not Create.
type RelationshipSet struct {
	relType  string
	startKey NodeKey
	endKey   NodeKey
	rows     []any

	unique bool
	seen   map[uint64]struct{}

	logger   logging.Logger
	registry *metrics.Registry
}

// NewRelationshipSet creates a buffer for relationships of the given type
// between endpoints identified by the two key specs.
func NewRelationshipSet(relType string, startKey, endKey NodeKey, opts ...ContainerOption) *RelationshipSet {
	c := applyOptions(opts)
	s := &RelationshipSet{
		relType:  relType,
		startKey: startKey,
		endKey:   endKey,
		unique:   c.unique,
		logger:   c.logger,
		registry: c.registry,
	}
	if s.unique {
		s.seen = make(map[uint64]struct{})
	}
	return s
}

// AddRelationship appends one relationship described by its endpoint property
// mappings and its own properties. Endpoint mappings must contain every key
// named by the corresponding key spec. In unique mode, a triple whose
// fingerprint was already seen is discarded and the call reports false.
func (s *RelationshipSet) AddRelationship(startProps, endProps, relProps map[string]any) (bool, error) {
	startValue, err := keyValues(s.startKey, startProps, "start")
	if err != nil {
		return false, err
	}
	endValue, err := keyValues(s.endKey, endProps, "end")
	if err != nil {
		return false, err
	}

	if s.unique {
		fp := fingerprint(startProps, endProps, relProps)
		if _, dup := s.seen[fp]; dup {
			if s.registry != nil {
				s.registry.RecordDedupDiscard()
			}
			return false, nil
		}
		s.seen[fp] = struct{}{}
	}

	detail := relProps
	if detail == nil {
		detail = map[string]any{}
	}
	s.rows = append(s.rows, []any{startValue, any(detail), endValue})
	return true, nil
}

// Len returns the number of buffered relationships.
func (s *RelationshipSet) Len() int {
	return len(s.rows)
}

// Create drains the buffer, creating every buffered relationship in chunks of
// at most batchSize rows.
func (s *RelationshipSet) Create(ctx context.Context, conn Connection, batchSize int) error {
	return s.drain(ctx, conn, batchSize, "create_relationships", func(chunk []any) (string, map[string]any, error) {
		return CreateRelationshipsQuery(chunk, s.relType, &s.startKey, &s.endKey, nil)
	})
}

// Merge drains the buffer, merging every buffered relationship on its type
// and endpoints so re-running a load cannot duplicate relationships.
func (s *RelationshipSet) Merge(ctx context.Context, conn Connection, batchSize int) error {
	return s.drain(ctx, conn, batchSize, "merge_relationships", func(chunk []any) (string, map[string]any, error) {
		return MergeRelationshipsQuery(chunk, s.relType, &s.startKey, &s.endKey, nil, nil)
	})
}

func (s *RelationshipSet) drain(ctx context.Context, conn Connection, batchSize int, operation string, build func([]any) (string, map[string]any, error)) error {
	if len(s.rows) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	rows := s.rows
	s.rows = nil
	if s.seen != nil {
		s.seen = make(map[uint64]struct{})
	}

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

// keyValues extracts the key spec's values from an endpoint property mapping:
// a single key yields its bare value, a composite key yields the values as a
// positional list in key order.
func keyValues(key NodeKey, props map[string]any, side string) (any, error) {
	if len(key.Keys) == 0 {
		return nil, invalidSpec("%s node key for label %q names no properties", side, key.Label)
	}
	values := make([]any, len(key.Keys))
	for i, k := range key.Keys {
		v, ok := props[k]
		if !ok {
			return nil, invalidSpec("%s node properties missing key %q", side, k)
		}
		values[i] = v
	}
	if len(values) == 1 {
		return values[0], nil
	}
	return values, nil
}
