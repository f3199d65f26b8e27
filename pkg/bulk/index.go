package bulk

import (
	"context"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-graphclient/pkg/cypher"
	"github.com/dd0wney/cluso-graphclient/pkg/logging"
)

// CreateIndexes issues one CREATE INDEX statement per (label, property) pair
// and, for composite keys, one per full combination. A server complaint that
// the index already exists is logged and tolerated; any other error
// propagates.
func CreateIndexes(ctx context.Context, conn Connection, logger logging.Logger, label string, keys []string) error {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	statements := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		statements = append(statements, indexStatement(label, key))
	}
	if len(keys) > 1 {
		statements = append(statements, indexStatement(label, keys...))
	}

	for _, statement := range statements {
		if _, err := conn.Run(ctx, statement, nil); err != nil {
			if isAlreadyExists(err) {
				logger.Warn("index already exists", logging.Statement(statement))
				continue
			}
			return fmt.Errorf("failed to create index: %w", err)
		}
		logger.Debug("created index", logging.Statement(statement))
	}
	return nil
}

// CreateIndex creates the merge-key indexes for a NodeSet's merge label.
func (s *NodeSet) CreateIndex(ctx context.Context, conn Connection) error {
	if len(s.labels) == 0 || len(s.mergeKeys) == 0 {
		return invalidSpec("index creation requires a label and at least one merge key")
	}
	return CreateIndexes(ctx, conn, s.logger, s.labels[0], s.mergeKeys)
}

// CreateIndex creates the endpoint-key indexes for both ends of a
// RelationshipSet.
func (s *RelationshipSet) CreateIndex(ctx context.Context, conn Connection) error {
	if err := CreateIndexes(ctx, conn, s.logger, s.startKey.Label, s.startKey.Keys); err != nil {
		return err
	}
	return CreateIndexes(ctx, conn, s.logger, s.endKey.Label, s.endKey.Keys)
}

func indexStatement(label string, keys ...string) string {
	escaped := make([]string, len(keys))
	for i, key := range keys {
		escaped[i] = cypher.EscapeIdentifier(key)
	}
	return "CREATE INDEX ON :" + cypher.EscapeIdentifier(label) + "(" + strings.Join(escaped, ", ") + ")"
}

func isAlreadyExists(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
