package bulk

import "context"

// Connection is the execution collaborator for bulk statements: typically a
// transaction, but anything that can run one parameterized statement works.
type Connection interface {
	Run(ctx context.Context, statement string, parameters map[string]any) ([][]any, error)
}

// DefaultBatchSize is the chunk size used when the caller passes none.
const DefaultBatchSize = 1000
