// Package hydrate converts raw REST payloads from the graph server into typed
// domain values: nodes, relationships, paths and tabular query results.
package hydrate

// Node is a remote graph node.
type Node struct {
	ID         uint64
	Labels     []string
	Properties map[string]any
}

// Relationship is a remote graph relationship between two nodes.
type Relationship struct {
	ID         uint64
	StartID    uint64
	EndID      uint64
	Type       string
	Properties map[string]any
}

// Path is an alternating sequence of nodes and relationships.
type Path struct {
	Nodes         []Node
	Relationships []Relationship
}

// Table is a Cypher-shaped result: named columns over rows of values.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Hydrator converts one raw reply body into a domain value. Implementations
// return an error for payloads that declare a server-side failure.
type Hydrator interface {
	Hydrate(raw any) (any, error)
}
