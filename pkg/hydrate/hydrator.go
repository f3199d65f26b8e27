package hydrate

import (
	"fmt"
	"strconv"
	"strings"
)

// GraphHydrator decodes the server's REST JSON shapes. A node payload carries
// a "self" URI, a "data" property map and label metadata; a relationship
// payload adds "type", "start" and "end"; a Cypher result carries "columns"
// and "data". Anything unrecognized passes through unchanged.
type GraphHydrator struct{}

// NewGraphHydrator creates a hydrator for the REST payload dialect.
func NewGraphHydrator() *GraphHydrator {
	return &GraphHydrator{}
}

// Hydrate converts a raw reply body into a Node, Relationship, Table or the
// raw value itself when the shape is not a graph payload.
func (h *GraphHydrator) Hydrate(raw any) (any, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return raw, nil
	}

	if msg, ok := obj["message"].(string); ok {
		if _, hasException := obj["exception"]; hasException {
			return nil, fmt.Errorf("server error: %s", msg)
		}
	}

	if _, ok := obj["columns"]; ok {
		return h.hydrateTable(obj)
	}

	self, ok := obj["self"].(string)
	if !ok {
		return raw, nil
	}

	if _, isRel := obj["type"]; isRel {
		return h.hydrateRelationship(self, obj)
	}
	return h.hydrateNode(self, obj)
}

func (h *GraphHydrator) hydrateNode(self string, obj map[string]any) (Node, error) {
	id, err := idFromURI(self)
	if err != nil {
		return Node{}, err
	}

	node := Node{ID: id, Properties: propertyMap(obj["data"])}
	if meta, ok := obj["metadata"].(map[string]any); ok {
		if rawLabels, ok := meta["labels"].([]any); ok {
			for _, l := range rawLabels {
				if s, ok := l.(string); ok {
					node.Labels = append(node.Labels, s)
				}
			}
		}
	}
	return node, nil
}

func (h *GraphHydrator) hydrateRelationship(self string, obj map[string]any) (Relationship, error) {
	id, err := idFromURI(self)
	if err != nil {
		return Relationship{}, err
	}

	rel := Relationship{ID: id, Properties: propertyMap(obj["data"])}
	if t, ok := obj["type"].(string); ok {
		rel.Type = t
	}
	if start, ok := obj["start"].(string); ok {
		if rel.StartID, err = idFromURI(start); err != nil {
			return Relationship{}, err
		}
	}
	if end, ok := obj["end"].(string); ok {
		if rel.EndID, err = idFromURI(end); err != nil {
			return Relationship{}, err
		}
	}
	return rel, nil
}

func (h *GraphHydrator) hydrateTable(obj map[string]any) (Table, error) {
	table := Table{}
	if cols, ok := obj["columns"].([]any); ok {
		for _, c := range cols {
			if s, ok := c.(string); ok {
				table.Columns = append(table.Columns, s)
			}
		}
	}
	if rows, ok := obj["data"].([]any); ok {
		for _, r := range rows {
			row, ok := r.([]any)
			if !ok {
				return Table{}, fmt.Errorf("malformed result row: %T", r)
			}
			hydratedRow := make([]any, len(row))
			for i, cell := range row {
				value, err := h.Hydrate(cell)
				if err != nil {
					return Table{}, err
				}
				hydratedRow[i] = value
			}
			table.Rows = append(table.Rows, hydratedRow)
		}
	}
	return table, nil
}

// ReduceTable applies the progressive unwrapping convention for query-shaped
// results: zero rows reduce to nil, exactly one row reduces to that row, and a
// single-column single row reduces to the bare cell value. Anything else is
// returned unchanged.
func ReduceTable(value any) any {
	table, ok := value.(Table)
	if !ok {
		return value
	}
	switch len(table.Rows) {
	case 0:
		return nil
	case 1:
		row := table.Rows[0]
		if len(row) == 1 {
			return row[0]
		}
		return row
	default:
		return table
	}
}

func idFromURI(uri string) (uint64, error) {
	idx := strings.LastIndexByte(uri, '/')
	if idx < 0 || idx == len(uri)-1 {
		return 0, fmt.Errorf("cannot extract entity id from uri %q", uri)
	}
	id, err := strconv.ParseUint(uri[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot extract entity id from uri %q: %w", uri, err)
	}
	return id, nil
}

func propertyMap(raw any) map[string]any {
	if m, ok := raw.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
