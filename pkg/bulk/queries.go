// Package bulk synthesizes parameterized UNWIND statements for bulk node and
// relationship loads, and provides chunking containers that stream large
// client-side collections through them.
//
// All statement builders are pure: identical input yields byte-identical
// statement text, and the returned parameter map aliases the caller's row
// slice instead of copying it, so large datasets make exactly one pass over
// the wire encoder and none here.
//
// Rows are either mappings (map[string]any) or positionally aligned sequences
// ([]any). Keys must be supplied exactly when rows are sequences; a mapping
// row set with keys, or a sequence row set without them, is rejected before
// any statement text is built.
package bulk

import (
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-graphclient/pkg/cypher"
)

// NodeKey is a node merge specification: the label identity is asserted on,
// plus the property keys of the uniqueness predicate. Zero keys assert on the
// label alone. Key order is caller-significant (it may mirror a composite
// index) and is never sorted.
type NodeKey struct {
	Label string
	Keys  []string
}

// InvalidBulkSpecError reports a malformed data/key combination. It is always
// raised locally, before any network traffic.
type InvalidBulkSpecError struct {
	Reason string
}

func (e *InvalidBulkSpecError) Error() string {
	return "invalid bulk specification: " + e.Reason
}

func invalidSpec(format string, args ...any) error {
	return &InvalidBulkSpecError{Reason: fmt.Sprintf(format, args...)}
}

// CreateNodesQuery builds one UNWIND statement creating a node per row.
// Labels render in sorted order so output is independent of the caller's set
// iteration order. Parameters hold the row slice under "data", unmodified.
func CreateNodesQuery(data []any, keys []string, labels ...string) (string, map[string]any, error) {
	if err := validateRows(data, keys); err != nil {
		return "", nil, err
	}

	lines := []string{
		"UNWIND $data AS r",
		"CREATE (_" + cypher.LabelString(labels...) + ")",
		"SET _ += " + projection(keys, nil),
	}
	return strings.Join(lines, "\n"), map[string]any{"data": data}, nil
}

// MergeNodesQuery builds one UNWIND statement merging a node per row on the
// given merge key. Preserved keys are set only on creation and excluded from
// the refresh projection, so re-merging an existing node leaves them alone.
// Labels beyond the merge label are applied with a trailing SET clause,
// sorted. Preserve requires positional rows because a mapping projection
// cannot exclude keys it does not know.
func MergeNodesQuery(data []any, mergeKey NodeKey, keys []string, labels []string, preserve []string) (string, map[string]any, error) {
	if err := validateRows(data, keys); err != nil {
		return "", nil, err
	}
	if mergeKey.Label == "" {
		return "", nil, invalidSpec("merge key requires a label")
	}
	if len(preserve) > 0 && keys == nil {
		return "", nil, invalidSpec("preserve requires positional rows with explicit keys")
	}

	predicate, err := mergePredicate(mergeKey, keys, rootAccessor{})
	if err != nil {
		return "", nil, err
	}

	lines := []string{
		"UNWIND $data AS r",
		"MERGE (_:" + cypher.EscapeIdentifier(mergeKey.Label) + predicate + ")",
	}
	if len(preserve) > 0 {
		lines = append(lines, onCreateSet(keys, preserve))
	}
	lines = append(lines, "SET _ += "+projection(keys, preserve))

	if secondary := secondaryLabels(labels, mergeKey.Label); secondary != "" {
		lines = append(lines, "SET _"+secondary)
	}
	return strings.Join(lines, "\n"), map[string]any{"data": data}, nil
}

// CreateRelationshipsQuery builds one UNWIND statement creating a relationship
// per row. Rows are (start, detail, end) triples; NormalizeRelRows applies
// before generation. Endpoints locate by internal identity when the
// corresponding key spec is nil, otherwise by label and key predicate.
func CreateRelationshipsQuery(data []any, relType string, startKey, endKey *NodeKey, keys []string) (string, map[string]any, error) {
	return relationshipsQuery(data, relType, startKey, endKey, nil, keys, false)
}

// MergeRelationshipsQuery is CreateRelationshipsQuery with MERGE semantics:
// the relationship identity is asserted on relType plus the mergeKeys subset
// of the detail element.
func MergeRelationshipsQuery(data []any, relType string, startKey, endKey *NodeKey, mergeKeys []string, keys []string) (string, map[string]any, error) {
	return relationshipsQuery(data, relType, startKey, endKey, mergeKeys, keys, true)
}

func relationshipsQuery(data []any, relType string, startKey, endKey *NodeKey, mergeKeys []string, keys []string, merge bool) (string, map[string]any, error) {
	if relType == "" {
		return "", nil, invalidSpec("relationship type cannot be empty")
	}
	normalized, err := NormalizeRelRows(data)
	if err != nil {
		return "", nil, err
	}
	if err := validateDetailRows(normalized, keys); err != nil {
		return "", nil, err
	}

	startMatch, err := endpointMatch("a", startKey, 0)
	if err != nil {
		return "", nil, err
	}
	endMatch, err := endpointMatch("b", endKey, 2)
	if err != nil {
		return "", nil, err
	}

	lines := []string{"UNWIND $data AS r", startMatch, endMatch}

	typeClause := cypher.RelTypeString(relType)
	if merge {
		predicate, err := mergePredicateKeys(mergeKeys, keys, elementAccessor{index: 1})
		if err != nil {
			return "", nil, err
		}
		lines = append(lines, "MERGE (a)-[_"+typeClause+predicate+"]->(b)")
	} else {
		lines = append(lines, "CREATE (a)-[_"+typeClause+"]->(b)")
	}
	lines = append(lines, "SET _ += "+detailProjection(keys))

	return strings.Join(lines, "\n"), map[string]any{"data": normalized}, nil
}

// NormalizeRelRows checks that every row is a (start, detail, end) triple and
// unwraps single-element start/end sequences to their sole element. That
// unwrap, and only that case, is a supported convenience; multi-element
// sequences pass through untouched as composite key value lists.
func NormalizeRelRows(data []any) ([]any, error) {
	normalized := make([]any, len(data))
	for i, raw := range data {
		row, ok := raw.([]any)
		if !ok || len(row) != 3 {
			return nil, invalidSpec("relationship row %d is not a (start, detail, end) triple", i)
		}
		start, startChanged := unwrapSingle(row[0])
		end, endChanged := unwrapSingle(row[2])
		if !startChanged && !endChanged {
			normalized[i] = row
			continue
		}
		normalized[i] = []any{start, row[1], end}
	}
	return normalized, nil
}

func unwrapSingle(value any) (any, bool) {
	if seq, ok := value.([]any); ok && len(seq) == 1 {
		return seq[0], true
	}
	return value, false
}

// accessor renders the value expression for a property key, relative to some
// base expression within the row alias r.

type accessor interface {
	value(key string, keys []string) (string, error)
}

// rootAccessor addresses node rows: r['key'] for mappings, r[i] for
// positional rows.
type rootAccessor struct{}

func (rootAccessor) value(key string, keys []string) (string, error) {
	if keys == nil {
		return "r[" + cypher.QuoteString(key) + "]", nil
	}
	i := indexOf(keys, key)
	if i < 0 {
		return "", invalidSpec("merge key %q not present in keys", key)
	}
	return fmt.Sprintf("r[%d]", i), nil
}

// elementAccessor addresses one element of a relationship triple:
// r[1]['key'] for mappings, r[1][i] for positional details.
type elementAccessor struct {
	index int
}

func (a elementAccessor) value(key string, keys []string) (string, error) {
	base := fmt.Sprintf("r[%d]", a.index)
	if keys == nil {
		return base + "[" + cypher.QuoteString(key) + "]", nil
	}
	i := indexOf(keys, key)
	if i < 0 {
		return "", invalidSpec("merge key %q not present in keys", key)
	}
	return fmt.Sprintf("%s[%d]", base, i), nil
}

// mergePredicate renders " {k:expr, ...}" for a node key, or "" when the key
// asserts on the label alone.
func mergePredicate(key NodeKey, keys []string, acc accessor) (string, error) {
	return mergePredicateKeys(key.Keys, keys, acc)
}

func mergePredicateKeys(mergeKeys []string, keys []string, acc accessor) (string, error) {
	if len(mergeKeys) == 0 {
		return "", nil
	}
	pairs := make([]string, len(mergeKeys))
	for i, key := range mergeKeys {
		expr, err := acc.value(key, keys)
		if err != nil {
			return "", err
		}
		// merge-key order is caller-significant, never sorted
		pairs[i] = cypher.EscapeIdentifier(key) + ":" + expr
	}
	return " {" + strings.Join(pairs, ", ") + "}", nil
}

// endpointMatch renders the MATCH clause locating one relationship endpoint.
func endpointMatch(alias string, key *NodeKey, element int) (string, error) {
	if key == nil {
		return fmt.Sprintf("MATCH (%s) WHERE id(%s) = r[%d]", alias, alias, element), nil
	}
	if key.Label == "" {
		return "", invalidSpec("endpoint key for %s requires a label", alias)
	}

	switch len(key.Keys) {
	case 0:
		return "MATCH (" + alias + ":" + cypher.EscapeIdentifier(key.Label) + ")", nil
	case 1:
		pair := cypher.EscapeIdentifier(key.Keys[0]) + ":" + fmt.Sprintf("r[%d]", element)
		return "MATCH (" + alias + ":" + cypher.EscapeIdentifier(key.Label) + " {" + pair + "})", nil
	default:
		// composite key: the endpoint value is a positional list of key values
		pairs := make([]string, len(key.Keys))
		for i, k := range key.Keys {
			pairs[i] = cypher.EscapeIdentifier(k) + ":" + fmt.Sprintf("r[%d][%d]", element, i)
		}
		return "MATCH (" + alias + ":" + cypher.EscapeIdentifier(key.Label) + " {" + strings.Join(pairs, ", ") + "})", nil
	}
}

// projection renders the "always set" value for node rows: the row alias
// verbatim for mappings, or an explicit record literal preserving keys order
// for positional rows, omitting excluded keys.
func projection(keys []string, exclude []string) string {
	if keys == nil {
		return "r"
	}
	var entries []string
	for i, key := range keys {
		if contains(exclude, key) {
			continue
		}
		entries = append(entries, fmt.Sprintf("%s: r[%d]", cypher.EscapeIdentifier(key), i))
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

// detailProjection renders the SET value for the detail element of a
// relationship row.
func detailProjection(keys []string) string {
	if keys == nil {
		return "r[1]"
	}
	entries := make([]string, len(keys))
	for i, key := range keys {
		entries[i] = fmt.Sprintf("%s: r[1][%d]", cypher.EscapeIdentifier(key), i)
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

// onCreateSet renders the clause assigning preserved keys' initial values on
// creation only.
func onCreateSet(keys []string, preserve []string) string {
	var assignments []string
	for i, key := range keys {
		if !contains(preserve, key) {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("_.%s = r[%d]", cypher.EscapeIdentifier(key), i))
	}
	return "ON CREATE SET " + strings.Join(assignments, ", ")
}

// secondaryLabels renders the labels to apply beyond the merge label, sorted.
func secondaryLabels(labels []string, mergeLabel string) string {
	var rest []string
	for _, label := range labels {
		if label != mergeLabel {
			rest = append(rest, label)
		}
	}
	return cypher.LabelString(rest...)
}

// validateRows enforces the keys/rows invariant: keys present exactly when
// rows are sequences. An empty (non-nil) keys slice with positional rows is
// ambiguous and rejected outright.
func validateRows(data []any, keys []string) error {
	if keys != nil && len(keys) == 0 {
		return invalidSpec("keys cannot be empty for positional rows")
	}
	for i, raw := range data {
		switch row := raw.(type) {
		case map[string]any:
			if keys != nil {
				return invalidSpec("row %d is a mapping but keys were supplied", i)
			}
		case []any:
			if keys == nil {
				return invalidSpec("row %d is positional but no keys were supplied", i)
			}
			if len(row) != len(keys) {
				return invalidSpec("row %d has %d values for %d keys", i, len(row), len(keys))
			}
		default:
			return invalidSpec("row %d is neither a mapping nor a sequence: %T", i, raw)
		}
	}
	return nil
}

// validateDetailRows checks the detail element of normalized relationship
// rows against the keys invariant.
func validateDetailRows(data []any, keys []string) error {
	if keys != nil && len(keys) == 0 {
		return invalidSpec("keys cannot be empty for positional details")
	}
	for i, raw := range data {
		row := raw.([]any)
		switch detail := row[1].(type) {
		case map[string]any:
			if keys != nil {
				return invalidSpec("detail %d is a mapping but keys were supplied", i)
			}
		case []any:
			if keys == nil {
				return invalidSpec("detail %d is positional but no keys were supplied", i)
			}
			if len(detail) != len(keys) {
				return invalidSpec("detail %d has %d values for %d keys", i, len(detail), len(keys))
			}
		case nil:
			// relationship without properties
		default:
			return invalidSpec("detail %d is neither a mapping nor a sequence: %T", i, row[1])
		}
	}
	return nil
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

func contains(keys []string, key string) bool {
	return indexOf(keys, key) >= 0
}
