// Package cypher provides helpers for building Cypher query text: identifier
// escaping, label and relationship-type rendering, and statement sanitation.
// Statement builders elsewhere in the client rely on these helpers producing
// byte-identical output for identical input, so everything here is deterministic.
package cypher

import (
	"regexp"
	"sort"
	"strings"
)

// safeIdentifier matches identifiers that can appear unquoted in Cypher.
var safeIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EscapeIdentifier renders an identifier (label, relationship type, property
// key) for inclusion in query text. Plain identifiers pass through unchanged;
// anything else is backtick-quoted with embedded backticks doubled.
func EscapeIdentifier(name string) string {
	if safeIdentifier.MatchString(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteString renders a string as a single-quoted Cypher string literal.
func QuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// LabelString renders a set of labels as a Cypher label expression, e.g.
// ":Employee:Person". Labels are sorted so that output is independent of the
// caller's iteration order, and each label is escaped individually. An empty
// set renders as the empty string.
func LabelString(labels ...string) string {
	if len(labels) == 0 {
		return ""
	}
	sorted := make([]string, len(labels))
	copy(sorted, labels)
	sort.Strings(sorted)

	var b strings.Builder
	for _, label := range sorted {
		b.WriteByte(':')
		b.WriteString(EscapeIdentifier(label))
	}
	return b.String()
}

// RelTypeString renders a relationship type as ":TYPE" with escaping.
func RelTypeString(relType string) string {
	return ":" + EscapeIdentifier(relType)
}
