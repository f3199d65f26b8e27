// Package entity models references to remote graph entities. A reference is
// one of four concrete cases: an existing entity named by its numeric identity,
// a forward pointer to the result of an earlier job in the same batch, an
// entity already bound to a resource path on the server, or an inline value.
// Keeping the cases explicit lets target resolution switch exhaustively instead
// of inspecting structure at call sites.
package entity

import "fmt"

// Ref is a reference to a graph entity. The four implementations are Concrete,
// Pointer, Bound and Inline; no other type satisfies the interface.
type Ref interface {
	// Target renders the wire-level base target for this reference.
	Target() string

	isRef()
}

// Concrete names an existing remote entity by numeric identity. Inside a batch
// payload it renders as the placeholder form "{<id>}".
type Concrete struct {
	ID uint64
}

// Pointer refers to the result of the job at BatchIndex within the same batch.
// A Pointer must never escape the batch that produced it: once a batch is
// serialized the index is meaningless anywhere else.
type Pointer struct {
	BatchIndex int
}

// Bound is an entity already persisted on the server, addressed by its
// relative resource path (e.g. "node/42").
type Bound struct {
	Path string
}

// Inline wraps a plain value used where an entity is expected; it renders as
// the value's textual form.
type Inline struct {
	Value any
}

func (Concrete) isRef() {}
func (Pointer) isRef()  {}
func (Bound) isRef()    {}
func (Inline) isRef()   {}

// Target renders "{<id>}", the batch back-reference placeholder.
func (c Concrete) Target() string {
	return fmt.Sprintf("{%d}", c.ID)
}

// Target renders "{<index>}"; the server substitutes the job's result.
func (p Pointer) Target() string {
	return fmt.Sprintf("{%d}", p.BatchIndex)
}

// Target returns the entity's relative resource path.
func (b Bound) Target() string {
	return b.Path
}

// Target returns the value's textual representation.
func (i Inline) Target() string {
	return fmt.Sprint(i.Value)
}
