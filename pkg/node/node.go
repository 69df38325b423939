// Package node defines the two shapes a parsed record can take before its
// fields are resolved.
package node

// Shape tells how a node's fields are addressed
type Shape int

const (
	// Keyed nodes are queried by field name through an accessor
	Keyed Shape = iota
	// Ordered nodes already hold one value per catalog field, by position
	Ordered
)

// String returns the shape name
func (s Shape) String() string {
	if s == Ordered {
		return "ordered"
	}
	return "keyed"
}

// Node is a tagged union over ordered and name-keyed data
type Node struct {
	shape  Shape
	values []any
	raw    any
}

// NewOrdered wraps values that are already positioned in catalog order
func NewOrdered(values ...any) Node {
	return Node{shape: Ordered, values: values}
}

// NewKeyed wraps an opaque value that is queried by name
func NewKeyed(raw any) Node {
	return Node{shape: Keyed, raw: raw}
}

// ArrayMarker recognises an accessor's own array representation. Such arrays
// look like sequences but are addressed by name.
type ArrayMarker interface {
	IsArray(v any) bool
}

// Classify builds a node from a raw parsed value. A []any is ordered unless
// the marker claims it; everything else is keyed.
func Classify(raw any, marker ArrayMarker) Node {
	if values, ok := raw.([]any); ok && (marker == nil || !marker.IsArray(raw)) {
		return NewOrdered(values...)
	}
	return NewKeyed(raw)
}

// Shape returns the node shape
func (n Node) Shape() Shape { return n.shape }

// Len returns the number of positioned values of an ordered node, or -1 for
// a keyed node
func (n Node) Len() int {
	if n.shape != Ordered {
		return -1
	}
	return len(n.values)
}

// At returns the positioned value at i. ok is false when the node is keyed or
// i is out of range.
func (n Node) At(i int) (any, bool) {
	if n.shape != Ordered || i < 0 || i >= len(n.values) {
		return nil, false
	}
	return n.values[i], true
}

// Raw returns the wrapped value of a keyed node
func (n Node) Raw() any { return n.raw }
