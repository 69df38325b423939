// Package resolver resolves the declared fields of a catalog against a parsed
// data node and coerces primitive values to their declared kinds.
//
// Ordered nodes are read by field position. Keyed nodes are queried by field
// name through an Accessor; when the exact name misses and a substitution
// table is configured, the name is rewritten once and the lookup retried.
// A field that cannot be found resolves to the accessor's "no value" result
// and never fails the record.
package resolver

import (
	"errors"

	"github.com/wehubfusion/xmlstruct/pkg/catalog"
	"github.com/wehubfusion/xmlstruct/pkg/logging"
	"github.com/wehubfusion/xmlstruct/pkg/node"
	"github.com/wehubfusion/xmlstruct/pkg/normalize"
)

// Accessor is the data-node collaborator the resolver looks values up with.
// Implementations must be safe for concurrent use.
type Accessor interface {
	// ObjectValue returns the raw value stored under name in a keyed node
	ObjectValue(raw any, name string) (value any, found bool)

	// PrimitiveValue converts a raw lookup result, nil when nothing was
	// found, into the representation of kind
	PrimitiveValue(raw any, kind catalog.PrimitiveKind) (any, error)
}

// FieldResolver is what record-processing hosts depend on
type FieldResolver interface {
	ResolveField(n node.Node, d catalog.FieldDescriptor) (any, error)
	MaterializeRecord(n node.Node) ([]any, error)
}

// Resolver composes a catalog, a substitution table and an accessor. It holds
// no per-record state and may be shared across goroutines.
type Resolver struct {
	catalog  *catalog.Catalog
	table    *normalize.Table
	accessor Accessor
	logger   logging.Logger
}

var _ FieldResolver = (*Resolver)(nil)

// Option configures a Resolver
type Option func(*Resolver)

// WithTable sets the substitution table used for the fallback lookup
func WithTable(t *normalize.Table) Option {
	return func(r *Resolver) { r.table = t }
}

// WithLogger sets the diagnostics sink
func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a resolver bound to a catalog
func New(c *catalog.Catalog, a Accessor, opts ...Option) (*Resolver, error) {
	if c == nil {
		return nil, errors.New("resolver requires a catalog")
	}
	if a == nil {
		return nil, errors.New("resolver requires an accessor")
	}

	r := &Resolver{
		catalog:  c,
		accessor: a,
		logger:   &logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Catalog returns the bound catalog
func (r *Resolver) Catalog() *catalog.Catalog { return r.catalog }

// Table returns the substitution table, possibly nil
func (r *Resolver) Table() *normalize.Table { return r.table }

// WithLogger returns a copy of the resolver that reports to l. The catalog,
// table and accessor are shared with the original.
func (r *Resolver) WithLogger(l logging.Logger) *Resolver {
	cp := *r
	if l == nil {
		l = &logging.NoOpLogger{}
	}
	cp.logger = l
	return &cp
}

// Classify wraps a raw parsed value as a node, using the accessor to
// recognise its own array representation when it can
func (r *Resolver) Classify(raw any) node.Node {
	marker, _ := r.accessor.(node.ArrayMarker)
	return node.Classify(raw, marker)
}

// ResolveField returns the value of one field of n
func (r *Resolver) ResolveField(n node.Node, d catalog.FieldDescriptor) (any, error) {
	if n.Shape() == node.Ordered {
		v, ok := n.At(d.Position())
		if !ok {
			r.logger.Error("field position out of range",
				logging.Field{Key: "field", Value: d.Name()},
				logging.Field{Key: "position", Value: d.Position()},
				logging.Field{Key: "node_length", Value: n.Len()})
			return nil, mismatchError(d.Name(), "position %d out of range for ordered node of length %d", d.Position(), n.Len())
		}
		return v, nil
	}

	raw := r.lookup(n.Raw(), d.Name())

	if d.Category() == catalog.Composite {
		return raw, nil
	}

	v, err := r.accessor.PrimitiveValue(raw, d.PrimitiveKind())
	if err != nil {
		r.logger.Warn("field coercion failed",
			logging.Field{Key: "field", Value: d.Name()},
			logging.Field{Key: "kind", Value: string(d.PrimitiveKind())},
			logging.Field{Key: "error", Value: err})
		return nil, coercionError(d.Name(), err)
	}
	return v, nil
}

// lookup performs the exact-name lookup and, at most once, the normalized retry
func (r *Resolver) lookup(raw any, name string) any {
	if v, ok := r.accessor.ObjectValue(raw, name); ok {
		return v
	}

	if r.table.Empty() {
		r.logger.Debug("field not found", logging.Field{Key: "field", Value: name})
		return nil
	}

	alt := r.table.Normalize(name)
	v, ok := r.accessor.ObjectValue(raw, alt)
	if !ok {
		r.logger.Debug("field not found after normalization",
			logging.Field{Key: "field", Value: name},
			logging.Field{Key: "normalized", Value: alt})
		return nil
	}

	r.logger.Debug("field resolved by normalized name",
		logging.Field{Key: "field", Value: name},
		logging.Field{Key: "normalized", Value: alt})
	return v
}

// MaterializeRecord resolves every catalog field against n, in catalog order.
// Either every field resolves or the record fails as a whole.
func (r *Resolver) MaterializeRecord(n node.Node) ([]any, error) {
	if n.Shape() == node.Ordered && n.Len() != r.catalog.Len() {
		r.logger.Error("ordered node does not match catalog",
			logging.Field{Key: "node_length", Value: n.Len()},
			logging.Field{Key: "catalog_length", Value: r.catalog.Len()})
		return nil, mismatchError("", "ordered node has %d values, catalog declares %d fields", n.Len(), r.catalog.Len())
	}

	values := make([]any, r.catalog.Len())
	for i := range values {
		v, err := r.ResolveField(n, r.catalog.Field(i))
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
