package xmlnode

import (
	"fmt"
	"maps"
	"slices"

	"golang.org/x/text/cases"

	"github.com/wehubfusion/xmlstruct/pkg/catalog"
	"github.com/wehubfusion/xmlstruct/pkg/coerce"
)

// Processor answers name lookups on element trees, arrays and plain maps
// and coerces what it finds into primitive kinds. It keeps no per-call state.
type Processor struct {
	foldCase bool
}

// Option configures a Processor
type Option func(*Processor)

// CaseInsensitive makes name matching ignore case, using Unicode case folding
func CaseInsensitive() Option {
	return func(p *Processor) { p.foldCase = true }
}

// NewProcessor creates an XML processor
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsArray reports whether v is the processor's own Array type
func (p *Processor) IsArray(v any) bool {
	_, ok := v.(Array)
	return ok
}

func (p *Processor) matches(a, b string) bool {
	if a == b {
		return true
	}
	if !p.foldCase {
		return false
	}
	// Casers carry state, so each comparison gets its own
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

// ObjectValue looks name up in raw
func (p *Processor) ObjectValue(raw any, name string) (any, bool) {
	switch v := raw.(type) {
	case *Element:
		return p.elementValue(v, name)
	case Array:
		return p.arrayValue(v, name)
	case map[string]any:
		return lookupKey(p, v, name)
	}
	return nil, false
}

// lookupKey prefers the exact key. Folded matches are tried in key order so a
// map with several case variants always resolves the same way.
func lookupKey[V any](p *Processor, m map[string]V, name string) (V, bool) {
	if val, ok := m[name]; ok {
		return val, true
	}
	if p.foldCase {
		for _, k := range slices.Sorted(maps.Keys(m)) {
			if p.matches(k, name) {
				return m[k], true
			}
		}
	}
	var zero V
	return zero, false
}

func (p *Processor) elementValue(el *Element, name string) (any, bool) {
	if el == nil {
		return nil, false
	}
	if val, ok := lookupKey(p, el.Attrs, name); ok {
		return val, true
	}

	var found Array
	for _, child := range el.Children {
		if p.matches(child.Name, name) {
			found = append(found, unwrapLeaf(child))
		}
	}
	switch len(found) {
	case 0:
		return nil, false
	case 1:
		return found[0], true
	}
	return found, true
}

func (p *Processor) arrayValue(arr Array, name string) (any, bool) {
	var out Array
	for _, member := range arr {
		v, ok := p.ObjectValue(member, name)
		if !ok {
			continue
		}
		if nested, isArr := v.(Array); isArr {
			out = append(out, nested...)
		} else {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// unwrapLeaf returns the text of leaf elements and the element otherwise
func unwrapLeaf(el *Element) any {
	if el.IsLeaf() {
		return el.Text
	}
	return el
}

// PrimitiveValue coerces a lookup result into kind. Elements contribute their
// text; an Array holding a single value is unwrapped.
func (p *Processor) PrimitiveValue(raw any, kind catalog.PrimitiveKind) (any, error) {
	switch v := raw.(type) {
	case *Element:
		if v == nil {
			return nil, nil
		}
		return coerce.Value(v.Text, kind)
	case Array:
		switch len(v) {
		case 0:
			return nil, nil
		case 1:
			return p.PrimitiveValue(v[0], kind)
		}
		return nil, &coerce.Error{Kind: kind, Value: raw, Err: fmt.Errorf("%d values found for a single %s field", len(v), kind)}
	}
	return coerce.Value(raw, kind)
}
