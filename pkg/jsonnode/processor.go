// Package jsonnode serves JSON intermediates to the resolver. Objects are
// name-keyed nodes looked up by literal key; top-level arrays are taken as
// already positioned records.
package jsonnode

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/wehubfusion/xmlstruct/pkg/catalog"
	"github.com/wehubfusion/xmlstruct/pkg/coerce"
	"github.com/wehubfusion/xmlstruct/pkg/node"
)

// Processor looks fields up in gjson results
type Processor struct{}

// NewProcessor creates a JSON processor
func NewProcessor() *Processor {
	return &Processor{}
}

// Parse turns one JSON document into a node. Arrays become ordered nodes of
// plain Go values, everything else a keyed node.
func Parse(data []byte) (node.Node, error) {
	if !gjson.ValidBytes(data) {
		return node.Node{}, fmt.Errorf("invalid JSON document")
	}
	res := gjson.ParseBytes(data)
	if res.IsArray() {
		items := res.Array()
		values := make([]any, len(items))
		for i, item := range items {
			values[i] = item.Value()
		}
		return node.NewOrdered(values...), nil
	}
	return node.NewKeyed(res), nil
}

// ObjectValue returns the member named name of a JSON object. Dots in names
// are literal, not path separators.
func (p *Processor) ObjectValue(raw any, name string) (any, bool) {
	res, ok := raw.(gjson.Result)
	if !ok || !res.IsObject() {
		return nil, false
	}

	var (
		found gjson.Result
		hit   bool
	)
	res.ForEach(func(key, value gjson.Result) bool {
		if key.String() == name {
			found, hit = value, true
			return false
		}
		return true
	})
	if !hit {
		return nil, false
	}
	return found, true
}

// PrimitiveValue coerces a gjson result into kind. JSON null is "no value".
func (p *Processor) PrimitiveValue(raw any, kind catalog.PrimitiveKind) (any, error) {
	res, ok := raw.(gjson.Result)
	if !ok {
		return coerce.Value(raw, kind)
	}

	switch res.Type {
	case gjson.Null:
		return nil, nil
	case gjson.String:
		return coerce.Value(res.Str, kind)
	case gjson.True, gjson.False:
		if kind == catalog.KindString {
			return res.Raw, nil
		}
		return coerce.Value(res.Bool(), kind)
	case gjson.Number:
		// the raw literal keeps integer precision beyond float64
		return coerce.Value(res.Raw, kind)
	case gjson.JSON:
		if kind == catalog.KindString {
			return res.Raw, nil
		}
		return nil, &coerce.Error{Kind: kind, Value: res.Raw, Err: fmt.Errorf("structured JSON value")}
	}
	return nil, nil
}
