package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type claimAll struct{}

func (claimAll) IsArray(any) bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		marker ArrayMarker
		shape  Shape
	}{
		{name: "slice without marker", raw: []any{1, 2}, shape: Ordered},
		{name: "slice claimed by marker", raw: []any{1, 2}, marker: claimAll{}, shape: Keyed},
		{name: "map", raw: map[string]any{"a": 1}, shape: Keyed},
		{name: "typed slice is opaque", raw: []string{"a"}, shape: Keyed},
		{name: "nil", raw: nil, shape: Keyed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.shape, Classify(tt.raw, tt.marker).Shape())
		})
	}
}

func TestOrderedAccess(t *testing.T) {
	n := NewOrdered(42, "Ann")

	assert.Equal(t, 2, n.Len())
	v, ok := n.At(1)
	assert.True(t, ok)
	assert.Equal(t, "Ann", v)

	_, ok = n.At(2)
	assert.False(t, ok)
	_, ok = n.At(-1)
	assert.False(t, ok)
	assert.Equal(t, "ordered", n.Shape().String())
}

func TestKeyedAccess(t *testing.T) {
	raw := map[string]any{"a": 1}
	n := NewKeyed(raw)

	assert.Equal(t, -1, n.Len())
	_, ok := n.At(0)
	assert.False(t, ok)
	assert.Equal(t, raw, n.Raw())
	assert.Equal(t, "keyed", n.Shape().String())
}
