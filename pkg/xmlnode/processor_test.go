package xmlnode

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/xmlstruct/pkg/catalog"
	"github.com/wehubfusion/xmlstruct/pkg/coerce"
)

const usersXML = `<?xml version="1.0"?>
<users>
  <record id="1">
    <user_name>Ann</user_name>
    <age>31</age>
    <tag>a</tag>
    <tag>b</tag>
    <address kind="home"><city>Oslo</city></address>
  </record>
  <record id="2">
    <user_name>Bob</user_name>
    <empty/>
  </record>
</users>`

func TestDecodeRecords(t *testing.T) {
	records, err := DecodeRecords(strings.NewReader(usersXML), "record")
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "record", first.Name)
	assert.Equal(t, "1", first.Attrs["id"])
	assert.Len(t, first.Children, 5)
	assert.Equal(t, "Ann", first.Children[0].Text)

	_, err = DecodeRecords(strings.NewReader(usersXML), "")
	assert.Error(t, err)

	_, err = DecodeRecords(strings.NewReader("<record><a></record>"), "record")
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	root, err := Decode(strings.NewReader(usersXML))
	require.NoError(t, err)
	assert.Equal(t, "users", root.Name)
	assert.Len(t, root.Children, 2)

	_, err = Decode(strings.NewReader("   "))
	assert.Error(t, err)
}

func TestObjectValue(t *testing.T) {
	records, err := DecodeRecords(strings.NewReader(usersXML), "record")
	require.NoError(t, err)
	p := NewProcessor()
	rec := records[0]

	t.Run("attribute", func(t *testing.T) {
		v, ok := p.ObjectValue(rec, "id")
		require.True(t, ok)
		assert.Equal(t, "1", v)
	})

	t.Run("leaf child yields its text", func(t *testing.T) {
		v, ok := p.ObjectValue(rec, "user_name")
		require.True(t, ok)
		assert.Equal(t, "Ann", v)
	})

	t.Run("repeated children yield an array", func(t *testing.T) {
		v, ok := p.ObjectValue(rec, "tag")
		require.True(t, ok)
		assert.Equal(t, Array{"a", "b"}, v)
		assert.True(t, p.IsArray(v))
	})

	t.Run("structured child yields the element", func(t *testing.T) {
		v, ok := p.ObjectValue(rec, "address")
		require.True(t, ok)
		el, isEl := v.(*Element)
		require.True(t, isEl)

		city, ok := p.ObjectValue(el, "city")
		require.True(t, ok)
		assert.Equal(t, "Oslo", city)
	})

	t.Run("missing name", func(t *testing.T) {
		_, ok := p.ObjectValue(rec, "user.name")
		assert.False(t, ok)
	})

	t.Run("names are case sensitive by default", func(t *testing.T) {
		_, ok := p.ObjectValue(rec, "USER_NAME")
		assert.False(t, ok)
	})

	t.Run("case insensitive option", func(t *testing.T) {
		v, ok := NewProcessor(CaseInsensitive()).ObjectValue(rec, "USER_NAME")
		require.True(t, ok)
		assert.Equal(t, "Ann", v)
	})

	t.Run("case insensitive matching prefers the exact name and is stable", func(t *testing.T) {
		ci := NewProcessor(CaseInsensitive())
		el := &Element{Name: "record", Attrs: map[string]string{"ID": "upper", "id": "lower"}}
		m := map[string]any{"NAME": "upper", "Name": "mixed"}

		for range 50 {
			v, ok := ci.ObjectValue(el, "id")
			require.True(t, ok)
			assert.Equal(t, "lower", v)

			v, ok = ci.ObjectValue(el, "Id")
			require.True(t, ok)
			assert.Equal(t, "upper", v)

			v, ok = ci.ObjectValue(m, "name")
			require.True(t, ok)
			assert.Equal(t, "upper", v)
		}
	})

	t.Run("array lookup spans members", func(t *testing.T) {
		v, ok := p.ObjectValue(Array{records[0], records[1]}, "user_name")
		require.True(t, ok)
		assert.Equal(t, Array{"Ann", "Bob"}, v)

		_, ok = p.ObjectValue(Array{records[0], records[1]}, "nope")
		assert.False(t, ok)
	})

	t.Run("plain maps", func(t *testing.T) {
		v, ok := p.ObjectValue(map[string]any{"user_id": "42"}, "user_id")
		require.True(t, ok)
		assert.Equal(t, "42", v)
	})

	t.Run("unsupported values are never found", func(t *testing.T) {
		_, ok := p.ObjectValue("text", "x")
		assert.False(t, ok)
		_, ok = p.ObjectValue((*Element)(nil), "x")
		assert.False(t, ok)
	})
}

func TestPrimitiveValue(t *testing.T) {
	records, err := DecodeRecords(strings.NewReader(usersXML), "record")
	require.NoError(t, err)
	p := NewProcessor()

	t.Run("leaf text coerces", func(t *testing.T) {
		raw, _ := p.ObjectValue(records[0], "age")
		v, err := p.PrimitiveValue(raw, catalog.KindInt)
		require.NoError(t, err)
		assert.Equal(t, int32(31), v)
	})

	t.Run("empty element is no value for numbers", func(t *testing.T) {
		raw, ok := p.ObjectValue(records[1], "empty")
		require.True(t, ok)
		v, err := p.PrimitiveValue(raw, catalog.KindInt)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("not found is no value", func(t *testing.T) {
		v, err := p.PrimitiveValue(nil, catalog.KindString)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("element text", func(t *testing.T) {
		v, err := p.PrimitiveValue(&Element{Name: "x", Text: "true", Attrs: map[string]string{"a": "b"}}, catalog.KindBoolean)
		require.NoError(t, err)
		assert.Equal(t, true, v)
	})

	t.Run("single member array unwraps", func(t *testing.T) {
		v, err := p.PrimitiveValue(Array{"7"}, catalog.KindLong)
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)
	})

	t.Run("multi member array cannot be a primitive", func(t *testing.T) {
		_, err := p.PrimitiveValue(Array{"a", "b"}, catalog.KindString)
		require.Error(t, err)
		assert.True(t, errors.Is(err, coerce.ErrCoercion))
	})
}
