package catalog

import "strings"

// ValueCategory tells the resolver whether a field needs primitive coercion
type ValueCategory int

const (
	// Primitive fields are coerced through the accessor
	Primitive ValueCategory = iota
	// Composite fields (struct, list, map) are returned raw
	Composite
)

// String returns the category name
func (c ValueCategory) String() string {
	switch c {
	case Primitive:
		return "primitive"
	case Composite:
		return "composite"
	default:
		return "unknown"
	}
}

// PrimitiveKind is the declared primitive type of a field
type PrimitiveKind string

// Supported primitive kinds
const (
	KindBoolean   PrimitiveKind = "boolean"
	KindByte      PrimitiveKind = "tinyint"
	KindShort     PrimitiveKind = "smallint"
	KindInt       PrimitiveKind = "int"
	KindLong      PrimitiveKind = "bigint"
	KindFloat     PrimitiveKind = "float"
	KindDouble    PrimitiveKind = "double"
	KindString    PrimitiveKind = "string"
	KindDate      PrimitiveKind = "date"
	KindTimestamp PrimitiveKind = "timestamp"
	KindBinary    PrimitiveKind = "binary"
	KindDecimal   PrimitiveKind = "decimal"
)

// kindAliases maps accepted spellings to their canonical kind
var kindAliases = map[string]PrimitiveKind{
	"boolean":   KindBoolean,
	"bool":      KindBoolean,
	"tinyint":   KindByte,
	"byte":      KindByte,
	"smallint":  KindShort,
	"short":     KindShort,
	"int":       KindInt,
	"integer":   KindInt,
	"bigint":    KindLong,
	"long":      KindLong,
	"float":     KindFloat,
	"double":    KindDouble,
	"string":    KindString,
	"varchar":   KindString,
	"char":      KindString,
	"date":      KindDate,
	"timestamp": KindTimestamp,
	"datetime":  KindTimestamp,
	"binary":    KindBinary,
	"decimal":   KindDecimal,
}

// LookupKind returns the canonical primitive kind for a type name
func LookupKind(name string) (PrimitiveKind, bool) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(name))]
	return kind, ok
}

// CompositeKind distinguishes the composite shapes a field can declare
type CompositeKind string

const (
	CompositeStruct CompositeKind = "struct"
	CompositeList   CompositeKind = "array"
	CompositeMap    CompositeKind = "map"
)

// Type is a parsed field type. Exactly one of Primitive or Composite is set.
type Type struct {
	Primitive PrimitiveKind
	Composite CompositeKind

	// Fields holds struct members in declaration order
	Fields []TypedName
	// Elem is the list element type, or the map value type
	Elem *Type
	// Key is the map key type
	Key *Type
}

// TypedName is a named struct member
type TypedName struct {
	Name string
	Type *Type
}

// Category returns the value category of the type
func (t *Type) Category() ValueCategory {
	if t.Composite != "" {
		return Composite
	}
	return Primitive
}

// String renders the type in struct type-string form
func (t *Type) String() string {
	if t == nil {
		return ""
	}
	switch t.Composite {
	case CompositeStruct:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.Name + ":" + f.Type.String()
		}
		return "struct<" + strings.Join(parts, ",") + ">"
	case CompositeList:
		return "array<" + t.Elem.String() + ">"
	case CompositeMap:
		return "map<" + t.Key.String() + "," + t.Elem.String() + ">"
	}
	return string(t.Primitive)
}

// FieldDescriptor describes one field of a catalog. Descriptors are immutable
// once the catalog is built.
type FieldDescriptor struct {
	name     string
	position int
	typ      *Type
}

// Name returns the declared field name
func (d FieldDescriptor) Name() string { return d.name }

// Position returns the zero-based index of the field within its catalog
func (d FieldDescriptor) Position() int { return d.position }

// Category returns whether the field is primitive or composite. A zero
// descriptor reports Primitive.
func (d FieldDescriptor) Category() ValueCategory {
	if d.typ == nil {
		return Primitive
	}
	return d.typ.Category()
}

// PrimitiveKind returns the declared kind. Only meaningful for primitive
// fields; a zero descriptor has no kind.
func (d FieldDescriptor) PrimitiveKind() PrimitiveKind {
	if d.typ == nil {
		return ""
	}
	return d.typ.Primitive
}

// Type returns the full declared type
func (d FieldDescriptor) Type() *Type { return d.typ }

// Catalog is an ordered, read-only list of field descriptors
type Catalog struct {
	fields []FieldDescriptor
	byName map[string]int
}

// New builds a catalog, assigning positions in declaration order
func New(fields []TypedName) (*Catalog, error) {
	if len(fields) == 0 {
		return nil, NewCatalogError("catalog must declare at least one field", CodeEmptyCatalog, nil)
	}

	c := &Catalog{
		fields: make([]FieldDescriptor, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, NewCatalogError("field name cannot be empty", CodeInvalidField, nil)
		}
		if f.Type == nil {
			return nil, NewCatalogError("field '"+f.Name+"' has no type", CodeInvalidField, nil)
		}
		if _, dup := c.byName[f.Name]; dup {
			return nil, NewCatalogError("duplicate field '"+f.Name+"'", CodeDuplicateField, nil)
		}
		c.byName[f.Name] = i
		c.fields[i] = FieldDescriptor{name: f.Name, position: i, typ: f.Type}
	}
	return c, nil
}

// Len returns the number of fields
func (c *Catalog) Len() int { return len(c.fields) }

// Field returns the descriptor at position i
func (c *Catalog) Field(i int) FieldDescriptor { return c.fields[i] }

// Fields returns a copy of the descriptors in catalog order
func (c *Catalog) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(c.fields))
	copy(out, c.fields)
	return out
}

// Lookup finds a descriptor by its exact declared name
func (c *Catalog) Lookup(name string) (FieldDescriptor, bool) {
	i, ok := c.byName[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return c.fields[i], true
}

// Names returns the field names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.name
	}
	return names
}

// Nested returns the catalog of a struct-typed field at position i
func (c *Catalog) Nested(i int) (*Catalog, error) {
	if i < 0 || i >= len(c.fields) {
		return nil, NewCatalogError("field position out of range", CodeInvalidField, nil)
	}
	t := c.fields[i].typ
	if t.Composite != CompositeStruct {
		return nil, NewCatalogError("field '"+c.fields[i].name+"' is not a struct", CodeInvalidField, nil)
	}
	return New(t.Fields)
}

// String renders the catalog as a struct type string
func (c *Catalog) String() string {
	members := make([]TypedName, len(c.fields))
	for i, f := range c.fields {
		members[i] = TypedName{Name: f.name, Type: f.typ}
	}
	return (&Type{Composite: CompositeStruct, Fields: members}).String()
}
