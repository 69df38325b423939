package catalog

import (
	"fmt"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a catalog definition document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a definition format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported catalog file extension %q", filepath.Ext(path))
}

// Definition is the document form of a catalog
type Definition struct {
	Name   string            `json:"name,omitempty" yaml:"name,omitempty"`
	Fields []FieldDefinition `json:"fields" yaml:"fields"`
}

// FieldDefinition declares one field and its type string
type FieldDefinition struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Parser builds catalogs from definition documents and type strings
type Parser struct{}

// NewParser creates a new catalog parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a definition document and builds its catalog
func (p *Parser) Parse(data []byte, format Format) (*Catalog, error) {
	if len(data) == 0 {
		return nil, ParseError(fmt.Errorf("catalog definition cannot be empty"))
	}

	var def Definition
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, ParseError(err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, ParseError(err)
		}
	default:
		return nil, ParseError(fmt.Errorf("unknown definition format %q", format))
	}

	return p.FromDefinition(def)
}

// FromDefinition builds a catalog from an already decoded definition
func (p *Parser) FromDefinition(def Definition) (*Catalog, error) {
	members := make([]TypedName, 0, len(def.Fields))
	for _, f := range def.Fields {
		t, err := p.ParseType(f.Type)
		if err != nil {
			return nil, NewCatalogError(fmt.Sprintf("field '%s' has invalid type", f.Name), CodeUnknownType, err)
		}
		members = append(members, TypedName{Name: f.Name, Type: t})
	}
	return New(members)
}

// ParseStruct builds a catalog from a struct type string such as
// struct<id:int,name:string>
func (p *Parser) ParseStruct(typeString string) (*Catalog, error) {
	t, err := p.ParseType(typeString)
	if err != nil {
		return nil, ParseError(err)
	}
	if t.Composite != CompositeStruct {
		return nil, ParseError(fmt.Errorf("top level type must be a struct, got %s", t))
	}
	return New(t.Fields)
}

// ParseType parses a single type string
func (p *Parser) ParseType(typeString string) (*Type, error) {
	s := &typeScanner{src: typeString}
	t, err := s.parseType()
	if err != nil {
		return nil, err
	}
	s.skipSpace()
	if s.pos != len(s.src) {
		return nil, fmt.Errorf("unexpected %q at offset %d in %q", s.src[s.pos:], s.pos, typeString)
	}
	return t, nil
}

// typeScanner is a recursive descent reader over a type string
type typeScanner struct {
	src string
	pos int
}

func (s *typeScanner) skipSpace() {
	for s.pos < len(s.src) && s.src[s.pos] == ' ' {
		s.pos++
	}
}

func (s *typeScanner) expect(c byte) error {
	s.skipSpace()
	if s.pos >= len(s.src) || s.src[s.pos] != c {
		return fmt.Errorf("expected %q at offset %d in %q", c, s.pos, s.src)
	}
	s.pos++
	return nil
}

func (s *typeScanner) peek() byte {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

// word reads up to the next delimiter
func (s *typeScanner) word() string {
	s.skipSpace()
	start := s.pos
	for s.pos < len(s.src) && !strings.ContainsRune(":,<>() ", rune(s.src[s.pos])) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *typeScanner) parseType() (*Type, error) {
	name := strings.ToLower(s.word())
	if name == "" {
		return nil, fmt.Errorf("missing type name at offset %d in %q", s.pos, s.src)
	}

	switch name {
	case "struct":
		return s.parseStruct()
	case "array":
		if err := s.expect('<'); err != nil {
			return nil, err
		}
		elem, err := s.parseType()
		if err != nil {
			return nil, err
		}
		if err := s.expect('>'); err != nil {
			return nil, err
		}
		return &Type{Composite: CompositeList, Elem: elem}, nil
	case "map":
		if err := s.expect('<'); err != nil {
			return nil, err
		}
		key, err := s.parseType()
		if err != nil {
			return nil, err
		}
		if key.Category() != Primitive {
			return nil, fmt.Errorf("map key must be primitive, got %s", key)
		}
		if err := s.expect(','); err != nil {
			return nil, err
		}
		val, err := s.parseType()
		if err != nil {
			return nil, err
		}
		if err := s.expect('>'); err != nil {
			return nil, err
		}
		return &Type{Composite: CompositeMap, Key: key, Elem: val}, nil
	}

	kind, ok := LookupKind(name)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	// decimal(p,s), varchar(n) and char(n) carry parameters the resolver does not use
	if s.peek() == '(' {
		end := strings.IndexByte(s.src[s.pos:], ')')
		if end < 0 {
			return nil, fmt.Errorf("unterminated type parameters in %q", s.src)
		}
		s.pos += end + 1
	}
	return &Type{Primitive: kind}, nil
}

func (s *typeScanner) parseStruct() (*Type, error) {
	if err := s.expect('<'); err != nil {
		return nil, err
	}
	t := &Type{Composite: CompositeStruct}
	for {
		name := s.word()
		if name == "" {
			return nil, fmt.Errorf("missing struct member name at offset %d in %q", s.pos, s.src)
		}
		if err := s.expect(':'); err != nil {
			return nil, err
		}
		member, err := s.parseType()
		if err != nil {
			return nil, err
		}
		t.Fields = append(t.Fields, TypedName{Name: name, Type: member})

		switch s.peek() {
		case ',':
			s.pos++
		case '>':
			s.pos++
			return t, nil
		default:
			return nil, fmt.Errorf("expected ',' or '>' at offset %d in %q", s.pos, s.src)
		}
	}
}

// PrimitiveField is a shorthand for declaring a primitive catalog member
func PrimitiveField(name string, kind PrimitiveKind) TypedName {
	return TypedName{Name: name, Type: &Type{Primitive: kind}}
}

// CompositeField declares a catalog member from a composite type
func CompositeField(name string, t *Type) TypedName {
	return TypedName{Name: name, Type: t}
}
