// Package xmlnode is the reference XML data-node accessor. It decodes XML into
// lightweight element trees and answers name lookups against them the way the
// resolver expects: attributes first, then child elements, with repeated
// children collected into an Array.
package xmlnode

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Element is one decoded XML element
type Element struct {
	Name     string
	Attrs    map[string]string
	Children []*Element
	Text     string
}

// IsLeaf reports whether the element has no child elements and no attributes
func (e *Element) IsLeaf() bool {
	return len(e.Children) == 0 && len(e.Attrs) == 0
}

// Array is the accessor's own sequence type. Although it is a slice, it is a
// name-keyed node: a lookup applies to every member.
type Array []any

// Decode reads the first element of r and returns its tree
func Decode(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("no root element found")
			}
			return nil, fmt.Errorf("failed to read xml: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return decodeElement(dec, start)
		}
	}
}

// DecodeRecords returns every element named tag, at any depth, as a separate
// record. Records are not searched for nested records.
func DecodeRecords(r io.Reader, tag string) ([]*Element, error) {
	if tag == "" {
		return nil, fmt.Errorf("record tag cannot be empty")
	}

	dec := xml.NewDecoder(r)
	var records []*Element
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, fmt.Errorf("failed to read xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != tag {
			continue
		}
		el, err := decodeElement(dec, start)
		if err != nil {
			return nil, err
		}
		records = append(records, el)
	}
}

func decodeElement(dec *xml.Decoder, start xml.StartElement) (*Element, error) {
	el := &Element{Name: start.Name.Local}
	if len(start.Attr) > 0 {
		el.Attrs = make(map[string]string, len(start.Attr))
		for _, a := range start.Attr {
			el.Attrs[a.Name.Local] = a.Value
		}
	}

	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read element %q: %w", el.Name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			el.Children = append(el.Children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			el.Text = strings.TrimSpace(text.String())
			return el, nil
		}
	}
}
