// Package normalize rewrites field names through an ordered table of
// substring substitutions. Hosts whose column naming rules cannot carry some
// characters (dots, dashes) declare a table mapping those characters to the
// spelling used by the data, and the resolver retries a missed lookup with
// the rewritten name.
package normalize

import (
	"fmt"
	"strings"
)

// Rule replaces every occurrence of Source with Replacement
type Rule struct {
	Source      string
	Replacement string
}

// Table is an ordered, immutable list of substitution rules
type Table struct {
	rules []Rule
}

// NewTable builds a table from rules in application order
func NewTable(rules ...Rule) (*Table, error) {
	t := &Table{rules: make([]Rule, 0, len(rules))}
	for i, r := range rules {
		if r.Source == "" {
			return nil, fmt.Errorf("substitution rule %d has an empty source", i)
		}
		t.rules = append(t.rules, r)
	}
	return t, nil
}

// ParseTable parses the property form "src=dst,src=dst". Rules keep the order
// they are written in. Whitespace around each entry is ignored. An empty
// string yields an empty table.
func ParseTable(property string) (*Table, error) {
	property = strings.TrimSpace(property)
	if property == "" {
		return &Table{}, nil
	}

	var rules []Rule
	for _, entry := range strings.Split(property, ",") {
		entry = strings.TrimSpace(entry)
		src, dst, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("substitution entry %q is not of the form src=dst", entry)
		}
		rules = append(rules, Rule{Source: src, Replacement: dst})
	}
	return NewTable(rules...)
}

// Empty reports whether the table has no rules. A nil table is empty.
func (t *Table) Empty() bool {
	return t == nil || len(t.rules) == 0
}

// Len returns the number of rules
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Rules returns a copy of the rules in application order
func (t *Table) Rules() []Rule {
	if t == nil {
		return nil
	}
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Normalize applies every rule in order, each pass working on the output of
// the previous one
func (t *Table) Normalize(name string) string {
	if t == nil {
		return name
	}
	for _, r := range t.rules {
		name = strings.ReplaceAll(name, r.Source, r.Replacement)
	}
	return name
}

// String renders the table in property form
func (t *Table) String() string {
	if t == nil {
		return ""
	}
	parts := make([]string, len(t.rules))
	for i, r := range t.rules {
		parts[i] = r.Source + "=" + r.Replacement
	}
	return strings.Join(parts, ",")
}
