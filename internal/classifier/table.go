package classifier

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Entry maps a fully-qualified error type name to an outcome identifier.
type Entry struct {
	Type string `mapstructure:"type" yaml:"type" validate:"required"`
	View string `mapstructure:"view" yaml:"view" validate:"required"`
}

// Table is the exception mapping table. It keeps insertion order and is
// immutable once built, so it can be shared across goroutines.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable builds a table from entries. A repeated type replaces the
// earlier view but keeps the position of its first occurrence.
func NewTable(entries ...Entry) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}

	for i, e := range entries {
		if e.Type == "" {
			return nil, fmt.Errorf("exception mapping %d: type is required", i)
		}
		if e.View == "" {
			return nil, fmt.Errorf("exception mapping %q: view is required", e.Type)
		}

		if pos, ok := t.index[e.Type]; ok {
			t.entries[pos].View = e.View
			continue
		}
		t.index[e.Type] = len(t.entries)
		t.entries = append(t.entries, e)
	}

	return t, nil
}

// Lookup returns the view mapped to typeName.
func (t *Table) Lookup(typeName string) (string, bool) {
	if t == nil || typeName == "" {
		return "", false
	}
	pos, ok := t.index[typeName]
	if !ok {
		return "", false
	}
	return t.entries[pos].View, true
}

// Len returns the number of distinct types in the table
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the entries in table order
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// LoadTable reads a YAML document whose top level is a mapping of error
// type names to views:
//
//	github.com/acme/auth.UnauthorizedError: "403"
//	github.com/acme/auth.LockedAccountError: locked
//
// Document order is preserved. Type names contain dots, which is why this
// file is parsed directly instead of through the configuration loader.
func LoadTable(r io.Reader) (*Table, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return NewTable()
		}
		return nil, fmt.Errorf("decode exception mappings: %w", err)
	}

	if len(doc.Content) == 0 {
		return NewTable()
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("exception mappings: expected a mapping at line %d", root.Line)
	}

	entries := make([]Entry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("exception mapping %q: view must be a scalar (line %d)", key.Value, value.Line)
		}
		entries = append(entries, Entry{Type: key.Value, View: value.Value})
	}

	return NewTable(entries...)
}
