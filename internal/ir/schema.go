package ir

import "slices"

// Schema maps unique column names to zero-based row positions.
//
// INVARIANT: positions form a contiguous permutation of 0..n-1, so the
// mapping is a bijection between names and positions.
type Schema struct {
	names []string       // position -> name
	index map[string]int // name -> position
}

// NewSchema creates a Schema whose positions follow the order of names.
// Returns a SchemaError if a name appears twice.
func NewSchema(names ...string) (*Schema, error) {
	s := &Schema{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, name := range names {
		if _, dup := s.index[name]; dup {
			return nil, NewSchemaError(name, "duplicate column %q", name)
		}
		s.index[name] = len(s.names)
		s.names = append(s.names, name)
	}
	return s, nil
}

// MustSchema is NewSchema for literal column lists known to be unique.
// Panics on duplicates.
func MustSchema(names ...string) *Schema {
	s, err := NewSchema(names...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.names)
}

// Names returns the column names in position order.
// The returned slice is a copy and may be modified by the caller.
func (s *Schema) Names() []string {
	return slices.Clone(s.names)
}

// Name returns the column name at position i.
func (s *Schema) Name(i int) string {
	return s.names[i]
}

// Position returns the position of a column.
func (s *Schema) Position(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Has reports whether the schema contains a column.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Lookup returns the position of a column, or a SchemaError if it is absent.
func (s *Schema) Lookup(name string) (int, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, NewSchemaError(name, "column %q not found", name)
	}
	return i, nil
}

// Clone returns an independent copy of the schema.
func (s *Schema) Clone() *Schema {
	c := &Schema{
		names: slices.Clone(s.names),
		index: make(map[string]int, len(s.index)),
	}
	for k, v := range s.index {
		c.index[k] = v
	}
	return c
}

// Rename moves the entry of oldName to newName at the same position.
// Rows are untouched. Returns a SchemaError if oldName is absent, or if
// newName already names another column.
func (s *Schema) Rename(oldName, newName string) error {
	pos, ok := s.index[oldName]
	if !ok {
		return NewSchemaError(oldName, "cannot rename missing column %q", oldName)
	}
	if oldName == newName {
		return nil
	}
	if _, taken := s.index[newName]; taken {
		return NewSchemaError(newName, "rename target %q already exists", newName)
	}
	delete(s.index, oldName)
	s.index[newName] = pos
	s.names[pos] = newName
	return nil
}

// SameColumns reports whether two schemas name the same set of columns,
// regardless of position.
func (s *Schema) SameColumns(other *Schema) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, name := range s.names {
		if !other.Has(name) {
			return false
		}
	}
	return true
}

// Concat builds the schema of a product: left columns keep their positions,
// right columns are shifted by the left cardinality.
// Returns a SchemaError if both sides share a column name.
func Concat(left, right *Schema) (*Schema, error) {
	names := make([]string, 0, left.Len()+right.Len())
	names = append(names, left.names...)
	names = append(names, right.names...)
	return NewSchema(names...)
}
