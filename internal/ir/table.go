package ir

import (
	"fmt"
	"slices"
)

// Row is an ordered sequence of values aligned to a schema's positions.
// Rows never contain ColumnRef values.
type Row []Value

// Table is a schema plus its rows.
//
// INVARIANT: every row has exactly Schema.Len() values.
type Table struct {
	Schema *Schema
	Rows   []Row
}

// NewTable creates a table, checking every row against the schema arity.
func NewTable(schema *Schema, rows []Row) (*Table, error) {
	for i, row := range rows {
		if len(row) != schema.Len() {
			return nil, fmt.Errorf("row %d has %d values, schema has %d columns", i, len(row), schema.Len())
		}
	}
	return &Table{Schema: schema, Rows: rows}, nil
}

// Swap exchanges two row positions.
type Swap struct {
	I, J int
}

// Reconcile computes the swaps that bring the target columns, in target
// order, into positions 0..len(target)-1 of the source schema.
//
// Positions already holding their target column are left alone. Every other
// target column is swapped into its slot exactly once, so at most
// len(target) swaps are emitted. Applying the swaps to a row and truncating
// it to len(target) yields the projected row in one linear pass.
//
// Returns a SchemaError if a target column is missing or repeated.
func Reconcile(source *Schema, target []string) ([]Swap, error) {
	order := slices.Clone(source.names)
	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}

	seen := make(map[string]struct{}, len(target))
	for _, name := range target {
		if _, ok := pos[name]; !ok {
			return nil, NewSchemaError(name, "column %q not found", name)
		}
		if _, dup := seen[name]; dup {
			return nil, NewSchemaError(name, "column %q listed twice", name)
		}
		seen[name] = struct{}{}
	}

	var swaps []Swap
	for slot, name := range target {
		cur := pos[name]
		if cur == slot {
			continue
		}
		// Slots below this one hold placed targets, so cur > slot.
		displaced := order[slot]
		order[slot], order[cur] = name, displaced
		pos[name], pos[displaced] = slot, cur
		swaps = append(swaps, Swap{I: cur, J: slot})
	}
	return swaps, nil
}

// ApplySwaps permutes a row in place.
func ApplySwaps(row Row, swaps []Swap) {
	for _, s := range swaps {
		row[s.I], row[s.J] = row[s.J], row[s.I]
	}
}

// Project restricts the table to cols, in that order. The new schema maps
// cols[i] to i. Rows are permuted in place and truncated.
func (t *Table) Project(cols []string) (*Table, error) {
	swaps, err := Reconcile(t.Schema, cols)
	if err != nil {
		return nil, err
	}
	schema, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	k := len(cols)
	for i, row := range t.Rows {
		ApplySwaps(row, swaps)
		t.Rows[i] = row[:k:k]
	}
	return &Table{Schema: schema, Rows: t.Rows}, nil
}

// Rename renames columns pairwise, in order. Rows are untouched.
func (t *Table) Rename(oldNames, newNames []string) error {
	if len(oldNames) != len(newNames) {
		return fmt.Errorf("rename has %d old names and %d new names", len(oldNames), len(newNames))
	}
	for i := range oldNames {
		if err := t.Schema.Rename(oldNames[i], newNames[i]); err != nil {
			return err
		}
	}
	return nil
}

// Align permutes the rows of t so they follow the positions of target.
// Both schemas must name the same set of columns; anything else is a
// SchemaError. The result uses target's schema.
func (t *Table) Align(target *Schema) (*Table, error) {
	if !t.Schema.SameColumns(target) {
		return nil, NewSchemaError("", "schemas %v and %v name different columns", t.Schema.names, target.names)
	}
	swaps, err := Reconcile(t.Schema, target.names)
	if err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		ApplySwaps(row, swaps)
	}
	return &Table{Schema: target, Rows: t.Rows}, nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	rows := make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = slices.Clone(row)
	}
	return &Table{Schema: t.Schema.Clone(), Rows: rows}
}
