package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func employees() *Table {
	return &Table{
		Schema: MustSchema("Id", "Name", "Dept"),
		Rows: []Row{
			{Int(5), Text("Ann"), Text("X")},
			{Int(12), Text("Bo"), Text("Y")},
			{Int(23), Text("Cy"), Text("X")},
		},
	}
}

func TestNewSchema_Duplicate(t *testing.T) {
	_, err := NewSchema("a", "b", "a")
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}

func TestSchema_Positions(t *testing.T) {
	s := MustSchema("a", "b", "c")
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"a", "b", "c"}, s.Names())

	pos, ok := s.Position("c")
	assert.True(t, ok)
	assert.Equal(t, 2, pos)

	_, err := s.Lookup("z")
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}

func TestSchema_Rename(t *testing.T) {
	s := MustSchema("a", "b")
	require.NoError(t, s.Rename("a", "x"))
	assert.Equal(t, []string{"x", "b"}, s.Names())
	assert.False(t, s.Has("a"))

	pos, ok := s.Position("x")
	require.True(t, ok)
	assert.Equal(t, 0, pos)

	err := s.Rename("missing", "y")
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))

	err = s.Rename("x", "b")
	require.Error(t, err, "renaming onto an existing column breaks the bijection")
}

func TestConcat(t *testing.T) {
	s, err := Concat(MustSchema("a", "b"), MustSchema("c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, s.Names())

	_, err = Concat(MustSchema("a"), MustSchema("a"))
	assert.True(t, IsSchemaError(err))
}

func TestReconcile(t *testing.T) {
	src := MustSchema("a", "b", "c", "d")

	tests := []struct {
		name   string
		target []string
		swaps  int
	}{
		{"identity", []string{"a", "b", "c", "d"}, 0},
		{"prefix in place", []string{"a", "b"}, 0},
		{"single column", []string{"c"}, 1},
		{"reversed", []string{"d", "c", "b", "a"}, 2},
		{"rotation", []string{"b", "c", "a"}, 2},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			swaps, err := Reconcile(src, tt.target)
			require.NoError(t, err)
			assert.Len(t, swaps, tt.swaps)

			row := Row{Text("a"), Text("b"), Text("c"), Text("d")}
			ApplySwaps(row, swaps)
			for i, name := range tt.target {
				assert.Equal(t, Text(name), row[i])
			}
		})
	}
}

func TestReconcile_Errors(t *testing.T) {
	src := MustSchema("a", "b")

	_, err := Reconcile(src, []string{"a", "z"})
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))

	_, err = Reconcile(src, []string{"a", "a"})
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}

func TestProject_IdentityOnFullColumnList(t *testing.T) {
	original := employees()
	projected, err := employees().Project([]string{"Id", "Name", "Dept"})
	require.NoError(t, err)

	assert.Equal(t, original.Schema.Names(), projected.Schema.Names())
	assert.Equal(t, original.Rows, projected.Rows)
}

func TestProject_ReordersAndTruncates(t *testing.T) {
	projected, err := employees().Project([]string{"Dept", "Id"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Dept", "Id"}, projected.Schema.Names())
	assert.Equal(t, []Row{
		{Text("X"), Int(5)},
		{Text("Y"), Int(12)},
		{Text("X"), Int(23)},
	}, projected.Rows)
	for _, row := range projected.Rows {
		assert.Len(t, row, 2)
	}
}

func TestProject_MissingColumn(t *testing.T) {
	_, err := employees().Project([]string{"Salary"})
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}

func TestTableRename(t *testing.T) {
	tbl := employees()
	require.NoError(t, tbl.Rename([]string{"Id", "Dept"}, []string{"Key", "Unit"}))
	assert.Equal(t, []string{"Key", "Name", "Unit"}, tbl.Schema.Names())
	assert.Equal(t, employees().Rows, tbl.Rows, "rename touches only the schema")

	err := tbl.Rename([]string{"Id"}, []string{"Other"})
	assert.True(t, IsSchemaError(err))

	err = tbl.Rename([]string{"Key"}, nil)
	require.Error(t, err)
}

func TestAlign(t *testing.T) {
	right := &Table{
		Schema: MustSchema("B", "A"),
		Rows:   []Row{{Int(9), Int(8)}},
	}
	aligned, err := right.Align(MustSchema("A", "B"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, aligned.Schema.Names())
	assert.Equal(t, []Row{{Int(8), Int(9)}}, aligned.Rows)

	_, err = right.Align(MustSchema("A", "C"))
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
}

func TestNewTable_Arity(t *testing.T) {
	_, err := NewTable(MustSchema("a", "b"), []Row{{Int(1)}})
	require.Error(t, err)

	tbl, err := NewTable(MustSchema("a"), []Row{{Int(1)}})
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 1)
}

func TestClone_Independent(t *testing.T) {
	tbl := employees()
	c := tbl.Clone()
	c.Rows[0][0] = Int(99)
	require.NoError(t, c.Schema.Rename("Id", "Key"))

	assert.Equal(t, Int(5), tbl.Rows[0][0])
	assert.True(t, tbl.Schema.Has("Id"))
}
