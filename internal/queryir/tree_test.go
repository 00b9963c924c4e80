package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relq/internal/ir"
)

func samplePlan() Plan {
	return &Rename{
		Input: &Project{
			Input: &Select{
				Input: &Product{
					Left:  &Load{Source: "people.csv"},
					Right: &Load{Source: "depts.csv", Columns: []string{"DeptId", "Label"}},
				},
				Cond: &And{
					Left:  &Equal{Left: ir.ColumnRef("Dept"), Right: ir.ColumnRef("DeptId")},
					Right: &Not{Cond: &Less{Left: ir.ColumnRef("Id"), Right: ir.Int(10)}},
				},
			},
			Columns: []string{"Id", "Label"},
		},
		Old: []string{"Label"},
		New: []string{"Department"},
	}
}

func TestClone_DeepCopy(t *testing.T) {
	original := samplePlan()
	clone := Clone(original)
	require.True(t, EqualPlan(original, clone))

	// Mutating the clone leaves the original untouched
	clone.(*Rename).New[0] = "Other"
	load := clone.(*Rename).Input.(*Project).Input.(*Select).Input.(*Product).Right.(*Load)
	load.Columns[0] = "Changed"

	assert.Equal(t, "Department", original.(*Rename).New[0])
	assert.False(t, EqualPlan(original, clone))
}

func TestClone_PreservesDiscovery(t *testing.T) {
	undiscovered := Clone(&Load{Source: "a"}).(*Load)
	assert.False(t, undiscovered.Discovered())

	empty := Clone(&Load{Source: "a", Columns: []string{}}).(*Load)
	assert.True(t, empty.Discovered())
}

func TestEqual_Structural(t *testing.T) {
	a := &Equal{Left: ir.ColumnRef("x"), Right: ir.Int(1)}
	b := &Equal{Left: ir.Int(1), Right: ir.ColumnRef("x")}
	assert.False(t, EqualCondition(a, b), "operand order is significant")

	and1 := &And{Left: a, Right: b}
	and2 := &And{Left: b, Right: a}
	assert.False(t, EqualCondition(and1, and2))
	assert.True(t, EqualCondition(and1, CloneCondition(and1)))

	// Int(1) and Text("1") are different literals
	assert.False(t, EqualCondition(
		&Equal{Left: ir.ColumnRef("x"), Right: ir.Int(1)},
		&Equal{Left: ir.ColumnRef("x"), Right: ir.Text("1")},
	))

	assert.False(t, EqualPlan(&Load{Source: "a"}, &Load{Source: "a", Columns: []string{}}))
	assert.False(t, EqualPlan(&Union{Left: &Load{Source: "a"}, Right: &Load{Source: "b"}},
		&Except{Left: &Load{Source: "a"}, Right: &Load{Source: "b"}}))
}

func TestUsedColumns(t *testing.T) {
	cond := &Or{
		Left: &And{
			Left:  &Equal{Left: ir.ColumnRef("b"), Right: ir.ColumnRef("a")},
			Right: &More{Left: ir.ColumnRef("b"), Right: ir.Int(3)},
		},
		Right: &Not{Cond: &Equal{Left: ir.Text("x"), Right: ir.ColumnRef("c")}},
	}
	assert.Equal(t, []string{"b", "a", "c"}, UsedColumns(cond))
	assert.Empty(t, UsedColumns(&Equal{Left: ir.Int(1), Right: ir.Int(1)}))
}

func TestRenameColumns(t *testing.T) {
	cond := &And{
		Left:  &Equal{Left: ir.ColumnRef("x"), Right: ir.ColumnRef("y")},
		Right: &Less{Left: ir.ColumnRef("z"), Right: ir.Int(5)},
	}
	renamed := RenameColumns(cond, map[string]string{"x": "y", "y": "x"})

	want := &And{
		Left:  &Equal{Left: ir.ColumnRef("y"), Right: ir.ColumnRef("x")},
		Right: &Less{Left: ir.ColumnRef("z"), Right: ir.Int(5)},
	}
	assert.True(t, EqualCondition(want, renamed))
	assert.Equal(t, []string{"x", "y", "z"}, UsedColumns(cond), "input is not modified")
}

func TestConjoin(t *testing.T) {
	assert.Nil(t, Conjoin())

	a := &Equal{Left: ir.ColumnRef("a"), Right: ir.Int(1)}
	b := &Equal{Left: ir.ColumnRef("b"), Right: ir.Int(2)}
	c := &Equal{Left: ir.ColumnRef("c"), Right: ir.Int(3)}

	assert.Same(t, a, Conjoin(a))
	assert.True(t, EqualCondition(&And{Left: &And{Left: a, Right: b}, Right: c}, Conjoin(a, b, c)))
}

func TestChildrenAndWithChildren(t *testing.T) {
	p := &Product{Left: &Load{Source: "a"}, Right: &Load{Source: "b"}}
	children := Children(p)
	require.Len(t, children, 2)

	swapped := WithChildren(p, []Plan{children[1], children[0]}).(*Product)
	assert.Equal(t, "b", swapped.Left.(*Load).Source)
	assert.Empty(t, Children(&Load{Source: "a"}))
	assert.Len(t, Children(&JoinProjectRename{Left: &Load{Source: "a"}, Right: &Load{Source: "b"}}), 2)
}

func TestOrderedRename(t *testing.T) {
	// b must be renamed away before a can take its name
	rename, err := OrderedRename([]string{"a", "b"}, []string{"b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, rename.Old)
	assert.Equal(t, []string{"c", "b"}, rename.New)
	assert.True(t, Validate(&Rename{Input: &Load{Source: "x"}, Old: rename.Old, New: rename.New}).Valid)

	_, err = OrderedRename([]string{"a", "b"}, []string{"b", "a"})
	assert.True(t, ir.IsSchemaError(err))
}
