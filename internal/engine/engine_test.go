package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

// memSource serves copies of in-memory tables.
type memSource map[string]*ir.Table

func (m memSource) Read(_ context.Context, name string) (*ir.Table, error) {
	t, ok := m[name]
	if !ok {
		return nil, ir.NewSourceAccessError(name, errors.New("no such relation"))
	}
	return t.Clone(), nil
}

func table(t *testing.T, cols []string, rows ...ir.Row) *ir.Table {
	t.Helper()
	tbl, err := ir.NewTable(ir.MustSchema(cols...), rows)
	require.NoError(t, err)
	return tbl
}

func row(values ...any) ir.Row {
	r := make(ir.Row, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case int:
			r[i] = ir.Int(val)
		case string:
			r[i] = ir.Text(val)
		default:
			panic("row: unsupported literal")
		}
	}
	return r
}

func employees(t *testing.T) memSource {
	return memSource{
		"Employee": table(t, []string{"Id", "Name", "Dept"},
			row(5, "Ann", "X"),
			row(12, "Bo", "Y"),
			row(23, "Cy", "X"),
		),
		"Dept": table(t, []string{"DeptId", "Label"},
			row("X", "Sales"),
			row("Y", "Ops"),
		),
	}
}

func col(name string) ir.ColumnRef { return ir.ColumnRef(name) }

func evaluate(t *testing.T, src Source, p queryir.Plan) *ir.Table {
	t.Helper()
	result, err := New(src).Evaluate(context.Background(), p)
	require.NoError(t, err)
	return result
}

func TestEvaluate_SelectEmployee(t *testing.T) {
	plan := &queryir.Select{
		Input: &queryir.Load{Source: "Employee"},
		Cond:  &queryir.Equal{Left: col("Id"), Right: ir.Int(12)},
	}

	result := evaluate(t, employees(t), plan)

	assert.Equal(t, []string{"Id", "Name", "Dept"}, result.Schema.Names())
	assert.Equal(t, []ir.Row{row(12, "Bo", "Y")}, result.Rows)
}

func TestEvaluate_SelectIsStable(t *testing.T) {
	plan := &queryir.Select{
		Input: &queryir.Load{Source: "Employee"},
		Cond:  &queryir.Equal{Left: col("Dept"), Right: ir.Text("X")},
	}

	result := evaluate(t, employees(t), plan)

	assert.Equal(t, []ir.Row{row(5, "Ann", "X"), row(23, "Cy", "X")}, result.Rows)
}

func TestEvaluate_Project(t *testing.T) {
	plan := &queryir.Project{
		Input:   &queryir.Load{Source: "Employee"},
		Columns: []string{"Dept", "Id"},
	}

	result := evaluate(t, employees(t), plan)

	assert.Equal(t, []string{"Dept", "Id"}, result.Schema.Names())
	assert.Equal(t, []ir.Row{row("X", 5), row("Y", 12), row("X", 23)}, result.Rows)
}

func TestEvaluate_ProjectMissingColumn(t *testing.T) {
	plan := &queryir.Project{Input: &queryir.Load{Source: "Employee"}, Columns: []string{"Salary"}}

	_, err := New(employees(t)).Evaluate(context.Background(), plan)

	require.Error(t, err)
	assert.True(t, ir.IsSchemaError(err))
}

func TestEvaluate_Rename(t *testing.T) {
	plan := &queryir.Rename{
		Input: &queryir.Load{Source: "Employee"},
		Old:   []string{"Id", "Dept"},
		New:   []string{"EmployeeId", "Team"},
	}

	result := evaluate(t, employees(t), plan)

	assert.Equal(t, []string{"EmployeeId", "Name", "Team"}, result.Schema.Names())
	assert.Len(t, result.Rows, 3)

	_, err := New(employees(t)).Evaluate(context.Background(), &queryir.Rename{
		Input: &queryir.Load{Source: "Employee"},
		Old:   []string{"Missing"},
		New:   []string{"Other"},
	})
	assert.True(t, ir.IsSchemaError(err))
}

func TestEvaluate_Product(t *testing.T) {
	plan := &queryir.Product{
		Left:  &queryir.Project{Input: &queryir.Load{Source: "Employee"}, Columns: []string{"Id"}},
		Right: &queryir.Load{Source: "Dept"},
	}

	result := evaluate(t, employees(t), plan)

	assert.Equal(t, []string{"Id", "DeptId", "Label"}, result.Schema.Names())
	assert.Equal(t, []ir.Row{
		row(5, "X", "Sales"), row(5, "Y", "Ops"),
		row(12, "X", "Sales"), row(12, "Y", "Ops"),
		row(23, "X", "Sales"), row(23, "Y", "Ops"),
	}, result.Rows)
}

func TestEvaluate_ProductSharedColumn(t *testing.T) {
	plan := &queryir.Product{Left: &queryir.Load{Source: "Dept"}, Right: &queryir.Load{Source: "Dept"}}

	_, err := New(employees(t)).Evaluate(context.Background(), plan)

	assert.True(t, ir.IsSchemaError(err))
}

func TestEvaluate_UnionRealignsRight(t *testing.T) {
	src := memSource{
		"T1": table(t, []string{"A", "B"}, row(1, 2)),
		"T2": table(t, []string{"B", "A"}, row(9, 8)),
	}
	plan := &queryir.Union{Left: &queryir.Load{Source: "T1"}, Right: &queryir.Load{Source: "T2"}}

	result := evaluate(t, src, plan)

	assert.Equal(t, []string{"A", "B"}, result.Schema.Names())
	assert.Equal(t, []ir.Row{row(1, 2), row(8, 9)}, result.Rows)
}

func TestEvaluate_UnionKeepsDuplicates(t *testing.T) {
	src := memSource{"T": table(t, []string{"A"}, row(1))}
	plan := &queryir.Union{Left: &queryir.Load{Source: "T"}, Right: &queryir.Load{Source: "T"}}

	result := evaluate(t, src, plan)

	assert.Equal(t, []ir.Row{row(1), row(1)}, result.Rows)
}

func TestEvaluate_UnionDifferentColumns(t *testing.T) {
	src := memSource{
		"T1": table(t, []string{"A", "B"}, row(1, 2)),
		"T2": table(t, []string{"A", "C"}, row(1, 2)),
	}
	plan := &queryir.Union{Left: &queryir.Load{Source: "T1"}, Right: &queryir.Load{Source: "T2"}}

	_, err := New(src).Evaluate(context.Background(), plan)

	assert.True(t, ir.IsSchemaError(err))
}

func TestEvaluate_ExceptBagSemantics(t *testing.T) {
	src := memSource{
		"T1": table(t, []string{"N", "S"}, row(1, "a"), row(1, "a"), row(2, "b")),
		"T2": table(t, []string{"N", "S"}, row(1, "a")),
	}
	plan := &queryir.Except{Left: &queryir.Load{Source: "T1"}, Right: &queryir.Load{Source: "T2"}}

	result := evaluate(t, src, plan)

	assert.Equal(t, []ir.Row{row(2, "b")}, result.Rows)
}

func TestEvaluate_ExceptTypedComparison(t *testing.T) {
	src := memSource{
		"T1": table(t, []string{"V"}, row(1), row("1")),
		"T2": table(t, []string{"V"}, row("1")),
	}
	plan := &queryir.Except{Left: &queryir.Load{Source: "T1"}, Right: &queryir.Load{Source: "T2"}}

	result := evaluate(t, src, plan)

	assert.Equal(t, []ir.Row{row(1)}, result.Rows)
}

func TestEvaluate_ReadSelectProjectRenameMatchesChain(t *testing.T) {
	cond := &queryir.Less{Left: col("Id"), Right: ir.Int(20)}
	fused := &queryir.ReadSelectProjectRename{
		Source: "Employee",
		Cond:   cond,
		Old:    []string{"Name", "Id"},
		New:    []string{"Who", "Id"},
	}
	chain := &queryir.Rename{
		Input: &queryir.Project{
			Input:   &queryir.Select{Input: &queryir.Load{Source: "Employee"}, Cond: cond},
			Columns: []string{"Name", "Id"},
		},
		Old: []string{"Name", "Id"},
		New: []string{"Who", "Id"},
	}

	got := evaluate(t, employees(t), fused)
	want := evaluate(t, employees(t), chain)

	assert.Equal(t, want.Schema.Names(), got.Schema.Names())
	assert.Equal(t, want.Rows, got.Rows)
	assert.Equal(t, []ir.Row{row("Ann", 5), row("Bo", 12)}, got.Rows)
}

func TestEvaluate_PlanIsReusable(t *testing.T) {
	plan := &queryir.Project{Input: &queryir.Load{Source: "Employee"}, Columns: []string{"Name"}}
	before := queryir.Clone(plan)
	src := employees(t)

	first := evaluate(t, src, plan)
	second := evaluate(t, src, plan)

	assert.True(t, queryir.EqualPlan(before, plan))
	assert.Equal(t, first.Rows, second.Rows)
}

func TestEvaluate_SourceErrorPropagates(t *testing.T) {
	_, err := New(memSource{}).Evaluate(context.Background(), &queryir.Load{Source: "nope"})

	require.Error(t, err)
	assert.True(t, ir.IsSourceAccessError(err))
}

func TestEvaluate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(employees(t)).Evaluate(ctx, &queryir.Load{Source: "Employee"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_ReadSelectProjectRenameMatchesUnfusedChain(t *testing.T) {
	cond := &queryir.Equal{Left: col("Id"), Right: ir.Int(5)}
	unfused := func(oldNames, newNames []string) queryir.Plan {
		return &queryir.Rename{
			Input: &queryir.Project{
				Input:   &queryir.Select{Input: &queryir.Load{Source: "Employee"}, Cond: cond},
				Columns: []string{"Id", "Name", "Dept"},
			},
			Old: oldNames,
			New: newNames,
		}
	}
	fused := func(newNames []string) queryir.Plan {
		return &queryir.ReadSelectProjectRename{
			Source: "Employee",
			Cond:   cond,
			Old:    []string{"Id", "Name", "Dept"},
			New:    newNames,
		}
	}
	eng := New(employees(t))

	// Name takes Dept's place once Dept has moved away.
	want, err := eng.Evaluate(context.Background(), unfused([]string{"Dept", "Name"}, []string{"Team", "Dept"}))
	require.NoError(t, err)
	got, err := eng.Evaluate(context.Background(), fused([]string{"Id", "Dept", "Team"}))
	require.NoError(t, err)
	assert.Equal(t, want.Schema.Names(), got.Schema.Names())
	assert.Equal(t, want.Rows, got.Rows)

	// Swapping two names has no ordering that avoids a clash.
	_, err = eng.Evaluate(context.Background(), unfused([]string{"Name", "Dept"}, []string{"Dept", "Name"}))
	assert.True(t, ir.IsSchemaError(err))
	_, err = eng.Evaluate(context.Background(), fused([]string{"Id", "Dept", "Name"}))
	assert.True(t, ir.IsSchemaError(err))
}
