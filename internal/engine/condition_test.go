package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

func TestEvalCondition(t *testing.T) {
	schema := ir.MustSchema("n", "s")
	r := row(7, "seven")

	tests := []struct {
		name string
		cond queryir.Condition
		want bool
	}{
		{"int equal", &queryir.Equal{Left: col("n"), Right: ir.Int(7)}, true},
		{"text equal", &queryir.Equal{Left: ir.Text("seven"), Right: col("s")}, true},
		{"cross type equal", &queryir.Equal{Left: col("n"), Right: ir.Text("7")}, false},
		{"less", &queryir.Less{Left: col("n"), Right: ir.Int(8)}, true},
		{"more", &queryir.More{Left: col("n"), Right: ir.Int(8)}, false},
		{"text ordering", &queryir.Less{Left: ir.Text("a"), Right: col("s")}, false},
		{"mixed ordering", &queryir.More{Left: col("s"), Right: ir.Int(1)}, false},
		{"not", &queryir.Not{Cond: &queryir.Less{Left: col("n"), Right: ir.Int(8)}}, false},
		{"and", &queryir.And{
			Left:  &queryir.More{Left: col("n"), Right: ir.Int(1)},
			Right: &queryir.Equal{Left: col("s"), Right: ir.Text("seven")},
		}, true},
		{"or", &queryir.Or{
			Left:  &queryir.Equal{Left: col("n"), Right: ir.Int(1)},
			Right: &queryir.Equal{Left: col("s"), Right: ir.Text("seven")},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalCondition(r, schema, tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalCondition_UnknownColumn(t *testing.T) {
	_, err := EvalCondition(row(1), ir.MustSchema("n"), &queryir.Equal{Left: col("missing"), Right: ir.Int(1)})

	require.Error(t, err)
	assert.True(t, ir.IsSchemaError(err))
}

func TestEvalCondition_ShortCircuit(t *testing.T) {
	schema := ir.MustSchema("n")
	missing := &queryir.Equal{Left: col("missing"), Right: ir.Int(1)}

	ok, err := EvalCondition(row(1), schema, &queryir.Or{
		Left:  &queryir.Equal{Left: col("n"), Right: ir.Int(1)},
		Right: missing,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvalCondition(row(1), schema, &queryir.And{
		Left:  &queryir.Equal{Left: col("n"), Right: ir.Int(2)},
		Right: missing,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = EvalCondition(row(1), schema, &queryir.And{
		Left:  &queryir.Equal{Left: col("n"), Right: ir.Int(1)},
		Right: missing,
	})
	assert.True(t, ir.IsSchemaError(err))
}
