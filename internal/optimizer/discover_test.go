package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

func TestDiscoverColumns(t *testing.T) {
	src := newMemSource(map[string]*ir.Table{
		"T1": mustTable([]string{"a", "b"}, nil),
		"T2": mustTable([]string{"c"}, nil),
	})
	plan := &queryir.Product{
		Left: &queryir.Union{Left: &queryir.Load{Source: "T1"}, Right: &queryir.Load{Source: "T1"}},
		Right: &queryir.Load{Source: "T2", Columns: []string{"kept"}},
	}

	out := discover(t, src, plan)

	want := &queryir.Product{
		Left: &queryir.Union{
			Left:  &queryir.Load{Source: "T1", Columns: []string{"a", "b"}},
			Right: &queryir.Load{Source: "T1", Columns: []string{"a", "b"}},
		},
		Right: &queryir.Load{Source: "T2", Columns: []string{"kept"}},
	}
	assert.True(t, queryir.EqualPlan(want, out))
	assert.Equal(t, 1, src.reads["T1"], "one lookup per relation")
	assert.Zero(t, src.reads["T2"], "discovered loads are untouched")
	assert.False(t, plan.Left.(*queryir.Union).Left.(*queryir.Load).Discovered())
}

func TestDiscoverColumns_Idempotent(t *testing.T) {
	src := newMemSource(map[string]*ir.Table{"T1": mustTable([]string{"a"}, nil)})
	once := discover(t, src, &queryir.Load{Source: "T1"})
	twice := discover(t, src, once)

	assert.True(t, queryir.EqualPlan(once, twice))
}

func TestDiscoverColumns_SourceError(t *testing.T) {
	_, err := DiscoverColumns{Source: newMemSource(nil)}.Optimize(context.Background(), &queryir.Load{Source: "missing"})

	require.Error(t, err)
	assert.True(t, ir.IsSourceAccessError(err))
}
