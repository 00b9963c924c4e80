package optimizer

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

// renameAll is a test pass that renames every Load source.
type renameAll struct{ suffix string }

func (r renameAll) Name() string { return "rename-" + r.suffix }

func (r renameAll) Optimize(_ context.Context, p queryir.Plan) (queryir.Plan, error) {
	var visit func(queryir.Plan) (queryir.Plan, error)
	visit = func(p queryir.Plan) (queryir.Plan, error) {
		if load, ok := p.(*queryir.Load); ok {
			return &queryir.Load{Source: load.Source + r.suffix}, nil
		}
		return Visit(p, visit)
	}
	return visit(p)
}

func TestChain_AppliesPassesInOrder(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	chain := NewChain([]Pass{renameAll{"1"}, renameAll{"2"}}, WithLogger(logger))

	input := &queryir.Union{Left: &queryir.Load{Source: "a"}, Right: &queryir.Load{Source: "b"}}
	out, err := chain.Optimize(context.Background(), input)
	require.NoError(t, err)

	union := out.(*queryir.Union)
	assert.Equal(t, "a12", union.Left.(*queryir.Load).Source)
	assert.Equal(t, "b12", union.Right.(*queryir.Load).Source)
	assert.Equal(t, "a", input.Left.(*queryir.Load).Source, "input is not modified")
	assert.Contains(t, logs.String(), "pass=rename-1")
	assert.Contains(t, logs.String(), "pass=rename-2")
}

func TestChain_StopsOnError(t *testing.T) {
	chain := NewChain([]Pass{PushSelections{}, renameAll{"x"}})

	_, err := chain.Optimize(context.Background(), &queryir.Load{Source: "a"})

	require.Error(t, err)
	assert.True(t, ir.IsPrecedenceError(err), "undiscovered load")
}

func TestChain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChain([]Pass{Unfuse{}}).Optimize(ctx, &queryir.Load{Source: "a"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestVisit_CopiesLeaves(t *testing.T) {
	load := &queryir.Load{Source: "a", Columns: []string{"x"}}

	out, err := Visit(load, func(p queryir.Plan) (queryir.Plan, error) {
		t.Fatal("leaves have no children")
		return nil, nil
	})
	require.NoError(t, err)

	assert.True(t, queryir.EqualPlan(load, out))
	assert.NotSame(t, load, out)
}

func TestByCode(t *testing.T) {
	src := newMemSource(nil)
	for _, code := range Codes() {
		pass, err := ByCode(code, src)
		require.NoError(t, err, code)
		assert.Equal(t, code, pass.Name())
	}

	pass, err := ByCode(" fce ", nil)
	require.NoError(t, err)
	assert.Equal(t, CodeFuseSources, pass.Name())

	_, err = ByCode("XYZ", src)
	assert.True(t, ir.IsUnsupportedOperatorError(err))

	_, err = ByCode(CodeDiscoverColumns, nil)
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	chain := Default(newMemSource(nil))

	var names []string
	for _, p := range chain.Passes() {
		names = append(names, p.Name())
	}
	assert.Equal(t, DefaultCodes, names)
}
