package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/relq/internal/engine"
	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

// memSource serves in-memory tables to both the engine and column
// discovery.
type memSource struct {
	tables map[string]*ir.Table
	reads  map[string]int
}

func newMemSource(tables map[string]*ir.Table) *memSource {
	return &memSource{tables: tables, reads: map[string]int{}}
}

func (m *memSource) Read(_ context.Context, name string) (*ir.Table, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, ir.NewSourceAccessError(name, errors.New("no such relation"))
	}
	return t.Clone(), nil
}

func (m *memSource) Columns(_ context.Context, name string) ([]string, error) {
	m.reads[name]++
	t, ok := m.tables[name]
	if !ok {
		return nil, ir.NewSourceAccessError(name, errors.New("no such relation"))
	}
	return t.Schema.Names(), nil
}

func col(name string) ir.ColumnRef { return ir.ColumnRef(name) }

func mustTable(cols []string, rows []ir.Row) *ir.Table {
	t, err := ir.NewTable(ir.MustSchema(cols...), rows)
	if err != nil {
		panic(err)
	}
	return t
}

// randomSource builds the relations used by generated plans: T1 and T3
// share columns in different orders, T2 is disjoint from both.
func randomSource(rng *rand.Rand) *memSource {
	gen := func(cols []string) *ir.Table {
		rows := make([]ir.Row, rng.IntN(7))
		for i := range rows {
			rows[i] = make(ir.Row, len(cols))
			for j := range cols {
				if rng.IntN(5) == 0 {
					rows[i][j] = ir.Text(fmt.Sprint(rng.IntN(3)))
				} else {
					rows[i][j] = ir.Int(rng.IntN(4))
				}
			}
		}
		return mustTable(cols, rows)
	}
	return newMemSource(map[string]*ir.Table{
		"T1": gen([]string{"a", "b", "c"}),
		"T2": gen([]string{"d", "e"}),
		"T3": gen([]string{"c", "a", "b"}),
	})
}

// planGen generates random legal plans over randomSource relations.
type planGen struct {
	rng   *rand.Rand
	fresh int
}

// plan returns a plan and the columns it exposes. family 0 may hold
// products, family 1 loads T1 or T3 only and family 2 loads T2 only, which
// keeps products free of shared names.
func (g *planGen) plan(depth, family int) (queryir.Plan, []string) {
	if depth == 0 || g.rng.IntN(5) == 0 {
		if family == 2 {
			return &queryir.Load{Source: "T2"}, []string{"d", "e"}
		}
		if g.rng.IntN(2) == 0 {
			return &queryir.Load{Source: "T1"}, []string{"a", "b", "c"}
		}
		return &queryir.Load{Source: "T3"}, []string{"c", "a", "b"}
	}

	switch g.rng.IntN(6) {
	case 0:
		input, cols := g.plan(depth-1, family)
		return &queryir.Select{Input: input, Cond: g.condition(cols, 2)}, cols
	case 1:
		input, cols := g.plan(depth-1, family)
		keep := g.subset(cols)
		return &queryir.Project{Input: input, Columns: keep}, keep
	case 2:
		input, cols := g.plan(depth-1, family)
		i := g.rng.IntN(len(cols))
		g.fresh++
		renamed := fmt.Sprintf("%s_%d", cols[i], g.fresh)
		out := slices.Clone(cols)
		out[i] = renamed
		return &queryir.Rename{Input: input, Old: []string{cols[i]}, New: []string{renamed}}, out
	case 3:
		if family != 0 {
			return g.plan(depth-1, family)
		}
		left, lcols := g.plan(depth-1, 1)
		right, rcols := g.plan(depth-1, 2)
		return &queryir.Product{Left: left, Right: right}, append(slices.Clone(lcols), rcols...)
	default:
		left, cols := g.plan(depth-1, family)
		var right queryir.Plan
		if g.rng.IntN(2) == 0 {
			right = &queryir.Select{Input: queryir.Clone(left), Cond: g.condition(cols, 1)}
		} else {
			shuffled := slices.Clone(cols)
			g.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
			right = &queryir.Project{Input: queryir.Clone(left), Columns: shuffled}
		}
		if g.rng.IntN(2) == 0 {
			return &queryir.Union{Left: left, Right: right}, cols
		}
		return &queryir.Except{Left: left, Right: right}, cols
	}
}

func (g *planGen) subset(cols []string) []string {
	shuffled := slices.Clone(cols)
	g.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:1+g.rng.IntN(len(shuffled))]
}

func (g *planGen) condition(cols []string, depth int) queryir.Condition {
	if depth > 0 && g.rng.IntN(3) == 0 {
		l, r := g.condition(cols, depth-1), g.condition(cols, depth-1)
		switch g.rng.IntN(3) {
		case 0:
			return &queryir.And{Left: l, Right: r}
		case 1:
			return &queryir.Or{Left: l, Right: r}
		default:
			return &queryir.Not{Cond: l}
		}
	}
	left := col(cols[g.rng.IntN(len(cols))])
	var right ir.Value = ir.Int(g.rng.IntN(4))
	if g.rng.IntN(2) == 0 {
		right = col(cols[g.rng.IntN(len(cols))])
	}
	switch g.rng.IntN(3) {
	case 0:
		return &queryir.Less{Left: left, Right: right}
	case 1:
		return &queryir.More{Left: left, Right: right}
	default:
		return &queryir.Equal{Left: left, Right: right}
	}
}

// requireSound checks that optimized evaluates to the same column set and
// row multiset as original.
func requireSound(t *testing.T, src *memSource, original, optimized queryir.Plan) {
	t.Helper()
	eng := engine.New(src)

	want, err := eng.Evaluate(context.Background(), original)
	require.NoError(t, err)
	got, err := eng.Evaluate(context.Background(), optimized)
	require.NoError(t, err)

	require.True(t, ir.Equivalent(want, got),
		"results differ\nwant %v %v\ngot  %v %v", want.Schema.Names(), want.Rows, got.Schema.Names(), got.Rows)
}

func discover(t *testing.T, src ColumnSource, p queryir.Plan) queryir.Plan {
	t.Helper()
	out, err := DiscoverColumns{Source: src}.Optimize(context.Background(), p)
	require.NoError(t, err)
	return out
}
