package engine

import (
	"log/slog"

	"github.com/golang-collections/collections/stack"
	pair "github.com/notEpsilon/go-pair"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

// joinKeys is a join condition split for hashing.
type joinKeys struct {
	// equals holds (left column, right column) equi-join pairs.
	equals []pair.Pair[string, string]

	leftPositions  []int
	rightPositions []int

	// residual is applied after the join. Nil means always true.
	residual queryir.Condition
}

// flattenConjuncts returns the top-level conjuncts of cond in left-to-right
// order. A nil condition has no conjuncts.
func flattenConjuncts(cond queryir.Condition) []queryir.Condition {
	var out []queryir.Condition
	if cond == nil {
		return out
	}
	exp := stack.New()
	exp.Push(cond)
	for exp.Len() > 0 {
		here := exp.Pop().(queryir.Condition)
		if and, ok := here.(*queryir.And); ok {
			// Right first so Left is popped next
			exp.Push(and.Right)
			exp.Push(and.Left)
			continue
		}
		out = append(out, here)
	}
	return out
}

// splitJoinCondition separates the equi-join pairs of cond from the rest.
//
// A conjunct is an equi-join pair when it equates two column references, one
// resolving only to the left schema and the other only to the right. The
// pair is oriented so the left column comes first.
func splitJoinCondition(cond queryir.Condition, left, right *ir.Schema) joinKeys {
	var keys joinKeys
	var rest []queryir.Condition

	for _, conjunct := range flattenConjuncts(cond) {
		if eq, ok := equiPair(conjunct, left, right); ok {
			lp, _ := left.Position(eq.First)
			rp, _ := right.Position(eq.Second)
			keys.equals = append(keys.equals, eq)
			keys.leftPositions = append(keys.leftPositions, lp)
			keys.rightPositions = append(keys.rightPositions, rp)
			continue
		}
		rest = append(rest, conjunct)
	}
	keys.residual = queryir.Conjoin(rest...)
	return keys
}

func equiPair(cond queryir.Condition, left, right *ir.Schema) (pair.Pair[string, string], bool) {
	eq, ok := cond.(*queryir.Equal)
	if !ok {
		return pair.Pair[string, string]{}, false
	}
	a, aok := eq.Left.(ir.ColumnRef)
	b, bok := eq.Right.(ir.ColumnRef)
	if !aok || !bok {
		return pair.Pair[string, string]{}, false
	}

	onlyLeft := func(name string) bool { return left.Has(name) && !right.Has(name) }
	onlyRight := func(name string) bool { return right.Has(name) && !left.Has(name) }

	switch {
	case onlyLeft(string(a)) && onlyRight(string(b)):
		return pair.Pair[string, string]{First: string(a), Second: string(b)}, true
	case onlyRight(string(a)) && onlyLeft(string(b)):
		return pair.Pair[string, string]{First: string(b), Second: string(a)}, true
	default:
		return pair.Pair[string, string]{}, false
	}
}

// hashJoin joins left and right on cond.
//
// Left rows are bucketed by their key hash, then each right row probes the
// bucket for its own key. Candidates are verified by exact equality, so a
// hash collision never produces a row. Output rows are the left row followed
// by the right row, in probe order. Without equi-join pairs every row lands
// in one bucket and the join is a filtered cross product.
func hashJoin(left, right *ir.Table, cond queryir.Condition, logger *slog.Logger) (*ir.Table, error) {
	schema, err := ir.Concat(left.Schema, right.Schema)
	if err != nil {
		return nil, err
	}
	keys := splitJoinCondition(cond, left.Schema, right.Schema)

	buckets := make(map[uint64][]ir.Row)
	for _, row := range left.Rows {
		h := ir.HashRow(row, keys.leftPositions)
		buckets[h] = append(buckets[h], row)
	}

	logger.Debug("hash join build",
		"equi_pairs", len(keys.equals),
		"residual", keys.residual != nil,
		"left_rows", len(left.Rows),
		"buckets", len(buckets),
	)

	var rows []ir.Row
	for _, r := range right.Rows {
		for _, l := range buckets[ir.HashRow(r, keys.rightPositions)] {
			if !keysMatch(l, r, keys) {
				continue
			}
			row := concatRows(l, r)
			if keys.residual != nil {
				ok, err := EvalCondition(row, schema, keys.residual)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
			}
			rows = append(rows, row)
		}
	}
	logger.Debug("hash join probe", "right_rows", len(right.Rows), "rows", len(rows))
	return &ir.Table{Schema: schema, Rows: rows}, nil
}

func keysMatch(l, r ir.Row, keys joinKeys) bool {
	for i := range keys.leftPositions {
		if !ir.Equal(l[keys.leftPositions[i]], r[keys.rightPositions[i]]) {
			return false
		}
	}
	return true
}
