package optimizer

import (
	"context"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/roach88/relq/internal/queryir"
)

// PushSelections moves selections toward the loads.
//
// Selections are collected top-down into a pending list. At a Product each
// pending condition goes to the side that provides all of its columns, or
// stays above the Product when it needs both. Pending conditions are
// rewritten through renames and threaded into both sides of Union and
// Except. Whatever reaches a Load is applied there as one Select. Requires
// discovered loads and an unfused plan.
type PushSelections struct{}

// Name implements Pass.
func (PushSelections) Name() string { return CodePushSelections }

// Optimize implements Pass.
func (PushSelections) Optimize(_ context.Context, p queryir.Plan) (queryir.Plan, error) {
	return pushSelections(p, nil)
}

// pendingCondition is a selection waiting to be placed.
type pendingCondition struct {
	cond queryir.Condition
	cols mapset.Set[string]
}

func newPending(cond queryir.Condition) pendingCondition {
	return pendingCondition{
		cond: queryir.CloneCondition(cond),
		cols: mapset.NewSet(queryir.UsedColumns(cond)...),
	}
}

func pushSelections(p queryir.Plan, pending []pendingCondition) (queryir.Plan, error) {
	switch n := p.(type) {
	case *queryir.Select:
		// Clip so sibling branches never share appended storage.
		return pushSelections(n.Input, append(slices.Clip(pending), newPending(n.Cond)))

	case *queryir.Project:
		child, err := pushSelections(n.Input, pending)
		if err != nil {
			return nil, err
		}
		return &queryir.Project{Input: child, Columns: slices.Clone(n.Columns)}, nil

	case *queryir.Rename:
		inverse := renameInverse(n.Old, n.New)
		rewritten := make([]pendingCondition, len(pending))
		for i, pc := range pending {
			rewritten[i] = newPending(queryir.RenameColumns(pc.cond, inverse))
		}
		child, err := pushSelections(n.Input, rewritten)
		if err != nil {
			return nil, err
		}
		return &queryir.Rename{Input: child, Old: slices.Clone(n.Old), New: slices.Clone(n.New)}, nil

	case *queryir.Product:
		leftCols, err := exposedColumns(n.Left)
		if err != nil {
			return nil, err
		}
		rightCols, err := exposedColumns(n.Right)
		if err != nil {
			return nil, err
		}
		leftSet := mapset.NewSet(leftCols...)
		rightSet := mapset.NewSet(rightCols...)

		var toLeft, toRight, spanning []pendingCondition
		for _, pc := range pending {
			switch {
			case pc.cols.IsSubset(leftSet):
				toLeft = append(toLeft, pc)
			case pc.cols.IsSubset(rightSet):
				toRight = append(toRight, pc)
			default:
				spanning = append(spanning, pc)
			}
		}

		left, err := pushSelections(n.Left, toLeft)
		if err != nil {
			return nil, err
		}
		right, err := pushSelections(n.Right, toRight)
		if err != nil {
			return nil, err
		}
		return wrapPending(&queryir.Product{Left: left, Right: right}, spanning), nil

	case *queryir.Union:
		left, right, err := pushSelectionsBoth(n.Left, n.Right, pending)
		if err != nil {
			return nil, err
		}
		return &queryir.Union{Left: left, Right: right}, nil

	case *queryir.Except:
		left, right, err := pushSelectionsBoth(n.Left, n.Right, pending)
		if err != nil {
			return nil, err
		}
		return &queryir.Except{Left: left, Right: right}, nil

	case *queryir.Load:
		if _, err := exposedColumns(n); err != nil {
			return nil, err
		}
		return wrapPending(queryir.Clone(n), pending), nil

	default:
		return nil, rejectFused(CodePushSelections, p)
	}
}

func pushSelectionsBoth(l, r queryir.Plan, pending []pendingCondition) (queryir.Plan, queryir.Plan, error) {
	left, err := pushSelections(l, pending)
	if err != nil {
		return nil, nil, err
	}
	right, err := pushSelections(r, pending)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// wrapPending places the pending conditions above p as a single Select,
// conjoined in the order they were collected.
func wrapPending(p queryir.Plan, pending []pendingCondition) queryir.Plan {
	if len(pending) == 0 {
		return p
	}
	conds := make([]queryir.Condition, len(pending))
	for i, pc := range pending {
		conds[i] = queryir.CloneCondition(pc.cond)
	}
	return &queryir.Select{Input: p, Cond: queryir.Conjoin(conds...)}
}
