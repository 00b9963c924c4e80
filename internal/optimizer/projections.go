package optimizer

import (
	"context"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/roach88/relq/internal/queryir"
)

// PushProjections moves projections toward the loads.
//
// The pass threads the set of columns an ancestor still needs from the root
// (nil, meaning every column) down to the loads, which are wrapped in a
// Project keeping only what is needed. Columns read only by a selection are
// pushed below it but projected away above it again, and a Project is only
// kept where its child does not already expose its columns in order.
// Requires discovered loads and an unfused plan.
type PushProjections struct{}

// Name implements Pass.
func (PushProjections) Name() string { return CodePushProjections }

// Optimize implements Pass.
func (PushProjections) Optimize(_ context.Context, p queryir.Plan) (queryir.Plan, error) {
	return pushProjections(p, nil)
}

// pushProjections rewrites p given the ordered list of columns required
// from it. required is nil when every column is needed, and is otherwise a
// subset of p's exposed columns. The result exposes exactly the required
// columns, though not necessarily in required order.
func pushProjections(p queryir.Plan, required []string) (queryir.Plan, error) {
	out, err := pushProjectionsNode(p, required)
	if err != nil || required == nil {
		return out, err
	}
	exposed, err := exposedColumns(out)
	if err != nil {
		return nil, err
	}
	if mapset.NewSet(exposed...).Equal(mapset.NewSet(required...)) {
		return out, nil
	}
	return &queryir.Project{Input: out, Columns: slices.Clone(required)}, nil
}

func pushProjectionsNode(p queryir.Plan, required []string) (queryir.Plan, error) {
	switch n := p.(type) {
	case *queryir.Project:
		target := n.Columns
		if required != nil {
			target = required
		}
		child, err := pushProjections(n.Input, target)
		if err != nil {
			return nil, err
		}
		exposed, err := exposedColumns(child)
		if err != nil {
			return nil, err
		}
		if slices.Equal(exposed, target) {
			return child, nil
		}
		return &queryir.Project{Input: child, Columns: slices.Clone(target)}, nil

	case *queryir.Select:
		if required == nil {
			child, err := pushProjections(n.Input, nil)
			if err != nil {
				return nil, err
			}
			return &queryir.Select{Input: child, Cond: queryir.CloneCondition(n.Cond)}, nil
		}

		needed := mapset.NewSet(required...)
		pushed := slices.Clone(required)
		for _, c := range queryir.UsedColumns(n.Cond) {
			if needed.Add(c) {
				pushed = append(pushed, c)
			}
		}

		// Columns only the condition reads are projected away again by
		// pushProjections once this node is rebuilt.
		child, err := pushProjections(n.Input, pushed)
		if err != nil {
			return nil, err
		}
		return &queryir.Select{Input: child, Cond: queryir.CloneCondition(n.Cond)}, nil

	case *queryir.Rename:
		var translated []string
		if required != nil {
			inverse := renameInverse(n.Old, n.New)
			seen := mapset.NewSet[string]()
			translated = make([]string, 0, len(required))
			for _, c := range required {
				if old, ok := inverse[c]; ok {
					c = old
				}
				if seen.Add(c) {
					translated = append(translated, c)
				}
			}
		}

		child, err := pushProjections(n.Input, translated)
		if err != nil {
			return nil, err
		}
		exposed, err := exposedColumns(child)
		if err != nil {
			return nil, err
		}

		// Pairs whose source column was projected away are dropped.
		available := mapset.NewSet(exposed...)
		rename := &queryir.Rename{Input: child}
		for i := range n.Old {
			if available.Contains(n.Old[i]) {
				rename.Old = append(rename.Old, n.Old[i])
				rename.New = append(rename.New, n.New[i])
			}
		}
		if len(rename.Old) == 0 {
			return child, nil
		}
		return rename, nil

	case *queryir.Product:
		left, err := pushToSide(n.Left, required)
		if err != nil {
			return nil, err
		}
		right, err := pushToSide(n.Right, required)
		if err != nil {
			return nil, err
		}
		return &queryir.Product{Left: left, Right: right}, nil

	case *queryir.Union:
		left, err := pushToSide(n.Left, required)
		if err != nil {
			return nil, err
		}
		right, err := pushToSide(n.Right, required)
		if err != nil {
			return nil, err
		}
		return &queryir.Union{Left: left, Right: right}, nil

	case *queryir.Except:
		// Restricting either side would change which rows are equal, so
		// both sides keep every column and the result is projected above.
		left, err := pushProjections(n.Left, nil)
		if err != nil {
			return nil, err
		}
		right, err := pushProjections(n.Right, nil)
		if err != nil {
			return nil, err
		}
		return &queryir.Except{Left: left, Right: right}, nil

	case *queryir.Load:
		if _, err := exposedColumns(n); err != nil {
			return nil, err
		}
		load := queryir.Clone(n).(*queryir.Load)
		if required == nil {
			return load, nil
		}
		available := mapset.NewSet(n.Columns...)
		keep := make([]string, 0, len(required))
		for _, c := range required {
			if available.Contains(c) {
				keep = append(keep, c)
			}
		}
		if slices.Equal(keep, n.Columns) {
			return load, nil
		}
		return &queryir.Project{Input: load, Columns: keep}, nil

	default:
		return nil, rejectFused(CodePushProjections, p)
	}
}

// pushToSide pushes the part of required that side exposes.
func pushToSide(side queryir.Plan, required []string) (queryir.Plan, error) {
	if required == nil {
		return pushProjections(side, nil)
	}
	exposed, err := exposedColumns(side)
	if err != nil {
		return nil, err
	}
	available := mapset.NewSet(exposed...)
	own := make([]string, 0, len(required))
	for _, c := range required {
		if available.Contains(c) {
			own = append(own, c)
		}
	}
	return pushProjections(side, own)
}
