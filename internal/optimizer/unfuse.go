package optimizer

import (
	"context"
	"slices"

	"github.com/roach88/relq/internal/queryir"
)

// Unfuse expands fused nodes back into their logical operators so passes
// that only understand unfused shapes can process any tree, including the
// output of an earlier optimizer run.
//
// ReadSelectProjectRename becomes Rename(Project(Select(Load))) and
// JoinProjectRename becomes Rename(Project(Select(Product))). The Load is
// left undiscovered. Renames carry only the pairs that change a name and are
// omitted when none do.
type Unfuse struct{}

// Name implements Pass.
func (Unfuse) Name() string { return CodeUnfuse }

// Optimize implements Pass.
func (u Unfuse) Optimize(_ context.Context, p queryir.Plan) (queryir.Plan, error) {
	return u.unfuse(p)
}

func (u Unfuse) unfuse(p queryir.Plan) (queryir.Plan, error) {
	switch n := p.(type) {
	case *queryir.ReadSelectProjectRename:
		return expand(&queryir.Load{Source: n.Source}, n.Cond, n.Old, n.New)

	case *queryir.JoinProjectRename:
		left, err := u.unfuse(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := u.unfuse(n.Right)
		if err != nil {
			return nil, err
		}
		return expand(&queryir.Product{Left: left, Right: right}, n.Cond, n.Old, n.New)

	default:
		return Visit(p, u.unfuse)
	}
}

func expand(input queryir.Plan, cond queryir.Condition, oldNames, newNames []string) (queryir.Plan, error) {
	var plan queryir.Plan = &queryir.Project{
		Input:   &queryir.Select{Input: input, Cond: queryir.CloneCondition(cond)},
		Columns: slices.Clone(oldNames),
	}
	rename, err := queryir.OrderedRename(oldNames, newNames)
	if err != nil {
		return nil, err
	}
	if len(rename.Old) > 0 {
		rename.Input = plan
		plan = rename
	}
	return plan, nil
}
