package optimizer

import (
	"context"
	"slices"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

// FuseSources collapses Rename?(Project*(Select?(Load))) chains into
// ReadSelectProjectRename nodes.
//
// A chain is only fused when it bottoms out at a Load and holds a Select;
// otherwise the recorded operators are put back around the recursively
// fused remainder. Stacked projections collapse to the outermost one, which
// fixes the visible schema. With Joins set, chains over a Product fuse into
// a JoinProjectRename instead of being left alone.
//
// The pass expects pushdown to have run and Load columns to be discovered.
// Fused nodes already in the tree are kept.
type FuseSources struct {
	Joins bool
}

// Name implements Pass.
func (f FuseSources) Name() string {
	if f.Joins {
		return CodeFuseJoins
	}
	return CodeFuseSources
}

// Optimize implements Pass.
func (f FuseSources) Optimize(_ context.Context, p queryir.Plan) (queryir.Plan, error) {
	return f.fuse(p)
}

// fusionChain is the operator prefix recorded while walking down.
type fusionChain struct {
	rename *queryir.Rename
	proj   []string
	cond   queryir.Condition
}

func (c *fusionChain) empty() bool {
	return c.rename == nil && c.proj == nil && c.cond == nil
}

// names derives the positional old/new lists of the fused node. all lists
// the columns exposed below the chain and is used when nothing projects.
func (c *fusionChain) names(all []string) ([]string, []string, error) {
	oldNames := all
	if c.proj != nil {
		oldNames = c.proj
	}
	oldNames = slices.Clone(oldNames)
	if c.rename == nil {
		return oldNames, slices.Clone(oldNames), nil
	}
	for _, name := range c.rename.Old {
		if !slices.Contains(oldNames, name) {
			return nil, nil, ir.NewSchemaError(name, "renamed column %q is not projected", name)
		}
	}
	return oldNames, applyRename(oldNames, c.rename.Old, c.rename.New), nil
}

// wrap rebuilds the recorded operators around inner: selection innermost,
// then projection, then rename.
func (c *fusionChain) wrap(inner queryir.Plan) queryir.Plan {
	if c.cond != nil {
		inner = &queryir.Select{Input: inner, Cond: queryir.CloneCondition(c.cond)}
	}
	if c.proj != nil {
		inner = &queryir.Project{Input: inner, Columns: slices.Clone(c.proj)}
	}
	if c.rename != nil {
		inner = &queryir.Rename{Input: inner, Old: slices.Clone(c.rename.Old), New: slices.Clone(c.rename.New)}
	}
	return inner
}

func (f FuseSources) fuse(p queryir.Plan) (queryir.Plan, error) {
	var chain fusionChain
	node := p

	if r, ok := node.(*queryir.Rename); ok {
		chain.rename = r
		node = r.Input
	}
walk:
	for {
		switch n := node.(type) {
		case *queryir.Project:
			if chain.proj == nil {
				chain.proj = n.Columns
			}
			node = n.Input
		case *queryir.Select:
			if chain.cond != nil {
				break walk
			}
			chain.cond = n.Cond
			node = n.Input
		default:
			break walk
		}
	}

	switch n := node.(type) {
	case *queryir.Load:
		if chain.cond != nil {
			all, err := exposedColumns(n)
			if err != nil {
				return nil, err
			}
			oldNames, newNames, err := chain.names(all)
			if err != nil {
				return nil, err
			}
			return &queryir.ReadSelectProjectRename{
				Source: n.Source,
				Cond:   queryir.CloneCondition(chain.cond),
				Old:    oldNames,
				New:    newNames,
			}, nil
		}

	case *queryir.Product:
		if f.Joins && chain.cond != nil {
			return f.fuseJoin(n, &chain)
		}
	}

	if chain.empty() {
		return Visit(p, f.fuse)
	}
	inner, err := f.fuse(node)
	if err != nil {
		return nil, err
	}
	return chain.wrap(inner), nil
}

func (f FuseSources) fuseJoin(product *queryir.Product, chain *fusionChain) (queryir.Plan, error) {
	all, err := exposedColumns(product)
	if err != nil {
		return nil, err
	}
	oldNames, newNames, err := chain.names(all)
	if err != nil {
		return nil, err
	}
	left, err := f.fuse(product.Left)
	if err != nil {
		return nil, err
	}
	right, err := f.fuse(product.Right)
	if err != nil {
		return nil, err
	}
	return &queryir.JoinProjectRename{
		Left:  left,
		Right: right,
		Cond:  queryir.CloneCondition(chain.cond),
		Old:   oldNames,
		New:   newNames,
	}, nil
}
