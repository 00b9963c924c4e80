package optimizer

import (
	"slices"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

// exposedColumns returns the column names a subtree produces, in order.
// Load nodes must be discovered. Fused nodes are rejected.
func exposedColumns(p queryir.Plan) ([]string, error) {
	switch n := p.(type) {
	case *queryir.Select:
		return exposedColumns(n.Input)
	case *queryir.Project:
		return slices.Clone(n.Columns), nil
	case *queryir.Rename:
		cols, err := exposedColumns(n.Input)
		if err != nil {
			return nil, err
		}
		return applyRename(cols, n.Old, n.New), nil
	case *queryir.Except:
		return exposedColumns(n.Left)
	case *queryir.Union:
		return exposedColumns(n.Left)
	case *queryir.Product:
		left, err := exposedColumns(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := exposedColumns(n.Right)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	case *queryir.Load:
		if !n.Discovered() {
			return nil, ir.NewPrecedenceError("columns of %q are not discovered; run DLC first", n.Source)
		}
		return slices.Clone(n.Columns), nil
	default:
		return nil, ir.NewPrecedenceError("cannot compute exposed columns of %s", queryir.Describe(p))
	}
}

// applyRename renames cols pair by pair, in order. Pairs naming absent
// columns are skipped.
func applyRename(cols, oldNames, newNames []string) []string {
	out := slices.Clone(cols)
	for i := range oldNames {
		if j := slices.Index(out, oldNames[i]); j >= 0 {
			out[j] = newNames[i]
		}
	}
	return out
}

// renameInverse maps each rename target back to its source name.
func renameInverse(oldNames, newNames []string) map[string]string {
	inverse := make(map[string]string, len(oldNames))
	for i := range oldNames {
		inverse[newNames[i]] = oldNames[i]
	}
	return inverse
}

func rejectFused(pass string, p queryir.Plan) error {
	return ir.NewPrecedenceError("%s cannot process fused node %s; run UNF first", pass, queryir.Describe(p))
}
