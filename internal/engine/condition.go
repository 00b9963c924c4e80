package engine

import (
	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

// EvalCondition reports whether cond holds for row under schema.
//
// Column references resolve through the schema; an unknown column is a
// SchemaError. And and Or short-circuit left to right, so a column that is
// never reached is never resolved.
func EvalCondition(row ir.Row, schema *ir.Schema, cond queryir.Condition) (bool, error) {
	switch c := cond.(type) {
	case *queryir.Not:
		ok, err := EvalCondition(row, schema, c.Cond)
		return !ok, err

	case *queryir.And:
		ok, err := EvalCondition(row, schema, c.Left)
		if err != nil || !ok {
			return false, err
		}
		return EvalCondition(row, schema, c.Right)

	case *queryir.Or:
		ok, err := EvalCondition(row, schema, c.Left)
		if err != nil || ok {
			return ok, err
		}
		return EvalCondition(row, schema, c.Right)

	case *queryir.Equal:
		a, b, err := resolvePair(row, schema, c.Left, c.Right)
		if err != nil {
			return false, err
		}
		return ir.Equal(a, b), nil

	case *queryir.Less:
		a, b, err := resolvePair(row, schema, c.Left, c.Right)
		if err != nil {
			return false, err
		}
		return ir.Less(a, b), nil

	case *queryir.More:
		a, b, err := resolvePair(row, schema, c.Left, c.Right)
		if err != nil {
			return false, err
		}
		return ir.Less(b, a), nil

	default:
		return false, ir.NewUnsupportedOperatorError("cannot evaluate condition %T", cond)
	}
}

func resolvePair(row ir.Row, schema *ir.Schema, a, b ir.Value) (ir.Value, ir.Value, error) {
	av, err := resolve(row, schema, a)
	if err != nil {
		return nil, nil, err
	}
	bv, err := resolve(row, schema, b)
	if err != nil {
		return nil, nil, err
	}
	return av, bv, nil
}

// resolve replaces a column reference by the row's value for that column.
// Literals pass through.
func resolve(row ir.Row, schema *ir.Schema, v ir.Value) (ir.Value, error) {
	ref, ok := v.(ir.ColumnRef)
	if !ok {
		return v, nil
	}
	pos, err := schema.Lookup(string(ref))
	if err != nil {
		return nil, err
	}
	return row[pos], nil
}
