package querysql

import (
	"fmt"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
	"github.com/roach88/relq/internal/store"
)

// operand is a compiled comparison operand. sqlType is the SQLite type
// name of a literal, or empty for a column whose type is only known per row.
type operand struct {
	sql     string
	sqlType string
	param   any
	literal ir.Value
}

// compileCondition compiles a condition to a WHERE expression.
// A nil condition always holds.
func compileCondition(cond queryir.Condition) (string, []any, error) {
	if cond == nil {
		return "1", nil, nil
	}

	switch c := cond.(type) {
	case *queryir.Not:
		inner, params, err := compileCondition(c.Cond)
		if err != nil {
			return "", nil, err
		}
		return "(NOT " + inner + ")", params, nil

	case *queryir.And:
		return compileLogical("AND", c.Left, c.Right)

	case *queryir.Or:
		return compileLogical("OR", c.Left, c.Right)

	case *queryir.Equal:
		return compileEqual(c.Left, c.Right)

	case *queryir.Less:
		return compileOrder("<", c.Left, c.Right)

	case *queryir.More:
		return compileOrder(">", c.Left, c.Right)

	default:
		return "", nil, ir.NewUnsupportedOperatorError("cannot compile condition %T", cond)
	}
}

func compileLogical(op string, l, r queryir.Condition) (string, []any, error) {
	left, lp, err := compileCondition(l)
	if err != nil {
		return "", nil, err
	}
	right, rp, err := compileCondition(r)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("(%s %s %s)", left, op, right), append(lp, rp...), nil
}

// compileEqual guards SQL equality with a type check, so 1 never equals '1'.
func compileEqual(l, r ir.Value) (string, []any, error) {
	left, err := compileOperand(l)
	if err != nil {
		return "", nil, err
	}
	right, err := compileOperand(r)
	if err != nil {
		return "", nil, err
	}

	switch {
	case left.literal != nil && right.literal != nil:
		return constant(ir.Equal(left.literal, right.literal)), nil, nil
	case left.literal != nil:
		return fmt.Sprintf("(typeof(%s) = '%s' AND %s = ?)", right.sql, left.sqlType, right.sql), []any{left.param}, nil
	case right.literal != nil:
		return fmt.Sprintf("(typeof(%s) = '%s' AND %s = ?)", left.sql, right.sqlType, left.sql), []any{right.param}, nil
	default:
		return fmt.Sprintf("(typeof(%s) = typeof(%s) AND %s = %s)", left.sql, right.sql, left.sql, right.sql), nil, nil
	}
}

// compileOrder only lets two INTEGER operands compare.
func compileOrder(op string, l, r ir.Value) (string, []any, error) {
	left, err := compileOperand(l)
	if err != nil {
		return "", nil, err
	}
	right, err := compileOperand(r)
	if err != nil {
		return "", nil, err
	}

	if left.literal != nil && right.literal != nil {
		if op == "<" {
			return constant(ir.Less(left.literal, right.literal)), nil, nil
		}
		return constant(ir.Less(right.literal, left.literal)), nil, nil
	}
	if left.sqlType == "text" || right.sqlType == "text" {
		return constant(false), nil, nil
	}

	var guards []string
	var params []any
	for _, o := range []operand{left, right} {
		if o.literal == nil {
			guards = append(guards, fmt.Sprintf("typeof(%s) = 'integer'", o.sql))
		}
	}
	for _, o := range []operand{left, right} {
		if o.literal != nil {
			params = append(params, o.param)
		}
	}
	expr := "("
	for _, g := range guards {
		expr += g + " AND "
	}
	return expr + left.sql + " " + op + " " + right.sql + ")", params, nil
}

func compileOperand(v ir.Value) (operand, error) {
	switch val := v.(type) {
	case ir.ColumnRef:
		return operand{sql: store.QuoteIdent(string(val))}, nil
	case ir.Int:
		return operand{sql: "?", sqlType: "integer", param: int64(val), literal: val}, nil
	case ir.Text:
		return operand{sql: "?", sqlType: "text", param: string(val), literal: val}, nil
	default:
		return operand{}, ir.NewUnsupportedOperatorError("cannot compile operand %T", v)
	}
}

func constant(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
