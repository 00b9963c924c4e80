package compiler

import (
	"strconv"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

// Condition document fields.
const (
	condLogical    = "logical"
	condComparator = "comparator"
	condCondition1 = "condition1"
	condCondition2 = "condition2"
	condAttribute1 = "attribute1"
	condAttribute2 = "attribute2"
)

func conditionField(args cue.Value) (queryir.Condition, error) {
	f, err := field(args, argCondition)
	if err != nil {
		return nil, err
	}
	return compileCondition(f)
}

// compileCondition decodes an untagged condition document. The shape
// decides the kind:
//
//	{logical: "not", condition}
//	{logical: "and" | "or", condition1, condition2}
//	{comparator: "=" | "<" | ">", attribute1, attribute2}
func compileCondition(v cue.Value) (queryir.Condition, error) {
	if lookup(v, condComparator).Exists() {
		return compileComparison(v)
	}
	if !lookup(v, condLogical).Exists() {
		return nil, &CompileError{
			Field:   argCondition,
			Message: "expected a logical or comparator condition",
			Pos:     v.Pos(),
		}
	}

	op, err := stringField(v, condLogical)
	if err != nil {
		return nil, err
	}

	if lookup(v, argCondition).Exists() {
		if op != "not" {
			return nil, ir.NewUnsupportedOperatorError("%s: unknown logical operator of arity 1 %q", position(v), op)
		}
		inner, err := conditionField(v)
		if err != nil {
			return nil, err
		}
		return &queryir.Not{Cond: inner}, nil
	}

	if op != "and" && op != "or" {
		return nil, ir.NewUnsupportedOperatorError("%s: unknown logical operator of arity 2 %q", position(v), op)
	}
	c1, err := field(v, condCondition1)
	if err != nil {
		return nil, err
	}
	c2, err := field(v, condCondition2)
	if err != nil {
		return nil, err
	}
	left, err := compileCondition(c1)
	if err != nil {
		return nil, err
	}
	right, err := compileCondition(c2)
	if err != nil {
		return nil, err
	}
	if op == "and" {
		return &queryir.And{Left: left, Right: right}, nil
	}
	return &queryir.Or{Left: left, Right: right}, nil
}

func compileComparison(v cue.Value) (queryir.Condition, error) {
	op, err := stringField(v, condComparator)
	if err != nil {
		return nil, err
	}
	a1, err := attributeField(v, condAttribute1)
	if err != nil {
		return nil, err
	}
	a2, err := attributeField(v, condAttribute2)
	if err != nil {
		return nil, err
	}

	switch op {
	case "=":
		return &queryir.Equal{Left: a1, Right: a2}, nil
	case "<":
		return &queryir.Less{Left: a1, Right: a2}, nil
	case ">":
		return &queryir.More{Left: a1, Right: a2}, nil
	default:
		return nil, ir.NewUnsupportedOperatorError("%s: unknown comparator %q", position(v), op)
	}
}

// attributeField reads a comparison operand. CUE integers are accepted as
// integer literals; strings go through ParseAttribute.
func attributeField(v cue.Value, name string) (ir.Value, error) {
	f, err := field(v, name)
	if err != nil {
		return nil, err
	}
	if f.Kind() == cue.IntKind {
		n, err := f.Int64()
		if err != nil {
			return nil, &CompileError{Field: name, Message: "integer out of range", Pos: f.Pos()}
		}
		return ir.Int(n), nil
	}
	s, err := f.String()
	if err != nil {
		return nil, &CompileError{Field: name, Message: "must be a string or an integer", Pos: f.Pos()}
	}
	return ParseAttribute(s), nil
}

// ParseAttribute types an attribute string: an integer literal if it parses
// as one, a text literal if it is wrapped in single quotes, else a column
// reference.
func ParseAttribute(s string) ir.Value {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ir.Int(n)
	}
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return ir.Text(s[1 : len(s)-1])
	}
	return ir.ColumnRef(s)
}

// FormatAttribute is the inverse of ParseAttribute. It fails for column
// names that ParseAttribute would read back as a literal.
func FormatAttribute(v ir.Value) (string, error) {
	switch val := v.(type) {
	case ir.Int:
		return strconv.FormatInt(int64(val), 10), nil
	case ir.Text:
		return "'" + string(val) + "'", nil
	case ir.ColumnRef:
		if _, ok := ParseAttribute(string(val)).(ir.ColumnRef); !ok {
			return "", ir.NewSchemaError(string(val), "column %q cannot be written as an attribute", string(val))
		}
		return string(val), nil
	default:
		return "", ir.NewUnsupportedOperatorError("cannot encode operand %T", v)
	}
}
