package ir

import (
	"fmt"
	"strconv"
)

// Value is a sealed interface for the cell and literal types of the engine.
// Only Int, Text and ColumnRef implement it.
type Value interface {
	value() // Sealed - only these types implement it
}

// Int is a 64-bit integer value.
type Int int64

func (Int) value() {}

// Text is a string value.
type Text string

func (Text) value() {}

// ColumnRef is an unresolved reference to a column by name.
// It may only appear inside a condition, never inside a materialized row.
type ColumnRef string

func (ColumnRef) value() {}

// ParseCell types a raw cell read from an external relation.
// The cell is an Int if it parses as a 64-bit integer literal, else Text.
func ParseCell(s string) Value {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n)
	}
	return Text(s)
}

// Equal reports whether two values are equal.
//
// Int/Int and Text/Text compare by value. Any other pairing, including
// cross-type pairs and column references, is unequal rather than an error.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Text:
		bv, ok := b.(Text)
		return ok && av == bv
	default:
		return false
	}
}

// Less reports whether a < b. Ordering is only defined for two Int operands;
// every other pairing yields false.
func Less(a, b Value) bool {
	av, ok := a.(Int)
	if !ok {
		return false
	}
	bv, ok := b.(Int)
	return ok && av < bv
}

// RowsEqual reports whether two rows hold pairwise equal values.
func RowsEqual(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Format renders a value as output text: integers in decimal, text verbatim.
// A column reference cannot be rendered and yields an error.
func Format(v Value) (string, error) {
	switch val := v.(type) {
	case Int:
		return strconv.FormatInt(int64(val), 10), nil
	case Text:
		return string(val), nil
	case ColumnRef:
		return "", fmt.Errorf("column reference %q reached the output boundary", string(val))
	default:
		return "", fmt.Errorf("unknown value type: %T", v)
	}
}

// String implements fmt.Stringer for debugging output.
func (c ColumnRef) String() string {
	return "$" + string(c)
}
