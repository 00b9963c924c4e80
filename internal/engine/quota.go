package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/relq/internal/queryir"
)

// RowLimitError is returned when a node's result would exceed the limit
// set with WithMaxRows.
//
// The check runs after every node, and before a product allocates its
// result, so a runaway cross product fails without materializing.
type RowLimitError struct {
	Node  string // queryir.Describe of the node
	Rows  int    // rows the node produced or would produce
	Limit int
}

func (e *RowLimitError) Error() string {
	return fmt.Sprintf("%s produces %d rows (limit %d)", e.Node, e.Rows, e.Limit)
}

// IsRowLimitError reports whether err is or wraps a RowLimitError.
func IsRowLimitError(err error) bool {
	var limitErr *RowLimitError
	return errors.As(err, &limitErr)
}

// WithMaxRows bounds the rows any single node may produce.
// Zero (the default) means no limit.
func WithMaxRows(n int) Option {
	return func(e *Engine) {
		e.maxRows = n
	}
}

// checkRows enforces the row limit for node p.
func (e *Engine) checkRows(p queryir.Plan, rows int) error {
	if e.maxRows <= 0 || rows <= e.maxRows {
		return nil
	}
	return &RowLimitError{Node: queryir.Describe(p), Rows: rows, Limit: e.maxRows}
}
