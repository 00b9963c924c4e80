package optimizer

import (
	"context"
	"log/slog"

	"github.com/roach88/relq/internal/queryir"
)

// Pass transforms a plan into an equivalent plan.
type Pass interface {
	// Name identifies the pass in logs and errors.
	Name() string

	// Optimize returns the rewritten plan. The input is not modified.
	Optimize(ctx context.Context, p queryir.Plan) (queryir.Plan, error)
}

// ColumnSource reports the column names of an external relation without
// reading its rows.
type ColumnSource interface {
	Columns(ctx context.Context, name string) ([]string, error)
}

// Chain applies passes in order, each to the whole tree, feeding the output
// of one into the next.
type Chain struct {
	passes []Pass
	logger *slog.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLogger sets the logger that traces each applied pass.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) ChainOption {
	return func(c *Chain) {
		c.logger = logger
	}
}

// NewChain creates a chain of passes. The slice is copied.
func NewChain(passes []Pass, opts ...ChainOption) *Chain {
	c := &Chain{
		passes: append([]Pass(nil), passes...),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Pass.
func (c *Chain) Name() string { return "chain" }

// Passes returns the passes in application order.
func (c *Chain) Passes() []Pass {
	return append([]Pass(nil), c.passes...)
}

// Optimize implements Pass.
func (c *Chain) Optimize(ctx context.Context, p queryir.Plan) (queryir.Plan, error) {
	for i, pass := range c.passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := pass.Optimize(ctx, p)
		if err != nil {
			c.logger.Debug("optimizer pass failed", "pass", pass.Name(), "step", i, "error", err)
			return nil, err
		}
		c.logger.Debug("optimizer pass applied",
			"pass", pass.Name(),
			"step", i,
			"root", queryir.Describe(next),
		)
		p = next
	}
	return p, nil
}

// Visit is the default recursive visit: it rebuilds p with every child
// replaced by fn(child). Leaves are copied.
func Visit(p queryir.Plan, fn func(queryir.Plan) (queryir.Plan, error)) (queryir.Plan, error) {
	children := queryir.Children(p)
	if len(children) == 0 {
		return queryir.Clone(p), nil
	}
	rewritten := make([]queryir.Plan, len(children))
	for i, child := range children {
		next, err := fn(child)
		if err != nil {
			return nil, err
		}
		rewritten[i] = next
	}
	return queryir.WithChildren(p, rewritten), nil
}
