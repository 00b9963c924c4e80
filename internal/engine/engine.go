package engine

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
)

// Source supplies the relations named by Load nodes.
//
// Read must return a table the caller owns: the evaluator rewrites rows in
// place. Failures should be reported as SourceAccessErrors; they are
// propagated unchanged.
type Source interface {
	Read(ctx context.Context, name string) (*ir.Table, error)
}

// Engine evaluates plans against a Source.
//
// An Engine holds no per-evaluation state and is safe for concurrent use
// when its Source is.
type Engine struct {
	source  Source
	logger  *slog.Logger
	maxRows int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for evaluation traces.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine reading relations from source.
func New(source Source, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the plan and returns its result table.
//
// Every error aborts the evaluation; no partial result is returned.
func (e *Engine) Evaluate(ctx context.Context, p queryir.Plan) (*ir.Table, error) {
	start := time.Now()
	table, err := e.eval(ctx, p)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("plan evaluated",
		"root", queryir.Describe(p),
		"columns", table.Schema.Names(),
		"rows", len(table.Rows),
		"duration", time.Since(start),
	)
	return table, nil
}

func (e *Engine) eval(ctx context.Context, p queryir.Plan) (*ir.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := e.evalNode(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := e.checkRows(p, len(table.Rows)); err != nil {
		return nil, err
	}
	return table, nil
}

func (e *Engine) evalNode(ctx context.Context, p queryir.Plan) (*ir.Table, error) {
	switch n := p.(type) {
	case *queryir.Load:
		return e.load(ctx, n.Source)

	case *queryir.Select:
		input, err := e.eval(ctx, n.Input)
		if err != nil {
			return nil, err
		}
		return filter(input, n.Cond)

	case *queryir.Project:
		input, err := e.eval(ctx, n.Input)
		if err != nil {
			return nil, err
		}
		return input.Project(n.Columns)

	case *queryir.Rename:
		input, err := e.eval(ctx, n.Input)
		if err != nil {
			return nil, err
		}
		if err := input.Rename(n.Old, n.New); err != nil {
			return nil, err
		}
		return input, nil

	case *queryir.Product:
		left, right, err := e.evalPair(ctx, n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		if err := e.checkRows(p, len(left.Rows)*len(right.Rows)); err != nil {
			return nil, err
		}
		return product(left, right)

	case *queryir.Except:
		left, right, err := e.evalPair(ctx, n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return except(left, right)

	case *queryir.Union:
		left, right, err := e.evalPair(ctx, n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return union(left, right)

	case *queryir.ReadSelectProjectRename:
		input, err := e.load(ctx, n.Source)
		if err != nil {
			return nil, err
		}
		filtered, err := filter(input, n.Cond)
		if err != nil {
			return nil, err
		}
		return projectRename(filtered, n.Old, n.New)

	case *queryir.JoinProjectRename:
		left, right, err := e.evalPair(ctx, n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		joined, err := hashJoin(left, right, n.Cond, e.logger)
		if err != nil {
			return nil, err
		}
		return projectRename(joined, n.Old, n.New)

	default:
		return nil, ir.NewUnsupportedOperatorError("cannot evaluate plan node %T", p)
	}
}

func (e *Engine) evalPair(ctx context.Context, l, r queryir.Plan) (*ir.Table, *ir.Table, error) {
	left, err := e.eval(ctx, l)
	if err != nil {
		return nil, nil, err
	}
	right, err := e.eval(ctx, r)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (e *Engine) load(ctx context.Context, name string) (*ir.Table, error) {
	table, err := e.source.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("relation loaded", "source", name, "rows", len(table.Rows))
	return table, nil
}

// filter keeps the rows satisfying cond, preserving their order.
func filter(t *ir.Table, cond queryir.Condition) (*ir.Table, error) {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		ok, err := EvalCondition(row, t.Schema, cond)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, row)
		}
	}
	// Clear the tail so dropped rows can be collected.
	clear(t.Rows[len(kept):])
	t.Rows = kept
	return t, nil
}

// projectRename applies the swap/truncate projection against oldNames and
// then renames the projected columns to newNames. Pairs are applied in the
// order OrderedRename gives them, so a fused node fails exactly where the
// unfused Rename(Project(...)) chain would, cycles of names included.
func projectRename(t *ir.Table, oldNames, newNames []string) (*ir.Table, error) {
	rename, err := queryir.OrderedRename(oldNames, newNames)
	if err != nil {
		return nil, err
	}
	projected, err := t.Project(oldNames)
	if err != nil {
		return nil, err
	}
	if err := projected.Rename(rename.Old, rename.New); err != nil {
		return nil, err
	}
	return projected, nil
}

// product pairs every left row with every right row, right rows varying
// fastest.
func product(left, right *ir.Table) (*ir.Table, error) {
	schema, err := ir.Concat(left.Schema, right.Schema)
	if err != nil {
		return nil, err
	}
	rows := make([]ir.Row, 0, len(left.Rows)*len(right.Rows))
	for _, l := range left.Rows {
		for _, r := range right.Rows {
			rows = append(rows, concatRows(l, r))
		}
	}
	return &ir.Table{Schema: schema, Rows: rows}, nil
}

func concatRows(l, r ir.Row) ir.Row {
	row := make(ir.Row, 0, len(l)+len(r))
	row = append(row, l...)
	return append(row, r...)
}

// except keeps each left row that equals no right row. Duplicated left rows
// are judged independently, so all copies of a matched row are removed.
func except(left, right *ir.Table) (*ir.Table, error) {
	right, err := alignTo(right, left.Schema)
	if err != nil {
		return nil, err
	}

	all := make([]int, left.Schema.Len())
	for i := range all {
		all[i] = i
	}
	buckets := make(map[uint64][]ir.Row, len(right.Rows))
	for _, row := range right.Rows {
		h := ir.HashRow(row, all)
		buckets[h] = append(buckets[h], row)
	}

	kept := left.Rows[:0]
	for _, row := range left.Rows {
		if !containsRow(buckets[ir.HashRow(row, all)], row) {
			kept = append(kept, row)
		}
	}
	clear(left.Rows[len(kept):])
	left.Rows = kept
	return left, nil
}

func containsRow(bucket []ir.Row, row ir.Row) bool {
	for _, candidate := range bucket {
		if ir.RowsEqual(candidate, row) {
			return true
		}
	}
	return false
}

// union appends the right rows, realigned to the left schema, after the
// left rows. Duplicates are kept.
func union(left, right *ir.Table) (*ir.Table, error) {
	right, err := alignTo(right, left.Schema)
	if err != nil {
		return nil, err
	}
	left.Rows = append(left.Rows, right.Rows...)
	return left, nil
}

// alignTo realigns t to target. Both must name the same set of columns;
// anything else is a SchemaError.
func alignTo(t *ir.Table, target *ir.Schema) (*ir.Table, error) {
	if slices.Equal(t.Schema.Names(), target.Names()) {
		return t, nil
	}
	return t.Align(target)
}
