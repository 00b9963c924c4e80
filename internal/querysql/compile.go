package querysql

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/queryir"
	"github.com/roach88/relq/internal/store"
)

// SQLCompiler compiles plans to parameterized SQL for SQLite.
//
// Each plan node becomes a SELECT over its children's SELECTs, so the
// result can run against a database holding one table per relation. The
// generated SQL keeps relq's value semantics: equality never holds across
// INTEGER and TEXT, and ordering only holds between two INTEGERs.
//
// CRITICAL: The outermost query ends with ORDER BY over every column, so
// results are deterministic.
// CRITICAL: All literals are parameterized, never interpolated.
//
// Loads must be discovered. Zero-column projections cannot be expressed.
type SQLCompiler struct {
	alias int
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// fragment is a compiled subplan: a SELECT exposing cols, whose
// placeholders bind params in order.
type fragment struct {
	sql    string
	cols   []string
	params []any
}

// Compile converts a plan to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(p queryir.Plan) (string, []any, error) {
	if p == nil {
		return "", nil, fmt.Errorf("cannot compile nil plan")
	}
	c.alias = 0

	f, err := c.compile(p)
	if err != nil {
		return "", nil, err
	}
	return f.sql + " ORDER BY " + c.stableOrderKey(len(f.cols)), f.params, nil
}

// stableOrderKey returns positional ORDER BY terms for n columns.
func (c *SQLCompiler) stableOrderKey(n int) string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = strconv.Itoa(i + 1)
	}
	return strings.Join(keys, ", ")
}

func (c *SQLCompiler) nextAlias() string {
	c.alias++
	return "t" + strconv.Itoa(c.alias)
}

func (c *SQLCompiler) compile(p queryir.Plan) (fragment, error) {
	switch n := p.(type) {
	case *queryir.Load:
		if !n.Discovered() {
			return fragment{}, ir.NewPrecedenceError("columns of %q are not discovered; run DLC first", n.Source)
		}
		if err := requireColumns(n.Columns); err != nil {
			return fragment{}, err
		}
		return fragment{
			sql:  fmt.Sprintf("SELECT %s FROM %s", columnList(n.Columns), store.QuoteIdent(n.Source)),
			cols: slices.Clone(n.Columns),
		}, nil

	case *queryir.Select:
		child, err := c.compile(n.Input)
		if err != nil {
			return fragment{}, err
		}
		return c.filter(child, n.Cond)

	case *queryir.Project:
		child, err := c.compile(n.Input)
		if err != nil {
			return fragment{}, err
		}
		if err := requireColumns(n.Columns); err != nil {
			return fragment{}, err
		}
		for _, col := range n.Columns {
			if !slices.Contains(child.cols, col) {
				return fragment{}, ir.NewSchemaError(col, "column %q not found", col)
			}
		}
		return fragment{
			sql:    fmt.Sprintf("SELECT %s FROM (%s) AS %s", columnList(n.Columns), child.sql, c.nextAlias()),
			cols:   slices.Clone(n.Columns),
			params: child.params,
		}, nil

	case *queryir.Rename:
		child, err := c.compile(n.Input)
		if err != nil {
			return fragment{}, err
		}
		renamed, err := renameColumns(child.cols, n.Old, n.New)
		if err != nil {
			return fragment{}, err
		}
		return fragment{
			sql:    fmt.Sprintf("SELECT %s FROM (%s) AS %s", aliasList(child.cols, renamed), child.sql, c.nextAlias()),
			cols:   renamed,
			params: child.params,
		}, nil

	case *queryir.Product:
		return c.product(n.Left, n.Right)

	case *queryir.Union:
		left, right, err := c.compileAligned(n.Left, n.Right)
		if err != nil {
			return fragment{}, err
		}
		la, ra := c.nextAlias(), c.nextAlias()
		return fragment{
			sql: fmt.Sprintf("SELECT * FROM (SELECT %s FROM (%s) AS %s UNION ALL SELECT %s FROM (%s) AS %s) AS %s",
				columnList(left.cols), left.sql, la,
				columnList(left.cols), right.sql, ra,
				c.nextAlias()),
			cols:   left.cols,
			params: append(slices.Clip(left.params), right.params...),
		}, nil

	case *queryir.Except:
		left, right, err := c.compileAligned(n.Left, n.Right)
		if err != nil {
			return fragment{}, err
		}
		la, ra := c.nextAlias(), c.nextAlias()
		matches := make([]string, len(left.cols))
		for i, col := range left.cols {
			l := la + "." + store.QuoteIdent(col)
			r := ra + "." + store.QuoteIdent(col)
			matches[i] = fmt.Sprintf("typeof(%s) = typeof(%s) AND %s = %s", l, r, l, r)
		}
		return fragment{
			sql: fmt.Sprintf("SELECT %s FROM (%s) AS %s WHERE NOT EXISTS (SELECT 1 FROM (%s) AS %s WHERE %s)",
				qualifiedList(la, left.cols), left.sql, la,
				right.sql, ra, strings.Join(matches, " AND ")),
			cols:   left.cols,
			params: append(slices.Clip(left.params), right.params...),
		}, nil

	case *queryir.ReadSelectProjectRename:
		if err := requireColumns(n.Old); err != nil {
			return fragment{}, err
		}
		cond, params, err := compileCondition(n.Cond)
		if err != nil {
			return fragment{}, err
		}
		return fragment{
			sql: fmt.Sprintf("SELECT %s FROM (SELECT * FROM %s WHERE %s) AS %s",
				aliasList(n.Old, n.New), store.QuoteIdent(n.Source), cond, c.nextAlias()),
			cols:   slices.Clone(n.New),
			params: params,
		}, nil

	case *queryir.JoinProjectRename:
		joined, err := c.product(n.Left, n.Right)
		if err != nil {
			return fragment{}, err
		}
		filtered, err := c.filter(joined, n.Cond)
		if err != nil {
			return fragment{}, err
		}
		if err := requireColumns(n.Old); err != nil {
			return fragment{}, err
		}
		return fragment{
			sql:    fmt.Sprintf("SELECT %s FROM (%s) AS %s", aliasList(n.Old, n.New), filtered.sql, c.nextAlias()),
			cols:   slices.Clone(n.New),
			params: filtered.params,
		}, nil

	default:
		return fragment{}, ir.NewUnsupportedOperatorError("cannot compile plan node %T", p)
	}
}

func (c *SQLCompiler) filter(child fragment, cond queryir.Condition) (fragment, error) {
	where, params, err := compileCondition(cond)
	if err != nil {
		return fragment{}, err
	}
	return fragment{
		sql:    fmt.Sprintf("SELECT %s FROM (%s) AS %s WHERE %s", columnList(child.cols), child.sql, c.nextAlias(), where),
		cols:   child.cols,
		params: append(slices.Clip(child.params), params...),
	}, nil
}

func (c *SQLCompiler) product(l, r queryir.Plan) (fragment, error) {
	left, err := c.compile(l)
	if err != nil {
		return fragment{}, err
	}
	right, err := c.compile(r)
	if err != nil {
		return fragment{}, err
	}
	schema, err := ir.NewSchema(append(slices.Clone(left.cols), right.cols...)...)
	if err != nil {
		return fragment{}, err
	}
	la, ra := c.nextAlias(), c.nextAlias()
	return fragment{
		sql: fmt.Sprintf("SELECT %s, %s FROM (%s) AS %s CROSS JOIN (%s) AS %s",
			qualifiedList(la, left.cols), qualifiedList(ra, right.cols),
			left.sql, la, right.sql, ra),
		cols:   schema.Names(),
		params: append(slices.Clip(left.params), right.params...),
	}, nil
}

// compileAligned compiles both sides of a set operation, which must expose
// the same columns. The right side is read in the left side's order.
func (c *SQLCompiler) compileAligned(l, r queryir.Plan) (fragment, fragment, error) {
	left, err := c.compile(l)
	if err != nil {
		return fragment{}, fragment{}, err
	}
	right, err := c.compile(r)
	if err != nil {
		return fragment{}, fragment{}, err
	}
	ls, err := ir.NewSchema(left.cols...)
	if err != nil {
		return fragment{}, fragment{}, err
	}
	rs, err := ir.NewSchema(right.cols...)
	if err != nil {
		return fragment{}, fragment{}, err
	}
	if !ls.SameColumns(rs) {
		return fragment{}, fragment{}, ir.NewSchemaError("", "columns %v and %v differ", left.cols, right.cols)
	}
	return left, right, nil
}

func requireColumns(cols []string) error {
	if len(cols) == 0 {
		return ir.NewUnsupportedOperatorError("SQL cannot express a relation without columns")
	}
	return nil
}

// renameColumns applies rename pairs in order, as the evaluator does.
func renameColumns(cols, oldNames, newNames []string) ([]string, error) {
	schema, err := ir.NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	if len(oldNames) != len(newNames) {
		return nil, ir.NewSchemaError("", "%d old names but %d new names", len(oldNames), len(newNames))
	}
	for i := range oldNames {
		if err := schema.Rename(oldNames[i], newNames[i]); err != nil {
			return nil, err
		}
	}
	return schema.Names(), nil
}

func columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = store.QuoteIdent(col)
	}
	return strings.Join(quoted, ", ")
}

func qualifiedList(alias string, cols []string) string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = alias + "." + store.QuoteIdent(col)
	}
	return strings.Join(quoted, ", ")
}

// aliasList selects from[i] AS to[i], omitting the alias when unchanged.
func aliasList(from, to []string) string {
	parts := make([]string, len(from))
	for i := range from {
		if from[i] == to[i] {
			parts[i] = store.QuoteIdent(from[i])
			continue
		}
		parts[i] = store.QuoteIdent(from[i]) + " AS " + store.QuoteIdent(to[i])
	}
	return strings.Join(parts, ", ")
}

// Compile converts a plan to parameterized SQL with a fresh SQLCompiler.
func Compile(p queryir.Plan) (string, []any, error) {
	return NewSQLCompiler().Compile(p)
}
