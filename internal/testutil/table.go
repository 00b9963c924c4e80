package testutil

import (
	"fmt"

	"github.com/roach88/relq/internal/ir"
)

// TableBuilder accumulates rows for a table with a fixed schema.
type TableBuilder struct {
	schema *ir.Schema
	rows   []ir.Row
}

// NewTable starts a table with the given columns. It panics on duplicate
// column names.
func NewTable(cols ...string) *TableBuilder {
	return &TableBuilder{schema: ir.MustSchema(cols...), rows: []ir.Row{}}
}

// Row appends a row. Go ints become ir.Int, strings become ir.Text and
// ir.Value arguments are kept as they are.
func (b *TableBuilder) Row(values ...any) *TableBuilder {
	b.rows = append(b.rows, RowOf(values...))
	return b
}

// Build returns the table. It panics when a row's width differs from the
// schema's.
func (b *TableBuilder) Build() *ir.Table {
	t, err := ir.NewTable(b.schema, b.rows)
	if err != nil {
		panic(err)
	}
	return t
}

// RowOf converts Go values to a row.
func RowOf(values ...any) ir.Row {
	row := make(ir.Row, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case int:
			row[i] = ir.Int(val)
		case int64:
			row[i] = ir.Int(val)
		case string:
			row[i] = ir.Text(val)
		case ir.Value:
			row[i] = val
		default:
			panic(fmt.Sprintf("testutil: unsupported cell type %T", v))
		}
	}
	return row
}
