package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/relq/internal/ir"
)

// QuoteIdent quotes a SQLite identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// valueArg converts a value to a driver argument.
func valueArg(v ir.Value) (any, error) {
	switch val := v.(type) {
	case ir.Int:
		return int64(val), nil
	case ir.Text:
		return string(val), nil
	default:
		return nil, fmt.Errorf("cannot store value of type %T", v)
	}
}

// scanValue types a value returned by the driver.
func scanValue(raw any) ir.Value {
	switch v := raw.(type) {
	case nil:
		return ir.Text("")
	case int64:
		return ir.Int(v)
	case []byte:
		return ir.ParseCell(string(v))
	case string:
		return ir.ParseCell(v)
	case float64:
		return ir.ParseCell(strconv.FormatFloat(v, 'g', -1, 64))
	case bool:
		if v {
			return ir.Int(1)
		}
		return ir.Int(0)
	default:
		return ir.ParseCell(fmt.Sprint(v))
	}
}

// scanTable drains rows into a table.
func scanTable(rows *sql.Rows) (*ir.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	schema, err := ir.NewSchema(cols...)
	if err != nil {
		return nil, err
	}

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	table := &ir.Table{Schema: schema, Rows: []ir.Row{}}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(ir.Row, len(cols))
		for i, v := range raw {
			row[i] = scanValue(v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return table, nil
}

// marshalColumns converts a column list to canonical JSON TEXT for the
// catalog.
func marshalColumns(cols []string) (string, error) {
	data, err := ir.MarshalCanonical(cols)
	if err != nil {
		return "", fmt.Errorf("marshal columns: %w", err)
	}
	return string(data), nil
}

// unmarshalColumns parses a catalog column list.
func unmarshalColumns(data string) ([]string, error) {
	cols := []string{}
	if err := json.Unmarshal([]byte(data), &cols); err != nil {
		return nil, fmt.Errorf("unmarshal columns: %w", err)
	}
	return cols, nil
}
