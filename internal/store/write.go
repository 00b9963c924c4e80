package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/relq/internal/ir"
)

// WriteTable replaces the named table with the contents of t and records it
// in the catalog. importedFrom notes where the rows came from and may be
// empty. The write happens in one transaction.
//
// Columns are declared without a type, so SQLite keeps integers as INTEGER
// and text as TEXT and reads return the same values.
func (s *Store) WriteTable(ctx context.Context, name string, t *ir.Table, importedFrom string) (err error) {
	cols := t.Schema.Names()
	if len(cols) == 0 {
		return fmt.Errorf("write table %q: no columns", name)
	}
	colsJSON, err := marshalColumns(cols)
	if err != nil {
		return fmt.Errorf("write table %q: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write table %q: begin: %w", name, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = QuoteIdent(c)
	}

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+QuoteIdent(name)); err != nil {
		return fmt.Errorf("write table %q: drop: %w", name, err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(name), strings.Join(quoted, ", "))
	if _, err = tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("write table %q: create: %w", name, err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(name),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
	)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("write table %q: prepare: %w", name, err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for _, row := range t.Rows {
		for i, v := range row {
			if args[i], err = valueArg(v); err != nil {
				return fmt.Errorf("write table %q: %w", name, err)
			}
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("write table %q: insert: %w", name, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO relq_tables (name, columns, row_count, imported_from)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			columns = excluded.columns,
			row_count = excluded.row_count,
			imported_from = excluded.imported_from
	`, name, colsJSON, len(t.Rows), importedFrom)
	if err != nil {
		return fmt.Errorf("write table %q: catalog: %w", name, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write table %q: commit: %w", name, err)
	}
	return nil
}
