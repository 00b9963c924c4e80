package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/relq/internal/ir"
)

// TableInfo describes a relation recorded in the catalog.
type TableInfo struct {
	Name         string
	Columns      []string
	RowCount     int64
	ImportedFrom string
}

// Read returns every row of the named table, in rowid order.
func (s *Store) Read(ctx context.Context, name string) (*ir.Table, error) {
	if err := s.requireTable(ctx, name); err != nil {
		return nil, err
	}
	table, err := s.Query(ctx, "SELECT * FROM "+QuoteIdent(name)+" ORDER BY rowid")
	if err != nil {
		return nil, ir.NewSourceAccessError(name, err)
	}
	return table, nil
}

// Columns returns the column names of the named table in declaration order
// without reading its rows.
func (s *Store) Columns(ctx context.Context, name string) ([]string, error) {
	if err := s.requireTable(ctx, name); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", name)
	if err != nil {
		return nil, ir.NewSourceAccessError(name, fmt.Errorf("query table info: %w", err))
	}
	defer rows.Close()

	cols := []string{}
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, ir.NewSourceAccessError(name, fmt.Errorf("scan table info: %w", err))
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, ir.NewSourceAccessError(name, fmt.Errorf("iterate table info: %w", err))
	}
	return cols, nil
}

// Tables returns the catalog entries ordered by name.
//
// Returns an empty slice (not nil) if nothing was imported.
func (s *Store) Tables(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, columns, row_count, imported_from
		FROM relq_tables
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	tables := []TableInfo{}
	for rows.Next() {
		var info TableInfo
		var cols string
		if err := rows.Scan(&info.Name, &cols, &info.RowCount, &info.ImportedFrom); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		if info.Columns, err = unmarshalColumns(cols); err != nil {
			return nil, err
		}
		tables = append(tables, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return tables, nil
}

// requireTable reports a SourceAccessError unless name is a table or view.
func (s *Store) requireTable(ctx context.Context, name string) error {
	var found string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?", name,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.NewSourceAccessError(name, fmt.Errorf("no table %q in %s", name, s.path))
	}
	if err != nil {
		return ir.NewSourceAccessError(name, err)
	}
	return nil
}
