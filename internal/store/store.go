package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/relq/internal/ir"
)

//go:embed schema.sql
var schemaSQL string

// catalogVersion is stored in PRAGMA user_version. Version 1 introduced the
// relq_tables catalog.
const catalogVersion = 1

// connectionPragmas are applied to every database Open returns: WAL so
// readers never block the importer, NORMAL sync, and a 5s busy timeout.
var connectionPragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
}

// Store is a SQLite database holding one relation per table, plus the
// relq_tables catalog that records how each table was imported.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the SQLite database at path and installs
// the catalog. Opening the same file again is harmless.
//
// Use ":memory:" for a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, ir.NewSourceAccessError(path, fmt.Errorf("open database: %w", err))
	}

	// One connection: a single writer, and ":memory:" databases exist per
	// connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initialize(context.Background(), db); err != nil {
		db.Close()
		return nil, ir.NewSourceAccessError(path, err)
	}
	return &Store{db: db, path: path}, nil
}

// initialize applies the connection pragmas and the catalog schema, and
// refuses catalogs from a newer release.
func initialize(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	for _, p := range connectionPragmas {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("set %s: %w", p.name, err)
		}
	}

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read catalog version: %w", err)
	}
	if version > catalogVersion {
		return fmt.Errorf("catalog version %d is newer than supported version %d", version, catalogVersion)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", catalogVersion)); err != nil {
		return fmt.Errorf("record catalog version: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Query executes a query and returns its result as a table. Columns are
// named after the result columns, which must be unique.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*ir.Table, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	return scanTable(rows)
}

// verifyPragma reports whether a pragma reads back as expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, want %q", name, value, expected)
	}
	return nil
}
