package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relq/internal/ir"
)

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteTable(ctx, "Employee", createTestTable(t), "employees.csv"))
	path := s.Path()
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	tables, err := reopened.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "Employee", tables[0].Name)
}

func TestOpen_RejectsNewerCatalog(t *testing.T) {
	s := createTestStore(t)
	_, err := s.db.Exec("PRAGMA user_version = 7")
	require.NoError(t, err)
	path := s.Path()
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.True(t, ir.IsSourceAccessError(err))
	assert.Contains(t, err.Error(), "catalog version 7 is newer")
}

func TestWriteTable_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	want := createTestTable(t)

	require.NoError(t, s.WriteTable(ctx, "Employee", want, "employees.csv"))

	got, err := s.Read(ctx, "Employee")
	require.NoError(t, err)
	assert.Equal(t, want.Schema.Names(), got.Schema.Names())
	assert.Equal(t, want.Rows, got.Rows)

	cols, err := s.Columns(ctx, "Employee")
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "Name", "Dept"}, cols)
}

func TestWriteTable_Replaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteTable(ctx, "T", createTestTable(t), "a.csv"))

	small, err := ir.NewTable(ir.MustSchema("only"), []ir.Row{{ir.Int(1)}})
	require.NoError(t, err)
	require.NoError(t, s.WriteTable(ctx, "T", small, "b.csv"))

	got, err := s.Read(ctx, "T")
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, got.Schema.Names())

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, TableInfo{Name: "T", Columns: []string{"only"}, RowCount: 1, ImportedFrom: "b.csv"}, tables[0])
}

func TestWriteTable_QuotedNames(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	tbl, err := ir.NewTable(ir.MustSchema(`odd "name"`, "select"), []ir.Row{{ir.Int(1), ir.Text("x")}})
	require.NoError(t, err)

	require.NoError(t, s.WriteTable(ctx, "my table", tbl, ""))

	got, err := s.Read(ctx, "my table")
	require.NoError(t, err)
	assert.Equal(t, []string{`odd "name"`, "select"}, got.Schema.Names())
}

func TestRead_MissingTable(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Read(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, ir.IsSourceAccessError(err))

	_, err = s.Columns(context.Background(), "nope")
	assert.True(t, ir.IsSourceAccessError(err))
}

func TestQuery_TypesValues(t *testing.T) {
	s := createTestStore(t)

	got, err := s.Query(context.Background(), "SELECT 1 AS a, 'x' AS b, NULL AS c, '42' AS d, 2.5 AS e")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got.Schema.Names())
	assert.Equal(t, []ir.Row{{ir.Int(1), ir.Text("x"), ir.Text(""), ir.Int(42), ir.Text("2.5")}}, got.Rows)
}

func TestTables_EmptyCatalog(t *testing.T) {
	s := createTestStore(t)

	tables, err := s.Tables(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tables)
	assert.Empty(t, tables)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"plain"`, QuoteIdent("plain"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
}
