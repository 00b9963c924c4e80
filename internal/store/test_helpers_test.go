package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/relq/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTable builds the employee relation used across store tests.
func createTestTable(t *testing.T) *ir.Table {
	t.Helper()
	tbl, err := ir.NewTable(ir.MustSchema("Id", "Name", "Dept"), []ir.Row{
		{ir.Int(5), ir.Text("Ann"), ir.Text("X")},
		{ir.Int(12), ir.Text("Bo, Jr."), ir.Text("Y")},
		{ir.Int(-23), ir.Text("Cy"), ir.Text("")},
	})
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}
	return tbl
}
