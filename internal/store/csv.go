package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/relq/internal/ir"
)

// CSVDir serves the CSV files of a directory as relations.
//
// A relation name is a path relative to Dir, or an absolute path. When no
// such file exists and the name has no extension, ".csv" is appended. The
// first record of a file is its header.
type CSVDir struct {
	Dir string
}

// Path resolves a relation name to the file that holds it.
func (d CSVDir) Path(name string) string {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.Dir, name)
	}
	if filepath.Ext(path) == "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return path + ".csv"
		}
	}
	return path
}

// Read loads the whole relation.
func (d CSVDir) Read(ctx context.Context, name string) (*ir.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(d.Path(name))
	if err != nil {
		return nil, ir.NewSourceAccessError(name, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, ir.NewSourceAccessError(name, err)
	}
	return t, nil
}

// Columns reads only the header of the relation.
func (d CSVDir) Columns(ctx context.Context, name string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(d.Path(name))
	if err != nil {
		return nil, ir.NewSourceAccessError(name, err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		return []string{}, nil
	}
	if err != nil {
		return nil, ir.NewSourceAccessError(name, fmt.Errorf("read header: %w", err))
	}
	return header, nil
}

// ReadCSV parses a CSV document whose first record is the header. Cells
// are typed with ir.ParseCell. An empty document is a relation with no
// columns and no rows.
func ReadCSV(r io.Reader) (*ir.Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &ir.Table{Schema: ir.MustSchema(), Rows: []ir.Row{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	schema, err := ir.NewSchema(header...)
	if err != nil {
		return nil, err
	}

	// The reader enforces that every record has as many fields as the header.
	table := &ir.Table{Schema: schema, Rows: []ir.Row{}}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		row := make(ir.Row, len(record))
		for i, cell := range record {
			row[i] = ir.ParseCell(cell)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// WriteCSV writes t with a header record. Values are rendered with
// ir.Format.
func WriteCSV(w io.Writer, t *ir.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Schema.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, t.Schema.Len())
	for _, row := range t.Rows {
		for i, v := range row {
			s, err := ir.Format(v)
			if err != nil {
				return err
			}
			record[i] = s
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
