package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/relq/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Name string
}

// ImportedTable describes one imported relation.
type ImportedTable struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
	From    string   `json:"from"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <csv-file>...",
		Short: "Import CSV files into a SQLite database",
		Long: `Import CSV files into the SQLite database named by --db (or the config
file). Each file becomes a table named after the file, so plans that load
"projets.csv" read the same rows from either source. Existing tables are
replaced.

Examples:
  relq import --db relq.db data/projets.csv data/employes.csv
  relq import --db relq.db --name projects data/projets.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "table name (single file only)")

	return cmd
}

func runImport(opts *ImportOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	if opts.Config.Source.Kind != SourceSQLite {
		return f.Fail(ExitCommandError, ErrCodeConfig, "import needs a SQLite database (--db)", nil)
	}
	if opts.Name != "" && len(paths) > 1 {
		return f.Fail(ExitCommandError, ErrCodeImport, "--name needs exactly one file", nil)
	}

	st, err := store.Open(opts.Config.Source.DB)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	imported := make([]ImportedTable, 0, len(paths))
	for _, path := range paths {
		name := opts.Name
		if name == "" {
			name = filepath.Base(path)
		}

		table, err := store.CSVDir{}.Read(ctx, path)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeImport, "failed to read "+path, err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if err := st.WriteTable(ctx, name, table, abs); err != nil {
			return f.Fail(ExitFailure, ErrCodeImport, "failed to import "+path, err)
		}

		slog.Debug("table imported", "name", name, "rows", len(table.Rows))
		imported = append(imported, ImportedTable{
			Name:    name,
			Columns: table.Schema.Names(),
			Rows:    len(table.Rows),
			From:    abs,
		})
	}

	if f.Format == "json" {
		return f.Success(imported)
	}
	for _, t := range imported {
		fmt.Fprintf(f.Writer, "✓ %s: %d row(s) from %s\n", t.Name, t.Rows, t.From)
	}
	return nil
}
