package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/relq/internal/optimizer"
	"github.com/roach88/relq/internal/querysql"
	"github.com/roach88/relq/internal/store"
)

// SQLOptions holds flags for the sql command.
type SQLOptions struct {
	*RootOptions
	PlanOptions
	Execute bool
}

// SQLResult is the JSON payload of the sql command.
type SQLResult struct {
	SQL    string     `json:"sql"`
	Params []any      `json:"params"`
	Result *TableData `json:"result,omitempty"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql <plan>",
		Short: "Compile a plan to SQLite SQL",
		Long: `Compile a plan document to a single parameterized SQLite query over a
database written by "relq import". Load columns are discovered from the
database. With --execute the query runs and its result is printed.

Examples:
  relq sql --db relq.db plan.json
  relq sql --db relq.db --optimize --execute plan.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.Execute, "execute", false, "run the query and print its result")

	return cmd
}

func runSQL(opts *SQLOptions, planPath string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	if opts.Config.Source.Kind != SourceSQLite {
		return f.Fail(ExitCommandError, ErrCodeConfig, "sql needs a SQLite source (--db)", nil)
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

	plan, err := decodePlan(f, planPath)
	if err != nil {
		return err
	}
	if err := requireValid(f, plan); err != nil {
		return err
	}
	plan, err = optimizePlan(ctx, f, plan, opts.codes(opts.Config), st)
	if err != nil {
		return err
	}
	plan, err = optimizer.DiscoverColumns{Source: st}.Optimize(ctx, plan)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeSQL, "column discovery failed", err)
	}

	query, params, err := querysql.Compile(plan)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeSQL, "failed to compile plan", err)
	}
	if params == nil {
		params = []any{}
	}
	result := SQLResult{SQL: query, Params: params}

	if opts.Execute {
		table, err := st.Query(ctx, query, params...)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeSQL, "query failed", err)
		}
		data, err := newTableData(table)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeSQL, "query failed", err)
		}
		result.Result = &data

		if f.Format != "json" {
			f.VerboseLog("%s", query)
			return f.Table(table)
		}
	}

	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintln(f.Writer, query+";")
	if len(params) > 0 {
		fmt.Fprintf(f.Writer, "-- params: %v\n", params)
	}
	return nil
}
