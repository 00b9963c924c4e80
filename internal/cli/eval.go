package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/relq/internal/engine"
	"github.com/roach88/relq/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	PlanOptions
	Output  string
	MaxRows int
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <plan>",
		Short: "Evaluate a plan",
		Long: `Evaluate a plan document against the configured source and print the
result as CSV (or JSON with --format json).

Exit codes:
  0 - Plan evaluated
  1 - Invalid plan, optimization or evaluation failure
  2 - Command error (unreadable plan, bad source, bad config)

Examples:
  relq eval --data-dir ./data plan.json
  relq eval --data-dir ./data --optimize plan.json
  relq eval --db relq.db --passes DLC,PDS,APE plan.json -o out.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the result CSV to this file")
	cmd.Flags().IntVar(&opts.MaxRows, "max-rows", 0, "fail when any node produces more rows (overrides config)")

	return cmd
}

func runEval(opts *EvalOptions, planPath string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	src, closeSource, err := openSource(opts.Config)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "failed to open source", err)
	}
	defer func() {
		if closeErr := closeSource(); closeErr != nil {
			slog.Error("error closing source", "error", closeErr)
		}
	}()

	plan, err := decodePlan(f, planPath)
	if err != nil {
		return err
	}
	if err := requireValid(f, plan); err != nil {
		return err
	}
	plan, err = optimizePlan(ctx, f, plan, opts.codes(opts.Config), src)
	if err != nil {
		return err
	}

	maxRows := opts.Config.MaxRows
	if opts.MaxRows > 0 {
		maxRows = opts.MaxRows
	}
	result, err := engine.New(src, engine.WithMaxRows(maxRows)).Evaluate(ctx, plan)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeEvaluate, "evaluation failed", err)
	}
	f.VerboseLog("Result has %d row(s)", len(result.Rows))

	if opts.Output == "" {
		return f.Table(result)
	}

	out, err := os.Create(opts.Output)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "failed to create output", err)
	}
	if err := store.WriteCSV(out, result); err != nil {
		out.Close()
		return f.Fail(ExitFailure, ErrCodeEvaluate, "failed to write result", err)
	}
	if err := out.Close(); err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to write result", err)
	}
	return f.Report(
		map[string]any{"output": opts.Output, "rows": len(result.Rows)},
		fmt.Sprintf("Wrote %d row(s) to %s", len(result.Rows), opts.Output),
	)
}
