package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/relq/internal/compiler"
)

// OptimizeOptions holds flags for the optimize command.
type OptimizeOptions struct {
	*RootOptions
	Passes []string
}

// NewOptimizeCommand creates the optimize command.
func NewOptimizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OptimizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "optimize <plan>",
		Short: "Optimize a plan and print the result",
		Long: `Apply a pass chain to a plan document and print the optimized plan as a
plan document. Without --passes the configured chain is used.

Pass codes:
  UNF - expand fused nodes back into their operator chains
  DLC - discover load columns
  PDS - push selections down
  APE - apply projections early
  FCE - fuse load chains into single-pass reads
  FCJ - FCE, and also fuse selective products into hash joins

Examples:
  relq optimize --data-dir ./data plan.json
  relq optimize --data-dir ./data --passes DLC,PDS plan.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Passes, "passes", nil, "comma-separated pass codes")

	return cmd
}

func runOptimize(opts *OptimizeOptions, planPath string, cmd *cobra.Command) error {
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

	codes := opts.Passes
	if len(codes) == 0 {
		codes = opts.Config.Passes
	}
	optimized, err := optimizePlan(ctx, f, plan, codes, src)
	if err != nil {
		return err
	}

	if f.Format == "json" {
		doc, err := compiler.Document(optimized)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeOptimize, "failed to encode plan", err)
		}
		return f.Success(map[string]any{"passes": codes, "plan": doc})
	}

	encoded, err := compiler.Encode(optimized)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeOptimize, "failed to encode plan", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, encoded, "", "  "); err != nil {
		return f.Fail(ExitFailure, ErrCodeOptimize, "failed to encode plan", err)
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(f.Writer)
	return err
}
