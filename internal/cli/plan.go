package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relq/internal/compiler"
	"github.com/roach88/relq/internal/optimizer"
	"github.com/roach88/relq/internal/queryir"
)

// PlanOptions holds the optimization flags shared by plan commands.
type PlanOptions struct {
	Optimize bool
	Passes   []string
}

func (p *PlanOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&p.Optimize, "optimize", false, "apply the configured pass chain")
	cmd.Flags().StringSliceVar(&p.Passes, "passes", nil, "comma-separated pass codes (implies --optimize)")
}

// codes returns the pass codes to apply, or nil for none.
func (p *PlanOptions) codes(cfg *Config) []string {
	if len(p.Passes) > 0 {
		return p.Passes
	}
	if p.Optimize {
		return cfg.Passes
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	// Use command's context if available (for testing), otherwise create one
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// decodePlan reads a plan document, reporting failures as command errors.
func decodePlan(f *OutputFormatter, path string) (queryir.Plan, error) {
	plan, err := compiler.DecodeFile(path)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeDecode, "failed to decode plan", err)
	}
	f.VerboseLog("Decoded %s plan from %s", queryir.Describe(plan), path)
	return plan, nil
}

// requireValid reports structural problems as a query failure.
func requireValid(f *OutputFormatter, plan queryir.Plan) error {
	result := queryir.Validate(plan)
	if result.Valid {
		return nil
	}
	return f.Fail(ExitFailure, ErrCodeInvalid, "invalid plan: "+strings.Join(result.Problems, "; "), nil)
}

// optimizePlan applies the pass chain named by codes.
func optimizePlan(ctx context.Context, f *OutputFormatter, plan queryir.Plan, codes []string, src optimizer.ColumnSource) (queryir.Plan, error) {
	if len(codes) == 0 {
		return plan, nil
	}
	chain, err := optimizer.ParseChain(codes, src, optimizer.WithLogger(slog.Default()))
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeOptimize, "invalid pass chain", err)
	}
	out, err := chain.Optimize(ctx, plan)
	if err != nil {
		return nil, f.Fail(ExitFailure, ErrCodeOptimize, "optimization failed", err)
	}
	f.VerboseLog("Applied passes %s", strings.Join(codes, ","))
	return out, nil
}
