package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/relq/internal/queryir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Fused    bool     `json:"fused"`
	Problems []string `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <plan>",
		Short: "Check a plan for structural problems",
		Long: `Decode a plan document and check it for problems that would make
evaluation fail regardless of the data: rename lists of different lengths,
repeated target names, rename chains, empty load sources.

Column existence is not checked; no source is read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, planPath string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	plan, err := decodePlan(f, planPath)
	if err != nil {
		return err
	}

	v := queryir.Validate(plan)
	result := ValidationResult{Valid: v.Valid, Fused: v.Fused, Problems: v.Problems}

	if f.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		w := f.Writer
		if result.Valid {
			fmt.Fprintf(w, "✓ %s is valid\n", planPath)
			if result.Fused {
				fmt.Fprintln(w, "  contains fused nodes; run UNF before PDS or APE")
			}
		} else {
			fmt.Fprintf(w, "✗ %s has %d problem(s):\n", planPath, len(result.Problems))
			for _, p := range result.Problems {
				fmt.Fprintf(w, "  - %s\n", p)
			}
		}
	}

	if !result.Valid {
		exitErr := NewExitError(ExitFailure, "invalid plan")
		exitErr.Reported = true
		return exitErr
	}
	return nil
}
