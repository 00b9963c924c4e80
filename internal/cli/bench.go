package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/relq/internal/harness"
)

// BenchOptions holds flags for the bench command.
type BenchOptions struct {
	*RootOptions
	Trials int
}

// BenchResult holds the overall bench result.
type BenchResult struct {
	Benchmarks []*harness.Result `json:"benchmarks"`
	Passed     int               `json:"passed"`
	Failed     int               `json:"failed"`
	Total      int               `json:"total"`
}

// NewBenchCommand creates the bench command.
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BenchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bench <benchmark-file>...",
		Short: "Run optimizer benchmarks",
		Long: `Run benchmark files: each evaluates its plan unoptimized as a baseline,
then times every pass chain it lists and checks that the optimized plan
returns the same rows.

Exit codes:
  0 - All benchmarks matched their baselines
  1 - A test failed or returned different rows
  2 - Command error (unreadable benchmark, bad source, etc.)

Examples:
  relq bench --data-dir ./data benchmarks/projects.yaml
  relq bench --data-dir ./data --trials 20 benchmarks/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Trials, "trials", 0, "timed evaluations per test (overrides benchmark files)")

	return cmd
}

func runBench(opts *BenchOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	if opts.Trials < 0 {
		return f.Fail(ExitCommandError, ErrCodeBenchmark, "--trials must be non-negative", nil)
	}

	benchmarks := make([]*harness.Benchmark, 0, len(paths))
	for _, path := range paths {
		b, err := harness.LoadBenchmark(path)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeBenchmark, "failed to load benchmark", err)
		}
		switch {
		case opts.Trials > 0:
			b.Trials = opts.Trials
		case b.Trials == 0:
			b.Trials = opts.Config.Trials
		}
		benchmarks = append(benchmarks, b)
	}

	src, closeSource, err := openSource(opts.Config)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "failed to open source", err)
	}
	defer func() {
		if closeErr := closeSource(); closeErr != nil {
			slog.Error("error closing source", "error", closeErr)
		}
	}()

	h := harness.New(src, harness.WithLogger(slog.Default()))
	summary := BenchResult{
		Benchmarks: make([]*harness.Result, 0, len(benchmarks)),
		Total:      len(benchmarks),
	}
	for _, b := range benchmarks {
		result, err := h.Run(ctx, b)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeBenchmark, "benchmark failed", err)
		}
		summary.Benchmarks = append(summary.Benchmarks, result)
		if result.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	if f.Format == "json" {
		if err := f.Success(summary); err != nil {
			return err
		}
	} else {
		writeBenchText(f, summary)
	}

	if summary.Failed > 0 {
		exitErr := NewExitError(ExitFailure, fmt.Sprintf("%d benchmark(s) failed", summary.Failed))
		exitErr.Reported = true
		return exitErr
	}
	return nil
}

func writeBenchText(f *OutputFormatter, summary BenchResult) {
	w := f.Writer
	for _, result := range summary.Benchmarks {
		fmt.Fprintf(w, "### %s (run %s) ###\n", result.Benchmark, result.RunID)
		fmt.Fprintf(w, "  baseline: %d row(s) in %s\n", len(result.Baseline.Rows), round(result.Elapsed))
		for _, tr := range result.Tests {
			passes := strings.Join(tr.Passes, ",")
			if passes == "" {
				passes = "-"
			}
			switch {
			case tr.Error != "":
				fmt.Fprintf(w, "✗ %s [%s]: %s\n", tr.Name, passes, tr.Error)
			case !tr.Equivalent:
				fmt.Fprintf(w, "✗ %s [%s]: %d row(s) differ from baseline\n", tr.Name, passes, tr.Rows)
			default:
				fmt.Fprintf(w, "✓ %s [%s]: min %s, mean %s over %d trial(s)\n",
					tr.Name, passes, round(tr.Min), round(tr.Mean), tr.Trials)
			}
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Microsecond)
}
