package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/relq/internal/engine"
	"github.com/roach88/relq/internal/ir"
	"github.com/roach88/relq/internal/optimizer"
	"github.com/roach88/relq/internal/queryir"
)

// Source serves both relation rows and column discovery.
// store.CSVDir, store.Store and store.Memory implement it.
type Source interface {
	engine.Source
	optimizer.ColumnSource
}

// Harness runs benchmarks against one source.
type Harness struct {
	source Source
	logger *slog.Logger
	newID  func() (uuid.UUID, error)
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger for per-test reports.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// WithRunIDs replaces UUIDv7 run identifiers, for reproducible reports.
func WithRunIDs(newID func() (uuid.UUID, error)) Option {
	return func(h *Harness) {
		h.newID = newID
	}
}

// New creates a Harness reading relations from source.
func New(source Source, opts ...Option) *Harness {
	h := &Harness{
		source: source,
		logger: slog.Default(),
		newID:  uuid.NewV7,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Result is the outcome of a benchmark run.
type Result struct {
	// RunID is a UUIDv7 identifying this run.
	RunID string `json:"run_id"`

	Benchmark string `json:"benchmark"`

	// Baseline is the unoptimized plan's result and evaluation time.
	Baseline *ir.Table    `json:"-"`
	Elapsed  time.Duration `json:"baseline_ns"`

	Tests []TestResult `json:"tests"`

	// Pass is true when every test ran and matched the baseline.
	Pass bool `json:"pass"`

	// Errors holds one message per failed test.
	Errors []string `json:"errors,omitempty"`
}

// TestResult is the outcome of one pass chain.
type TestResult struct {
	Name   string   `json:"name"`
	Passes []string `json:"passes"`

	// Plan is the optimized plan, nil if optimization failed.
	Plan queryir.Plan `json:"-"`

	Trials int           `json:"trials"`
	Min    time.Duration `json:"min_ns"`
	Mean   time.Duration `json:"mean_ns"`

	// Rows is the number of rows of the optimized plan's result.
	Rows int `json:"rows"`

	// Equivalent reports whether the result matched the baseline.
	Equivalent bool `json:"equivalent"`

	Error string `json:"error,omitempty"`
}

// Run executes a benchmark.
//
// Execution flow:
// 1. Decode the plan and evaluate it unoptimized (the baseline)
// 2. For each test, optimize a fresh copy of the plan
// 3. Evaluate the optimized plan Trials times, each on a fresh copy
// 4. Compare the last result with the baseline
//
// A failing test is recorded in the result; Run only returns an error when
// the plan cannot be decoded or the baseline cannot be evaluated.
func (h *Harness) Run(ctx context.Context, b *Benchmark) (*Result, error) {
	id, err := h.newID()
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: run id: %w", b.Name, err)
	}

	plan, err := b.LoadPlan()
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", b.Name, err)
	}

	eng := engine.New(h.source, engine.WithLogger(h.logger))

	start := time.Now()
	baseline, err := eng.Evaluate(ctx, queryir.Clone(plan))
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: baseline: %w", b.Name, err)
	}

	result := &Result{
		RunID:     id.String(),
		Benchmark: b.Name,
		Baseline:  baseline,
		Elapsed:   time.Since(start),
		Tests:     make([]TestResult, 0, len(b.Tests)),
		Pass:      true,
	}

	trials := max(b.Trials, 1)
	for _, test := range b.Tests {
		tr := h.runTest(ctx, eng, plan, baseline, test, trials)
		if tr.Error != "" {
			result.addError(fmt.Sprintf("%s: %s", test.Name, tr.Error))
		} else if !tr.Equivalent {
			result.addError(fmt.Sprintf("%s: result differs from the unoptimized plan", test.Name))
		}

		h.logger.Info("benchmark test",
			"run_id", result.RunID,
			"benchmark", b.Name,
			"test", test.Name,
			"min", tr.Min,
			"mean", tr.Mean,
			"equivalent", tr.Equivalent,
		)
		result.Tests = append(result.Tests, tr)
	}

	return result, nil
}

func (h *Harness) runTest(ctx context.Context, eng *engine.Engine, plan queryir.Plan, baseline *ir.Table, test Test, trials int) TestResult {
	tr := TestResult{
		Name:   test.Name,
		Passes: test.Passes,
		Trials: trials,
	}

	chain, err := optimizer.ParseChain(test.Passes, h.source, optimizer.WithLogger(h.logger))
	if err != nil {
		tr.Error = err.Error()
		return tr
	}
	optimized, err := chain.Optimize(ctx, queryir.Clone(plan))
	if err != nil {
		tr.Error = fmt.Sprintf("optimize: %v", err)
		return tr
	}
	tr.Plan = optimized

	var total time.Duration
	var out *ir.Table
	for i := 0; i < trials; i++ {
		start := time.Now()
		out, err = eng.Evaluate(ctx, queryir.Clone(optimized))
		elapsed := time.Since(start)
		if err != nil {
			tr.Error = fmt.Sprintf("evaluate: %v", err)
			return tr
		}

		total += elapsed
		if i == 0 || elapsed < tr.Min {
			tr.Min = elapsed
		}
	}

	tr.Mean = total / time.Duration(trials)
	tr.Rows = len(out.Rows)
	tr.Equivalent = ir.Equivalent(baseline, out)
	return tr
}

// addError records a failure and marks the run as failed.
func (r *Result) addError(msg string) {
	r.Pass = false
	r.Errors = append(r.Errors, msg)
}
