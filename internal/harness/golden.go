package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/relq/internal/compiler"
	"github.com/roach88/relq/internal/ir"
)

// Snapshot renders the deterministic part of a result as canonical JSON:
// test names, pass codes, optimized plans, row counts and equivalence.
// Run IDs and timings are omitted.
func Snapshot(result *Result) ([]byte, error) {
	tests := make([]any, len(result.Tests))
	for i, tr := range result.Tests {
		entry := map[string]any{
			"name":       tr.Name,
			"passes":     append([]string{}, tr.Passes...),
			"rows":       tr.Rows,
			"equivalent": tr.Equivalent,
		}
		if tr.Plan != nil {
			doc, err := compiler.Document(tr.Plan)
			if err != nil {
				return nil, err
			}
			entry["plan"] = doc
		}
		if tr.Error != "" {
			entry["error"] = tr.Error
		}
		tests[i] = entry
	}

	snapshot := map[string]any{
		"benchmark": result.Benchmark,
		"pass":      result.Pass,
		"tests":     tests,
	}
	if result.Baseline != nil {
		snapshot["baseline_rows"] = len(result.Baseline.Rows)
	}
	return ir.MarshalCanonical(snapshot)
}

// RunWithGolden runs a benchmark and compares its snapshot against a golden
// file stored in testdata/golden/{benchmark.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the benchmark cannot run.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, h *Harness, b *Benchmark) (*Result, error) {
	t.Helper()

	result, err := h.Run(t.Context(), b)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, b.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a result's snapshot against a golden file without
// re-running the benchmark.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)

	return nil
}
