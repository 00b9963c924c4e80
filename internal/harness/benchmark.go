package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/relq/internal/compiler"
	"github.com/roach88/relq/internal/optimizer"
	"github.com/roach88/relq/internal/queryir"
)

// Benchmark defines a plan and the pass chains to compare on it.
type Benchmark struct {
	// Name identifies the benchmark in reports and golden files.
	Name string `yaml:"name"`

	// Description explains what the benchmark measures.
	Description string `yaml:"description,omitempty"`

	// Plan is the path of a plan document. Relative paths resolve against
	// the benchmark file's directory.
	Plan string `yaml:"plan,omitempty"`

	// Input is an inline plan document. Exactly one of Plan and Input is set.
	Input map[string]any `yaml:"input,omitempty"`

	// Trials is the number of timed evaluations per test. Zero runs one
	// trial unless the caller sets another default.
	Trials int `yaml:"trials,omitempty"`

	// Tests lists the pass chains to run.
	Tests []Test `yaml:"tests"`
}

// Test is one pass chain of a benchmark.
type Test struct {
	Name string `yaml:"name"`

	// Passes lists pass codes in application order. Empty means the plan
	// is evaluated as written.
	Passes []string `yaml:"passes"`
}

// LoadBenchmark reads and parses a benchmark file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadBenchmark(path string) (*Benchmark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read benchmark file: %w", err)
	}

	b, err := ParseBenchmark(data)
	if err != nil {
		return nil, err
	}

	if b.Plan != "" && !filepath.IsAbs(b.Plan) {
		b.Plan = filepath.Join(filepath.Dir(path), b.Plan)
	}
	return b, nil
}

// ParseBenchmark parses benchmark YAML. Plan paths are left as written.
func ParseBenchmark(data []byte) (*Benchmark, error) {
	var b Benchmark
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateBenchmark(&b); err != nil {
		return nil, fmt.Errorf("invalid benchmark: %w", err)
	}
	return &b, nil
}

// LoadPlan decodes the benchmark's plan.
func (b *Benchmark) LoadPlan() (queryir.Plan, error) {
	if b.Plan != "" {
		return compiler.DecodeFile(b.Plan)
	}
	doc, err := json.Marshal(b.Input)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: inline plan: %w", b.Name, err)
	}
	return compiler.Decode(doc)
}

// validateBenchmark checks that required fields are present and valid.
func validateBenchmark(b *Benchmark) error {
	if b.Name == "" {
		return fmt.Errorf("name is required")
	}

	switch {
	case b.Plan == "" && b.Input == nil:
		return fmt.Errorf("one of plan or input is required")
	case b.Plan != "" && b.Input != nil:
		return fmt.Errorf("plan and input are mutually exclusive")
	}

	if b.Trials < 0 {
		return fmt.Errorf("trials must be non-negative")
	}

	if len(b.Tests) == 0 {
		return fmt.Errorf("tests list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(b.Tests))
	for i, test := range b.Tests {
		if test.Name == "" {
			return fmt.Errorf("tests[%d]: name is required", i)
		}
		if seen[test.Name] {
			return fmt.Errorf("tests[%d]: duplicate test name %q", i, test.Name)
		}
		seen[test.Name] = true

		for _, code := range test.Passes {
			if !slices.Contains(optimizer.Codes(), strings.ToUpper(strings.TrimSpace(code))) {
				return fmt.Errorf("tests[%d]: unknown pass %q", i, code)
			}
		}
	}

	return nil
}
