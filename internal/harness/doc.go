// Package harness runs optimizer benchmarks.
//
// # Benchmark Format
//
// Benchmarks are YAML (or JSON) files:
//
//	name: projects_by_lead
//	description: "Join projects with their leads"
//	plan: plans/projects_by_lead.json   # or an inline plan document under input:
//	trials: 5
//	tests:
//	  - name: unoptimized
//	    passes: []
//	  - name: default
//	    passes: [UNF, DLC, PDS, APE, FCE]
//
// # Execution
//
// Run evaluates the plan once without optimization; that result is the
// baseline. Each test then optimizes a fresh copy of the plan with its pass
// chain, evaluates the optimized plan trials times, and records the fastest
// and mean durations. A test passes when its result holds the same columns
// and the same multiset of rows as the baseline.
//
// Every run is tagged with a UUIDv7 so reports from repeated runs sort by
// start time.
//
// # Usage
//
//	b, err := harness.LoadBenchmark("testdata/benchmarks/projects.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.New(store.CSVDir{Dir: "data"}).Run(ctx, b)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
