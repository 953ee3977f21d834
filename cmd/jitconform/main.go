// Command jitconform runs the JIT conformance suite (the interpreter-vs-
// compiled-block differential checks in jit_validator.go) and prints a
// pass-rate report. Any number of Lua test scripts (jit_test_script.go)
// can be appended to the generated suite with -script.
package main

import (
	"flag"
	"fmt"
	"os"

	saturn "github.com/zaynotley/brimir-saturn-core"
)

type stringList []string

func (s *stringList) String() string { return fmt.Sprint([]string(*s)) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var scripts stringList
	flag.Var(&scripts, "script", "Lua test script to append to the suite (repeatable)")
	verbose := flag.Bool("v", false, "Print every failing case's diffs")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: jitconform [options]\n\nRuns the JIT differential conformance suite.\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	tests := saturn.GenerateAllTests()
	for _, path := range scripts {
		extra, err := saturn.LoadLuaTestScript(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		tests = append(tests, extra...)
	}

	validator := saturn.NewJITValidator()
	results := validator.ValidateSuite(tests)

	for _, r := range results.Results {
		if r.Passed {
			continue
		}
		fmt.Printf("FAIL %s\n", r.Name)
		if *verbose {
			for _, d := range r.Diffs {
				fmt.Printf("  %s\n", d)
			}
			if r.Err != nil {
				fmt.Printf("  error: %v\n", r.Err)
			}
		}
	}

	total := results.Passed + results.Failed
	rate := 0.0
	if total > 0 {
		rate = float64(results.Passed) / float64(total) * 100
	}
	fmt.Printf("\n%d/%d passed (%.1f%%)\n", results.Passed, total, rate)

	if results.Failed > 0 {
		os.Exit(1)
	}
}
