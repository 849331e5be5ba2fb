package conformance

import (
	"bytes"
	"errors"
	"fmt"

	monkey "github.com/xirelogy/go-monkey"
	"github.com/xirelogy/go-monkey/internal/compiler"
	"github.com/xirelogy/go-monkey/internal/config"
	"github.com/xirelogy/go-monkey/internal/object"
	"github.com/xirelogy/go-monkey/internal/vm"
)

// TestResult is the outcome of one test case.
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner evaluates test cases, each in a fresh session.
type Runner struct {
	cfg *config.Config
}

func NewRunner() *Runner {
	return NewRunnerWithConfig(config.Default())
}

// NewRunnerWithConfig sizes every session's VM from cfg.
func NewRunnerWithConfig(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg}
}

// Run executes setup and then the test's inputs, checking the last one.
func (r *Runner) Run(test LoadedTest) TestResult {
	result := TestResult{Test: test}
	if skip, reason := test.Test.IsSkipped(); skip {
		result.Skipped = true
		result.SkipReason = reason
		return result
	}

	var out bytes.Buffer
	session := monkey.NewSession(monkey.WithConfig(r.cfg), monkey.WithOutput(&out))
	for _, src := range test.Suite.Setup {
		if _, err := session.Eval(src); err != nil {
			result.Error = fmt.Errorf("setup failed: %w", err)
			return result
		}
	}

	inputs := test.Test.Inputs()
	for _, src := range inputs[:len(inputs)-1] {
		if _, err := session.Eval(src); err != nil {
			result.Error = fmt.Errorf("step %q failed: %w", src, err)
			return result
		}
	}
	value, err := session.Eval(inputs[len(inputs)-1])

	result.Passed, result.Error = checkExpectation(test.Test.Expect, value, err, out.String())
	return result
}

func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, 0, len(tests))
	for _, test := range tests {
		results = append(results, r.Run(test))
	}
	return results
}

// SummaryStats counts results by outcome.
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		if r.Skipped {
			stats.Skipped++
		} else if r.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// FormatStats returns a human-readable summary
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)",
		stats.Passed, stats.Failed, stats.Skipped, stats.Total)
}

func checkExpectation(expect Expectation, value object.Value, err error, output string) (bool, error) {
	if expect.Error != "" {
		want, ok := errorNameToSentinel(expect.Error)
		if !ok {
			return false, fmt.Errorf("unknown error name: %s", expect.Error)
		}
		if err == nil {
			return false, fmt.Errorf("expected error %s, got value: %s", expect.Error, value.Inspect())
		}
		if want == nil {
			var perr *monkey.ParseError
			if !errors.As(err, &perr) {
				return false, fmt.Errorf("expected parse error, got %v", err)
			}
		} else if !errors.Is(err, want) {
			return false, fmt.Errorf("expected error %s, got %v", expect.Error, err)
		}
		return checkOutput(expect, output)
	}

	if err != nil {
		return false, fmt.Errorf("unexpected error: %v", err)
	}
	if expect.Type != "" && value.Type() != expect.Type {
		return false, fmt.Errorf("expected type %s, got %s (%s)", expect.Type, value.Type(), value.Inspect())
	}
	if expect.Value != nil && value.Inspect() != *expect.Value {
		return false, fmt.Errorf("expected %s, got %s", *expect.Value, value.Inspect())
	}
	return checkOutput(expect, output)
}

func checkOutput(expect Expectation, output string) (bool, error) {
	if expect.Output != nil && output != *expect.Output {
		return false, fmt.Errorf("expected output %q, got %q", *expect.Output, output)
	}
	return true, nil
}

// errorNameToSentinel maps suite error names to sentinels. "parse" maps to
// nil and is matched by type instead.
func errorNameToSentinel(name string) (error, bool) {
	switch name {
	case "parse":
		return nil, true
	case "undefined_variable":
		return compiler.ErrUndefinedVariable, true
	case "unknown_operator":
		return compiler.ErrUnknownOperator, true
	case "operand_overflow":
		return compiler.ErrOperandOverflow, true
	case "stack_overflow":
		return vm.ErrStackOverflow, true
	case "frame_overflow":
		return vm.ErrFrameOverflow, true
	case "unsupported_operands":
		return vm.ErrUnsupportedOperands, true
	case "division_by_zero":
		return vm.ErrDivisionByZero, true
	case "unusable_hash_key":
		return vm.ErrUnusableHashKey, true
	case "not_indexable":
		return vm.ErrNotIndexable, true
	case "not_callable":
		return vm.ErrNotCallable, true
	case "wrong_argument_count":
		return vm.ErrWrongArgumentCount, true
	case "instruction_limit":
		return vm.ErrInstructionLimit, true
	}
	return nil, false
}
