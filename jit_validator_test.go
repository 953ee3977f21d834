// jit_validator_test.go - tests for the differential validator

package saturn

import (
	"strings"
	"testing"
)

func TestValidatorPassesForSimpleAdd(t *testing.T) {
	v := NewJITValidator()
	ctx := &SH2Context{PC: 0x1000}
	ctx.R[1], ctx.R[2] = 5, 3
	result := v.ValidateInstruction(InstructionTest{
		Name:    "ADD basic",
		Initial: ctx,
		Program: []uint16{0x312C}, // ADD R2,R1
	})
	if !result.Passed {
		t.Fatalf("expected pass, got diffs=%v err=%v", result.Diffs, result.Err)
	}
}

func TestValidatorPassesForBranchWithDelaySlot(t *testing.T) {
	v := NewJITValidator()
	ctx := &SH2Context{PC: 0x2000, PR: 0x9000}
	result := v.ValidateInstruction(InstructionTest{
		Name:    "RTS+delay",
		Initial: ctx,
		Program: []uint16{0x000B, 0x7001}, // RTS ; delay slot ADD #1,R0
	})
	if !result.Passed {
		t.Fatalf("expected pass, got diffs=%v err=%v", result.Diffs, result.Err)
	}
}

func TestValidatorReportsDiffsWhenForced(t *testing.T) {
	v := NewJITValidator()
	interpCtx := &SH2Context{PC: 0x3000}
	result := v.ValidateInstruction(InstructionTest{
		Name:    "manufactured mismatch",
		Initial: interpCtx,
		Program: []uint16{0x7001}, // ADD #1,R0
	})
	if !result.Passed {
		t.Fatalf("sanity check should pass before mutation: %v", result.Diffs)
	}
	result.JITState.R[0]++
	result.Diffs = result.InterpState.Diff(result.JITState)
	result.Passed = false
	report := v.GenerateReport(result)
	if report == "" {
		t.Fatal("report should not be empty")
	}
	if !strings.Contains(report, "R0") {
		t.Fatalf("report should name the diverged field R0, got %q", report)
	}
}

func TestGenerateAllTestsProducesNonEmptySet(t *testing.T) {
	tests := GenerateAllTests()
	if len(tests) == 0 {
		t.Fatal("expected a non-empty generated test set")
	}
}

func TestValidatorSuiteAllGeneratedTestsPass(t *testing.T) {
	v := NewJITValidator()
	tests := GenerateInstructionTests(SH2SpecByMnemonic("ADD")[0])
	results := v.ValidateSuite(tests)
	if results.Failed != 0 {
		for _, r := range results.Results {
			if !r.Passed {
				t.Logf("%s", v.GenerateReport(r))
			}
		}
		t.Fatalf("%d/%d generated ADD tests failed", results.Failed, len(tests))
	}
}
