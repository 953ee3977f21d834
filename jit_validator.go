// jit_validator.go - differential correctness checker (spec.md §4.5
// JIT Validator)
//
// Runs identical initial state through the interpreter and through the
// IR block executor and reports every field that diverges. This is
// the tool that gives the JIT path any claim to correctness: every
// compiled block either matches the interpreter bit-for-bit or the
// mismatch is surfaced with enough detail to find which translation
// rule in jit_analyzer.go is wrong.

package saturn

import "fmt"

// InstructionTest is one scratch program plus the architectural state
// to run it from.
type InstructionTest struct {
	Name    string
	Initial *SH2Context
	Program []uint16
}

// ValidationResult is the outcome of running a single InstructionTest
// through both execution paths.
type ValidationResult struct {
	Name        string
	Passed      bool
	InterpState *SH2Context
	JITState    *SH2Context
	Diffs       []string
	Err         error
}

// SuiteResults aggregates a batch of ValidationResults.
type SuiteResults struct {
	Results []ValidationResult
	Passed  int
	Failed  int
}

// JITValidator owns the interpreter used as the oracle side of every comparison.
type JITValidator struct {
	interp *SH2Interpreter
}

// NewJITValidator creates a validator.
func NewJITValidator() *JITValidator {
	return &JITValidator{interp: NewSH2Interpreter()}
}

const validatorMemSize = 0x10000

// ValidateInstruction stages test.Program at test.Initial.PC in two
// independent memories, runs one interpreter step against the first and
// one compiled-block execution against the second, and diffs the
// resulting contexts.
func (v *JITValidator) ValidateInstruction(test InstructionTest) ValidationResult {
	interpMem := NewFlatMemory(validatorMemSize)
	interpMem.PutProgram(test.Initial.PC, test.Program)
	interpCtx := test.Initial.Clone()
	interpErr := v.interp.Step(interpCtx, interpMem)

	jitMem := NewFlatMemory(validatorMemSize)
	jitMem.PutProgram(test.Initial.PC, test.Program)
	jitCtx := test.Initial.Clone()
	analyzer := NewBlockAnalyzer(jitMem)
	block := analyzer.Analyze(test.Initial.PC, 0)
	jitErr := ExecuteIR(jitCtx, jitMem, block)

	result := ValidationResult{Name: test.Name, InterpState: interpCtx, JITState: jitCtx}
	switch {
	case interpErr != nil && jitErr != nil:
		result.Passed = true
	case interpErr != nil || jitErr != nil:
		result.Err = fmt.Errorf("interpreter/jit disagreed on error: interp=%v jit=%v", interpErr, jitErr)
	default:
		result.Diffs = interpCtx.Diff(jitCtx)
		result.Passed = len(result.Diffs) == 0
	}
	return result
}

// ValidateSuite runs every test and tallies the outcome.
func (v *JITValidator) ValidateSuite(tests []InstructionTest) SuiteResults {
	var out SuiteResults
	for _, test := range tests {
		r := v.ValidateInstruction(test)
		out.Results = append(out.Results, r)
		if r.Passed {
			out.Passed++
		} else {
			out.Failed++
		}
	}
	return out
}

// GenerateReport renders a human-readable mismatch report for r,
// suitable for cmd/jitconform output.
func (v *JITValidator) GenerateReport(r ValidationResult) string {
	if r.Passed {
		return fmt.Sprintf("PASS %s", r.Name)
	}
	if r.Err != nil {
		return fmt.Sprintf("FAIL %s: %v", r.Name, r.Err)
	}
	s := fmt.Sprintf("FAIL %s: %d field(s) differ:\n", r.Name, len(r.Diffs))
	for _, field := range r.Diffs {
		s += fmt.Sprintf("  %-12s interp=%s jit=%s\n", field, fieldValue(r.InterpState, field), fieldValue(r.JITState, field))
	}
	return s
}

func fieldValue(ctx *SH2Context, field string) string {
	for i, name := range [16]string{"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7", "R8", "R9", "R10", "R11", "R12", "R13", "R14", "R15"} {
		if name == field {
			return fmt.Sprintf("%#08x", ctx.R[i])
		}
	}
	switch field {
	case "PC":
		return fmt.Sprintf("%#08x", ctx.PC)
	case "PR":
		return fmt.Sprintf("%#08x", ctx.PR)
	case "GBR":
		return fmt.Sprintf("%#08x", ctx.GBR)
	case "VBR":
		return fmt.Sprintf("%#08x", ctx.VBR)
	case "MACH":
		return fmt.Sprintf("%#08x", ctx.MACH)
	case "MACL":
		return fmt.Sprintf("%#08x", ctx.MACL)
	case "SR":
		return fmt.Sprintf("%#08x", ctx.SR)
	case "Cycles":
		return fmt.Sprintf("%d", ctx.Cycles)
	case "InDelaySlot":
		return fmt.Sprintf("%v", ctx.InDelaySlot)
	case "DelaySlotPC":
		return fmt.Sprintf("%#08x", ctx.DelaySlotPC)
	}
	return "?"
}
