// jit_test_generator.go - synthesizes InstructionTests from the
// specification database (spec.md §4.5 Test Generator)
//
// For every spec row this builds a handful of normal-case, boundary-
// case and flag-sensitive InstructionTests so cmd/jitconform can run
// the validator across the whole database without anyone hand-writing
// a case per mnemonic.

package saturn

// GenerateInstructionTests builds the standard case set for one spec row.
func GenerateInstructionTests(spec *SH2InstructionSpec) []InstructionTest {
	var tests []InstructionTest
	word := spec.Pattern
	addNormalTests(spec, word, &tests)
	addEdgeTests(spec, word, &tests)
	addFlagTests(spec, word, &tests)
	return tests
}

// GenerateAllTests builds the full case set across every database row.
func GenerateAllTests() []InstructionTest {
	var out []InstructionTest
	for _, spec := range SH2SpecAll() {
		out = append(out, GenerateInstructionTests(spec)...)
	}
	return out
}

func baseContext(spec *SH2InstructionSpec, pc uint32) *SH2Context {
	ctx := &SH2Context{PC: pc}
	return ctx
}

func program(spec *SH2InstructionSpec, word uint16) []uint16 {
	if spec.HasDelaySlot {
		return []uint16{word, 0x0009} // NOP in the delay slot
	}
	return []uint16{word}
}

func addNormalTests(spec *SH2InstructionSpec, word uint16, tests *[]InstructionTest) {
	ctx := baseContext(spec, 0x1000)
	if spec.HasRn {
		ctx.R[spec.ExtractRn(word)] = 5
	}
	if spec.HasRm {
		ctx.R[spec.ExtractRm(word)] = 3
	}
	*tests = append(*tests, InstructionTest{
		Name:    spec.Mnemonic + "/normal",
		Initial: ctx,
		Program: program(spec, word),
	})
}

func addEdgeTests(spec *SH2InstructionSpec, word uint16, tests *[]InstructionTest) {
	edgeValues := []uint32{0, 1, 0x7FFFFFFF, 0x80000000, 0xFFFFFFFF}
	for _, v := range edgeValues {
		ctx := baseContext(spec, 0x2000)
		if spec.HasRn {
			ctx.R[spec.ExtractRn(word)] = v
		}
		if spec.HasRm {
			ctx.R[spec.ExtractRm(word)] = v
		}
		*tests = append(*tests, InstructionTest{
			Name:    spec.Mnemonic + "/edge",
			Initial: ctx,
			Program: program(spec, word),
		})
	}
}

func addFlagTests(spec *SH2InstructionSpec, word uint16, tests *[]InstructionTest) {
	if spec.TBit == TBitUnchanged {
		return
	}
	for _, t := range []bool{false, true} {
		ctx := baseContext(spec, 0x3000)
		ctx.SetT(t)
		if spec.HasRn {
			ctx.R[spec.ExtractRn(word)] = 0xFFFFFFFF
		}
		if spec.HasRm {
			ctx.R[spec.ExtractRm(word)] = 1
		}
		*tests = append(*tests, InstructionTest{
			Name:    spec.Mnemonic + "/flag",
			Initial: ctx,
			Program: program(spec, word),
		})
	}
}
