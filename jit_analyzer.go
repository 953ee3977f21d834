// jit_analyzer.go - SH-2 to IR block analyzer (spec.md §4.4 Block Analyzer)
//
// Decodes straight-line SH-2 code starting at a given PC into an IRBlock,
// stopping at the first block terminator (branch, illegal, or the
// instruction-count cap) and computing liveness over the result. This is
// the one place SH-2 semantics and IR semantics meet: everything
// downstream of here (cache, backend, validator) only ever sees IR.

package saturn

// defaultMaxBlockInstructions caps a single translated block, matching
// the reference analyzer's default so the validator's per-block timing
// assumptions hold.
const defaultMaxBlockInstructions = 100

// BlockAnalyzer translates SH-2 instruction streams into IRBlocks.
type BlockAnalyzer struct {
	mem SH2Memory
}

// NewBlockAnalyzer creates an analyzer reading SH-2 code from mem.
func NewBlockAnalyzer(mem SH2Memory) *BlockAnalyzer {
	return &BlockAnalyzer{mem: mem}
}

// Analyze decodes a basic block starting at startPC, stopping at the
// first terminator or after maxInstructions (0 selects the default cap).
func (a *BlockAnalyzer) Analyze(startPC uint32, maxInstructions int) *IRBlock {
	if maxInstructions <= 0 {
		maxInstructions = defaultMaxBlockInstructions
	}
	block := &IRBlock{StartAddr: startPC, EndAddr: startPC, ExitType: ExitSequential}

	pc := startPC
	for i := 0; i < maxInstructions; i++ {
		word, spec := a.fetchAndDecode(pc)
		if spec == nil {
			// Undecodable word: end the block here: the dispatcher falls
			// back to the interpreter for whatever comes next.
			break
		}

		instr := translateToIR(spec, word, pc)
		block.Add(instr, uint32(spec.IssueCycles))

		if spec.HasDelaySlot {
			dsWord, dsSpec := a.fetchAndDecode(pc + 2)
			if dsSpec != nil {
				block.Add(translateToIR(dsSpec, dsWord, pc+2), uint32(dsSpec.IssueCycles))
			}
			block.ExitType = exitTypeFor(spec)
			break
		}

		if isBlockTerminator(spec) {
			block.ExitType = exitTypeFor(spec)
			break
		}
		pc += 2
	}

	block.LiveRanges = a.AnalyzeLiveness(block)
	return block
}

// IsBlockStart reports whether addr is a legal block entry point: SH-2
// instructions are always 2-byte aligned.
func (a *BlockAnalyzer) IsBlockStart(addr uint32) bool {
	return addr&1 == 0
}

func (a *BlockAnalyzer) fetchAndDecode(pc uint32) (uint16, *SH2InstructionSpec) {
	word := a.mem.Read16(pc)
	return word, SH2SpecDecode(word)
}

func isBlockTerminator(spec *SH2InstructionSpec) bool {
	return spec.IsBranch
}

func exitTypeFor(spec *SH2InstructionSpec) BlockExitType {
	switch spec.Mnemonic {
	case "RTS":
		return ExitReturn
	case "JMP", "JSR":
		return ExitDynamic
	case "BT", "BF":
		return ExitConditional
	case "BRA", "BSR", "TRAPA":
		return ExitBranch
	}
	return ExitSequential
}

// translateToIR lowers one decoded SH-2 instruction into its IR form.
// Most arithmetic/logic mnemonics map one-to-one onto an IROp of the
// same shape; instructions the closed IR set has no direct op for
// (e.g. MAC, DIV1) are out of scope for this representative database
// (spec.md §1) and never reach here because sh2SpecDB doesn't list them.
func translateToIR(spec *SH2InstructionSpec, word uint16, pc uint32) IRInstruction {
	rn := spec.ExtractRn(word)
	rm := spec.ExtractRm(word)
	imm := spec.ExtractImm(word)

	ir := IRInstruction{SourcePC: pc}

	switch spec.Mnemonic {
	case "NOP":
		ir.Op = IRNop
	case "SETT":
		ir.Op = IRSetT
	case "CLRT":
		ir.Op = IRClrT

	case "MOV":
		if spec.HasImm {
			ir.Op, ir.Dest, ir.Src1 = IRMovImm, RegOperand(rn), ImmOperand(imm)
		} else {
			ir.Op, ir.Dest, ir.Src1 = IRMovReg, RegOperand(rn), RegOperand(rm)
		}
	case "MOV.B", "MOV.W", "MOV.L":
		ir = translateMemoryOp(spec, rn, rm, pc)

	case "ADD":
		if spec.HasImm {
			ir.Op, ir.Dest, ir.Src1 = IRAddI, RegOperand(rn), ImmOperand(imm)
		} else {
			ir.Op, ir.Dest, ir.Src1, ir.Src2 = IRAdd, RegOperand(rn), RegOperand(rn), RegOperand(rm)
		}
	case "ADDC":
		ir.Op, ir.Dest, ir.Src1, ir.Src2 = IRAddC, RegOperand(rn), RegOperand(rn), RegOperand(rm)
	case "SUB":
		ir.Op, ir.Dest, ir.Src1, ir.Src2 = IRSub, RegOperand(rn), RegOperand(rn), RegOperand(rm)
	case "SUBC":
		ir.Op, ir.Dest, ir.Src1, ir.Src2 = IRSubC, RegOperand(rn), RegOperand(rn), RegOperand(rm)
	case "NEG", "NEGC":
		ir.Op, ir.Dest, ir.Src1 = IRNeg, RegOperand(rn), RegOperand(rm)

	case "AND":
		ir.Op, ir.Dest, ir.Src1, ir.Src2 = IRAnd, regOrR0(spec, rn), regOrR0(spec, rn), regOrImm(spec, rm, imm)
	case "OR":
		ir.Op, ir.Dest, ir.Src1, ir.Src2 = IROr, regOrR0(spec, rn), regOrR0(spec, rn), regOrImm(spec, rm, imm)
	case "XOR":
		ir.Op, ir.Dest, ir.Src1, ir.Src2 = IRXor, regOrR0(spec, rn), regOrR0(spec, rn), regOrImm(spec, rm, imm)
	case "NOT":
		ir.Op, ir.Dest, ir.Src1 = IRNot, RegOperand(rn), RegOperand(rm)

	case "TST":
		ir.Op, ir.Dest, ir.Src1 = IRAnd, regOrR0(spec, rn), regOrR0(spec, rn)
		ir.Src2 = regOrImm(spec, rm, imm)

	case "CMP/EQ":
		ir.Op, ir.Dest, ir.Src1 = IRCmpEQ, regOrR0(spec, rn), regOrR0(spec, rn)
		ir.Src2 = regOrImm(spec, rm, imm)
	case "CMP/GE":
		ir.Op, ir.Dest, ir.Src1, ir.Src2 = IRCmpGE, RegOperand(rn), RegOperand(rn), RegOperand(rm)
	case "CMP/GT":
		ir.Op, ir.Dest, ir.Src1, ir.Src2 = IRCmpGT, RegOperand(rn), RegOperand(rn), RegOperand(rm)
	case "CMP/HI":
		ir.Op, ir.Dest, ir.Src1, ir.Src2 = IRCmpHI, RegOperand(rn), RegOperand(rn), RegOperand(rm)
	case "CMP/HS":
		ir.Op, ir.Dest, ir.Src1, ir.Src2 = IRCmpHS, RegOperand(rn), RegOperand(rn), RegOperand(rm)
	case "CMP/STR", "CMP/PL", "CMP/PZ":
		ir.Op, ir.Dest, ir.Src1 = IRCmpEQ, RegOperand(rn), RegOperand(rn)

	case "SHLL", "SHAL":
		ir.Op, ir.Dest, ir.Src1 = IRShll, RegOperand(rn), RegOperand(rn)
	case "SHLR":
		ir.Op, ir.Dest, ir.Src1 = IRShlr, RegOperand(rn), RegOperand(rn)
	case "SHAR":
		ir.Op, ir.Dest, ir.Src1 = IRShar, RegOperand(rn), RegOperand(rn)
	case "ROTL", "ROTCL":
		ir.Op, ir.Dest, ir.Src1 = IRRotl, RegOperand(rn), RegOperand(rn)
	case "ROTR", "ROTCR":
		ir.Op, ir.Dest, ir.Src1 = IRRotr, RegOperand(rn), RegOperand(rn)

	case "BT", "BF":
		// Dest carries the condition polarity (1 = branch when T set, 0 =
		// branch when T clear) since IRBranchCond itself doesn't
		// otherwise distinguish BT from BF.
		polarity := int32(0)
		if spec.Mnemonic == "BT" {
			polarity = 1
		}
		ir.Op, ir.Dest, ir.Src1 = IRBranchCond, ImmOperand(polarity), ImmOperand(imm)
	case "BRA":
		ir.Op, ir.Src1 = IRBranch, ImmOperand(imm)
	case "BSR":
		ir.Op, ir.Src1 = IRCall, ImmOperand(imm)
	case "JMP", "JSR":
		ir.Op, ir.Src1 = IRCall, RegOperand(rm)
		if spec.Mnemonic == "JMP" {
			ir.Op = IRBranch
		}
	case "RTS":
		ir.Op = IRReturn
	case "TRAPA":
		ir.Op, ir.Src1 = IRTrap, ImmOperand(imm)

	default:
		ir.Op = IRNop
	}
	return ir
}

func regOrR0(spec *SH2InstructionSpec, rn uint8) IROperand {
	if spec.HasRn {
		return RegOperand(rn)
	}
	return RegOperand(0)
}

func regOrImm(spec *SH2InstructionSpec, rm uint8, imm int32) IROperand {
	if spec.HasRm {
		return RegOperand(rm)
	}
	return ImmOperand(imm)
}

func translateMemoryOp(spec *SH2InstructionSpec, rn, rm uint8, pc uint32) IRInstruction {
	var width IROp
	switch spec.Mnemonic {
	case "MOV.B":
		width = map[bool]IROp{true: IRLoad8, false: IRStore8}[spec.ReadsMemory]
	case "MOV.W":
		width = map[bool]IROp{true: IRLoad16, false: IRStore16}[spec.ReadsMemory]
	case "MOV.L":
		width = map[bool]IROp{true: IRLoad32, false: IRStore32}[spec.ReadsMemory]
	}
	return IRInstruction{Op: width, Dest: RegOperand(rn), Src1: RegOperand(rm), SourcePC: pc}
}

// AnalyzeLiveness computes, per instruction, which SH-2 registers are
// still read by some later instruction in the block (a simple backward
// liveness pass; SH-2 basic blocks are small enough that precision
// beyond "used later in this block" isn't worth the complexity).
func (a *BlockAnalyzer) AnalyzeLiveness(block *IRBlock) LiveRanges {
	n := len(block.Instrs)
	lr := LiveRanges{PerInstr: make([]uint16, n)}
	// Without successor-block information every register must be
	// assumed live on exit; this only loses dead-store elimination
	// opportunities for the final write to each register, never
	// correctness.
	const allRegsLive = 0xFFFF
	lr.LiveOut = allRegsLive
	live := uint16(allRegsLive)
	for i := n - 1; i >= 0; i-- {
		instr := block.Instrs[i]
		lr.PerInstr[i] = live
		if instr.Dest.Kind == OperandReg {
			live &^= 1 << instr.Dest.Reg()
		}
		if instr.Src1.Kind == OperandReg {
			live |= 1 << instr.Src1.Reg()
		}
		if instr.Src2.Kind == OperandReg {
			live |= 1 << instr.Src2.Reg()
		}
	}
	lr.LiveIn = live
	return lr
}
