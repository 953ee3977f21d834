// jit_ir_exec.go - IR block executor (spec.md §4.5 JIT Validator)
//
// Executes a translated IRBlock directly, without going through native
// machine code. This is the second leg of the differential test: the
// validator runs the same instruction window once through
// SH2Interpreter (decode straight from SH-2 words) and once through
// ExecuteIR (decode, translate to IR, execute the IR), so a bug
// introduced anywhere in jit_analyzer.go's translation shows up as a
// mismatch even though no native code is ever jumped into. Invoking the
// x86-64 backend's actual machine code would need an assembly
// trampoline matched to the host calling convention; that isn't
// wired up, so ExecuteIR is the JIT path's reference behavior for now.

package saturn

import "fmt"

// ExecuteIR runs every instruction in block against ctx/mem in order,
// including the block's terminating branch and its delay slot (if any).
// ctx.Cycles advances by the block's TotalCycles, the sum of the issue
// cycles of the SH-2 instructions it was translated from.
func ExecuteIR(ctx *SH2Context, mem SH2Memory, block *IRBlock) error {
	ctx.Cycles += uint64(block.TotalCycles)
	for i := 0; i < len(block.Instrs); i++ {
		instr := block.Instrs[i]
		if isControlTransferOp(instr.Op) {
			return executeIRControlTransfer(ctx, mem, block, i)
		}
		if err := executeIRStraightLine(ctx, mem, instr); err != nil {
			return err
		}
		if instr.Op == IRTrap {
			return nil
		}
	}
	ctx.PC = block.EndAddr
	return nil
}

func isControlTransferOp(op IROp) bool {
	switch op {
	case IRBranch, IRBranchCond, IRCall, IRReturn:
		return true
	}
	return false
}

func irRegOrImm(ctx *SH2Context, op IROperand) uint32 {
	switch op.Kind {
	case OperandReg:
		return ctx.R[op.Reg()]
	case OperandImm:
		return uint32(op.Imm())
	}
	return 0
}

func executeIRStraightLine(ctx *SH2Context, mem SH2Memory, instr IRInstruction) error {
	switch instr.Op {
	case IRNop:
	case IRSetT:
		ctx.SetT(true)
	case IRClrT:
		ctx.SetT(false)

	case IRMovImm:
		ctx.R[instr.Dest.Reg()] = uint32(instr.Src1.Imm())
	case IRMovReg:
		ctx.R[instr.Dest.Reg()] = irRegOrImm(ctx, instr.Src1)

	case IRAdd:
		ctx.R[instr.Dest.Reg()] = irRegOrImm(ctx, instr.Src1) + irRegOrImm(ctx, instr.Src2)
	case IRAddI:
		ctx.R[instr.Dest.Reg()] = uint32(int32(ctx.R[instr.Dest.Reg()]) + instr.Src1.Imm())
	case IRAddC:
		var carry uint64
		if ctx.T() {
			carry = 1
		}
		sum := uint64(irRegOrImm(ctx, instr.Src1)) + uint64(irRegOrImm(ctx, instr.Src2)) + carry
		ctx.R[instr.Dest.Reg()] = uint32(sum)
		ctx.SetT(sum > 0xFFFFFFFF)
	case IRSub:
		ctx.R[instr.Dest.Reg()] = irRegOrImm(ctx, instr.Src1) - irRegOrImm(ctx, instr.Src2)
	case IRSubC:
		a, b := uint64(irRegOrImm(ctx, instr.Src1)), uint64(irRegOrImm(ctx, instr.Src2))
		var borrow uint64
		if ctx.T() {
			borrow = 1
		}
		ctx.SetT(a < b+borrow)
		ctx.R[instr.Dest.Reg()] = uint32(a - b - borrow)
	case IRNeg:
		ctx.R[instr.Dest.Reg()] = uint32(-int32(irRegOrImm(ctx, instr.Src1)))

	case IRAnd:
		ctx.R[instr.Dest.Reg()] = irRegOrImm(ctx, instr.Src1) & irRegOrImm(ctx, instr.Src2)
	case IROr:
		ctx.R[instr.Dest.Reg()] = irRegOrImm(ctx, instr.Src1) | irRegOrImm(ctx, instr.Src2)
	case IRXor:
		ctx.R[instr.Dest.Reg()] = irRegOrImm(ctx, instr.Src1) ^ irRegOrImm(ctx, instr.Src2)
	case IRNot:
		ctx.R[instr.Dest.Reg()] = ^irRegOrImm(ctx, instr.Src1)

	case IRCmpEQ:
		ctx.SetT(irRegOrImm(ctx, instr.Src1) == irRegOrImm(ctx, instr.Src2))
	case IRCmpGE:
		ctx.SetT(int32(irRegOrImm(ctx, instr.Src1)) >= int32(irRegOrImm(ctx, instr.Src2)))
	case IRCmpGT:
		ctx.SetT(int32(irRegOrImm(ctx, instr.Src1)) > int32(irRegOrImm(ctx, instr.Src2)))
	case IRCmpHI:
		ctx.SetT(irRegOrImm(ctx, instr.Src1) > irRegOrImm(ctx, instr.Src2))
	case IRCmpHS:
		ctx.SetT(irRegOrImm(ctx, instr.Src1) >= irRegOrImm(ctx, instr.Src2))

	case IRShll:
		r := instr.Dest.Reg()
		ctx.SetT(ctx.R[r]&0x80000000 != 0)
		ctx.R[r] <<= 1
	case IRShlr:
		r := instr.Dest.Reg()
		ctx.SetT(ctx.R[r]&1 != 0)
		ctx.R[r] >>= 1
	case IRShar:
		r := instr.Dest.Reg()
		ctx.SetT(ctx.R[r]&1 != 0)
		ctx.R[r] = uint32(int32(ctx.R[r]) >> 1)
	case IRRotl:
		r := instr.Dest.Reg()
		carry := ctx.R[r] & 0x80000000
		ctx.R[r] = ctx.R[r]<<1 | carry>>31
		ctx.SetT(carry != 0)
	case IRRotr:
		r := instr.Dest.Reg()
		carry := ctx.R[r] & 1
		ctx.R[r] = ctx.R[r]>>1 | carry<<31
		ctx.SetT(carry != 0)

	case IRLoad8:
		ctx.R[instr.Dest.Reg()] = uint32(int32(int8(mem.Read8(ctx.R[instr.Src1.Reg()]))))
	case IRLoad16:
		ctx.R[instr.Dest.Reg()] = uint32(int32(int16(mem.Read16(ctx.R[instr.Src1.Reg()]))))
	case IRLoad32:
		ctx.R[instr.Dest.Reg()] = mem.Read32(ctx.R[instr.Src1.Reg()])
	case IRStore8:
		mem.Write8(ctx.R[instr.Dest.Reg()], uint8(ctx.R[instr.Src1.Reg()]))
	case IRStore16:
		mem.Write16(ctx.R[instr.Dest.Reg()], uint16(ctx.R[instr.Src1.Reg()]))
	case IRStore32:
		mem.Write32(ctx.R[instr.Dest.Reg()], ctx.R[instr.Src1.Reg()])

	case IRTrap:
		ctx.PC = ctx.VBR + uint32(instr.Src1.Imm())*4

	default:
		return fmt.Errorf("jit ir exec: unhandled straight-line op %s at pc %#08x", instr.Op, instr.SourcePC)
	}
	return nil
}

// executeIRControlTransfer resolves the block's terminating instruction
// (and its delay slot, if the block has one) and leaves ctx.PC pointing
// at the resolved target.
func executeIRControlTransfer(ctx *SH2Context, mem SH2Memory, block *IRBlock, idx int) error {
	instr := block.Instrs[idx]
	hasDelaySlot := block.ExitType == ExitBranch || block.ExitType == ExitDynamic || block.ExitType == ExitReturn

	var target uint32
	taken := true

	switch instr.Op {
	case IRBranch:
		if instr.Src1.Kind == OperandImm {
			target = uint32(int64(instr.SourcePC) + 4 + int64(instr.Src1.Imm())*2)
		} else {
			target = ctx.R[instr.Src1.Reg()]
		}
	case IRCall:
		ctx.PR = instr.SourcePC + 4
		if instr.Src1.Kind == OperandImm {
			target = uint32(int64(instr.SourcePC) + 4 + int64(instr.Src1.Imm())*2)
		} else {
			target = ctx.R[instr.Src1.Reg()]
		}
	case IRReturn:
		target = ctx.PR
	case IRBranchCond:
		wantT := instr.Dest.Imm() == 1
		taken = ctx.T() == wantT
		if taken {
			target = uint32(int64(instr.SourcePC) + 4 + int64(instr.Src1.Imm())*2)
		} else {
			target = instr.SourcePC + 2
		}
	default:
		return fmt.Errorf("jit ir exec: unhandled control-transfer op %s at pc %#08x", instr.Op, instr.SourcePC)
	}

	if hasDelaySlot {
		if idx+1 >= len(block.Instrs) {
			return fmt.Errorf("jit ir exec: block %#08x missing delay slot instruction", block.StartAddr)
		}
		ctx.InDelaySlot = true
		ctx.DelaySlotPC = instr.SourcePC + 2
		if err := executeIRStraightLine(ctx, mem, block.Instrs[idx+1]); err != nil {
			return err
		}
		ctx.InDelaySlot = false
	}

	ctx.PC = target
	return nil
}
