// sh2_interpreter.go - SH-2 reference interpreter (spec.md §4.3)
//
// The interpreter is the oracle for the JIT: for any instruction its
// observable effect (register file, memory writes in order, cycle
// delta) defines correctness (spec.md §4.3, §8 JIT correctness theorem).
// It is always available, and is selected for any opcode the JIT does
// not implement or any block invalidated and not yet recompiled.

package saturn

import "fmt"

// SH2Memory is the narrow memory interface the interpreter and JIT both
// use to read/write the bus, so either can be driven against a fake in
// unit tests without constructing a full Bus.
type SH2Memory interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, v uint8)
	Write16(addr uint32, v uint16)
	Write32(addr uint32, v uint32)
}

// Read8 implements SH2Memory over a Bus.
func (b *Bus) Read8(addr uint32) uint8 { return uint8(b.Read(addr, Width8)) }

// Read16 implements SH2Memory over a Bus.
func (b *Bus) Read16(addr uint32) uint16 { return uint16(b.Read(addr, Width16)) }

// Read32 implements SH2Memory over a Bus.
func (b *Bus) Read32(addr uint32) uint32 { return b.Read(addr, Width32) }

// Write8 implements SH2Memory over a Bus.
func (b *Bus) Write8(addr uint32, v uint8) { b.Write(addr, Width8, uint32(v)) }

// Write16 implements SH2Memory over a Bus.
func (b *Bus) Write16(addr uint32, v uint16) { b.Write(addr, Width16, uint32(v)) }

// Write32 implements SH2Memory over a Bus.
func (b *Bus) Write32(addr uint32, v uint32) { b.Write(addr, Width32, v) }

// SH2Interpreter executes SH-2 instructions against a Context+memory pair
// one at a time, following the specification database exactly.
type SH2Interpreter struct{}

// NewSH2Interpreter creates an interpreter. It is stateless; all mutable
// state lives in the SH2Context passed to Step.
func NewSH2Interpreter() *SH2Interpreter { return &SH2Interpreter{} }

// ErrUnimplementedOpcode is returned by Step when the fetched word does
// not decode to any entry in the specification database.
type ErrUnimplementedOpcode struct {
	Word uint16
	PC   uint32
}

func (e *ErrUnimplementedOpcode) Error() string {
	return fmt.Sprintf("sh2: unimplemented opcode %#04x at pc %#08x", e.Word, e.PC)
}

// Step fetches, decodes and executes exactly one instruction at ctx.PC,
// following delay-slot semantics for branch instructions with a delay
// slot (the delay-slot instruction executes before control transfers).
func (in *SH2Interpreter) Step(ctx *SH2Context, mem SH2Memory) error {
	word := mem.Read16(ctx.PC)
	spec := SH2SpecDecode(word)
	if spec == nil {
		return &ErrUnimplementedOpcode{Word: word, PC: ctx.PC}
	}

	if spec.HasDelaySlot {
		return in.execBranchWithDelaySlot(ctx, mem, spec, word)
	}

	in.execute(ctx, mem, spec, word, ctx.PC)
	if !spec.IsBranch || !branchTaken(ctx, spec) {
		ctx.PC += 2
	}
	ctx.Cycles += uint64(spec.IssueCycles)
	return nil
}

func (in *SH2Interpreter) execBranchWithDelaySlot(ctx *SH2Context, mem SH2Memory, spec *SH2InstructionSpec, word uint16) error {
	target := branchTarget(ctx, spec, word)
	branchPC := ctx.PC

	// Execute branch op first to capture PR for JSR/BSR before the delay
	// slot runs, matching real SH-2 pipeline-visible ordering.
	in.executeBranchOp(ctx, mem, spec, word, branchPC)

	// Delay slot instruction always executes, even when the branch is a
	// function return.
	ctx.InDelaySlot = true
	ctx.DelaySlotPC = branchPC + 2
	dsWord := mem.Read16(ctx.DelaySlotPC)
	dsSpec := SH2SpecDecode(dsWord)
	if dsSpec == nil {
		return &ErrUnimplementedOpcode{Word: dsWord, PC: ctx.DelaySlotPC}
	}
	if dsSpec.HasDelaySlot {
		return fmt.Errorf("sh2: illegal slot instruction %#04x in delay slot at %#08x", dsWord, ctx.DelaySlotPC)
	}
	in.execute(ctx, mem, dsSpec, dsWord, ctx.DelaySlotPC)
	ctx.InDelaySlot = false
	ctx.Cycles += uint64(dsSpec.IssueCycles)

	ctx.PC = target
	ctx.Cycles += uint64(spec.IssueCycles)
	return nil
}

func branchTarget(ctx *SH2Context, spec *SH2InstructionSpec, word uint16) uint32 {
	switch spec.Mnemonic {
	case "BRA", "BSR":
		disp := spec.ExtractImm(word)
		return uint32(int64(ctx.PC) + 4 + int64(disp)*2)
	case "JMP", "JSR":
		rm := spec.ExtractRm(word)
		return ctx.R[rm]
	case "RTS":
		return ctx.PR
	}
	return ctx.PC + 2
}

func (in *SH2Interpreter) executeBranchOp(ctx *SH2Context, mem SH2Memory, spec *SH2InstructionSpec, word uint16, branchPC uint32) {
	switch spec.Mnemonic {
	case "BSR", "JSR":
		ctx.PR = branchPC + 4
	}
}

func branchTaken(ctx *SH2Context, spec *SH2InstructionSpec) bool {
	switch spec.Mnemonic {
	case "BT":
		return ctx.T()
	case "BF":
		return !ctx.T()
	case "TRAPA":
		return true
	}
	return false
}

// execute runs the pseudocode for a single (non-delay-slot-having)
// instruction. pc is the address the word was fetched from — needed by
// BT/BF, which compute their target relative to it without a delay slot.
func (in *SH2Interpreter) execute(ctx *SH2Context, mem SH2Memory, spec *SH2InstructionSpec, word uint16, pc uint32) {
	rn := spec.ExtractRn(word)
	rm := spec.ExtractRm(word)

	switch spec.Mnemonic {
	case "NOP":
	case "SETT":
		ctx.SetT(true)
	case "CLRT":
		ctx.SetT(false)

	case "MOV":
		if spec.Syntax == "MOV Rm,Rn" {
			ctx.R[rn] = ctx.R[rm]
		} else {
			ctx.R[rn] = uint32(spec.ExtractImm(word))
		}

	case "MOV.B":
		if spec.ReadsMemory {
			ctx.R[rn] = uint32(int32(int8(mem.Read8(ctx.R[rm]))))
		} else {
			mem.Write8(ctx.R[rn], uint8(ctx.R[rm]))
		}
	case "MOV.W":
		if spec.ReadsMemory {
			ctx.R[rn] = uint32(int32(int16(mem.Read16(ctx.R[rm]))))
		} else {
			mem.Write16(ctx.R[rn], uint16(ctx.R[rm]))
		}
	case "MOV.L":
		if spec.ReadsMemory {
			ctx.R[rn] = mem.Read32(ctx.R[rm])
		} else {
			mem.Write32(ctx.R[rn], ctx.R[rm])
		}

	case "ADD":
		if spec.Syntax == "ADD Rm,Rn" {
			ctx.R[rn] += ctx.R[rm]
		} else {
			ctx.R[rn] = uint32(int32(ctx.R[rn]) + spec.ExtractImm(word))
		}
	case "ADDC":
		var carry uint32
		if ctx.T() {
			carry = 1
		}
		sum := uint64(ctx.R[rn]) + uint64(ctx.R[rm]) + uint64(carry)
		ctx.R[rn] = uint32(sum)
		ctx.SetT(sum > 0xFFFFFFFF)
	case "ADDV":
		a, b := int32(ctx.R[rn]), int32(ctx.R[rm])
		res := a + b
		overflow := (a >= 0) == (b >= 0) && (res >= 0) != (a >= 0)
		ctx.R[rn] = uint32(res)
		ctx.SetT(overflow)
	case "SUB":
		ctx.R[rn] -= ctx.R[rm]
	case "SUBC":
		var borrow uint64
		if ctx.T() {
			borrow = 1
		}
		diff := uint64(ctx.R[rn]) - uint64(ctx.R[rm]) - borrow
		ctx.SetT(uint64(ctx.R[rn]) < uint64(ctx.R[rm])+borrow)
		ctx.R[rn] = uint32(diff)
	case "SUBV":
		a, b := int32(ctx.R[rn]), int32(ctx.R[rm])
		res := a - b
		overflow := (a >= 0) != (b >= 0) && (res >= 0) != (a >= 0)
		ctx.R[rn] = uint32(res)
		ctx.SetT(overflow)
	case "NEG":
		ctx.R[rn] = uint32(-int32(ctx.R[rm]))
	case "NEGC":
		var borrow uint64
		if ctx.T() {
			borrow = 1
		}
		diff := uint64(0) - uint64(ctx.R[rm]) - borrow
		ctx.SetT(diff > 0xFFFFFFFF)
		ctx.R[rn] = uint32(diff)

	case "AND":
		if spec.Syntax == "AND Rm,Rn" {
			ctx.R[rn] &= ctx.R[rm]
		} else {
			ctx.R[0] &= uint32(spec.ExtractImm(word))
		}
	case "OR":
		if spec.Syntax == "OR Rm,Rn" {
			ctx.R[rn] |= ctx.R[rm]
		} else {
			ctx.R[0] |= uint32(spec.ExtractImm(word))
		}
	case "XOR":
		if spec.Syntax == "XOR Rm,Rn" {
			ctx.R[rn] ^= ctx.R[rm]
		} else {
			ctx.R[0] ^= uint32(spec.ExtractImm(word))
		}
	case "NOT":
		ctx.R[rn] = ^ctx.R[rm]
	case "TST":
		if spec.Syntax == "TST Rm,Rn" {
			ctx.SetT(ctx.R[rn]&ctx.R[rm] == 0)
		} else {
			ctx.SetT(ctx.R[0]&uint32(spec.ExtractImm(word)) == 0)
		}

	case "CMP/EQ":
		if spec.Syntax == "CMP/EQ Rm,Rn" {
			ctx.SetT(ctx.R[rn] == ctx.R[rm])
		} else {
			ctx.SetT(int32(ctx.R[0]) == spec.ExtractImm(word))
		}
	case "CMP/GE":
		ctx.SetT(int32(ctx.R[rn]) >= int32(ctx.R[rm]))
	case "CMP/GT":
		ctx.SetT(int32(ctx.R[rn]) > int32(ctx.R[rm]))
	case "CMP/HI":
		ctx.SetT(ctx.R[rn] > ctx.R[rm])
	case "CMP/HS":
		ctx.SetT(ctx.R[rn] >= ctx.R[rm])
	case "CMP/STR":
		x := ctx.R[rn] ^ ctx.R[rm]
		ctx.SetT(x&0xFF == 0 || x&0xFF00 == 0 || x&0xFF0000 == 0 || x&0xFF000000 == 0)
	case "CMP/PL":
		ctx.SetT(int32(ctx.R[rn]) > 0)
	case "CMP/PZ":
		ctx.SetT(int32(ctx.R[rn]) >= 0)

	case "SHLL":
		ctx.SetT(ctx.R[rn]&0x80000000 != 0)
		ctx.R[rn] <<= 1
	case "SHLR":
		ctx.SetT(ctx.R[rn]&1 != 0)
		ctx.R[rn] >>= 1
	case "SHAL":
		ctx.SetT(ctx.R[rn]&0x80000000 != 0)
		ctx.R[rn] <<= 1
	case "SHAR":
		ctx.SetT(ctx.R[rn]&1 != 0)
		ctx.R[rn] = uint32(int32(ctx.R[rn]) >> 1)
	case "ROTL":
		carry := ctx.R[rn] & 0x80000000
		ctx.R[rn] = ctx.R[rn]<<1 | carry>>31
		ctx.SetT(carry != 0)
	case "ROTR":
		carry := ctx.R[rn] & 1
		ctx.R[rn] = ctx.R[rn]>>1 | carry<<31
		ctx.SetT(carry != 0)
	case "ROTCL":
		var tIn uint32
		if ctx.T() {
			tIn = 1
		}
		carry := ctx.R[rn] & 0x80000000
		ctx.R[rn] = ctx.R[rn]<<1 | tIn
		ctx.SetT(carry != 0)
	case "ROTCR":
		var tIn uint32
		if ctx.T() {
			tIn = 0x80000000
		}
		carry := ctx.R[rn] & 1
		ctx.R[rn] = ctx.R[rn]>>1 | tIn
		ctx.SetT(carry != 0)

	case "BT", "BF":
		if branchTaken(ctx, spec) {
			disp := spec.ExtractImm(word)
			ctx.PC = uint32(int64(pc) + 4 + int64(disp)*2)
		}

	case "TRAPA":
		// Software trap: vectors through VBR; modeled as a no-op transfer
		// of control for the representative subset (no exception table
		// is wired up at interpreter level).
		imm := spec.ExtractImm(word)
		ctx.PC = ctx.VBR + uint32(imm)*4

	default:
		panic(fmt.Sprintf("sh2 interpreter: spec %q has no execution case", spec.Mnemonic))
	}
}
