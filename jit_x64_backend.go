// jit_x64_backend.go - x86-64 native code generator (spec.md §4.4
// x86-64 Backend)
//
// Register allocation is fixed, not graph-colored: SH-2 R0-R4 map onto
// the five callee-saved x86-64 registers RBX and R12-R15 for the lifetime
// of a compiled block; R5-R15 (the SH-2 ones) and everything else have no
// native home. This mirrors the reference X64RegisterAllocator,
// which is deliberately simple because SH-2 blocks are short and the
// validator needs the mapping to be easy to reason about by hand.

package saturn

import "fmt"

// X64Register names a general-purpose x86-64 register by its ModRM/REX
// encoding, matching the reference X64Register enum ordering.
type X64Register uint8

const (
	RAX X64Register = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	NoReg
)

// x64FixedAllocation is the static SH-2-register -> x86-64-register map.
// RBX/R12-R15 are callee-saved under the System V AMD64 ABI, so a
// compiled block can use them across calls without spilling around the
// prologue/epilogue it emits for itself.
var x64FixedAllocation = map[uint8]X64Register{
	0: RBX,
	1: R12,
	2: R13,
	3: R14,
	4: R15,
}

// X64RegisterAllocator answers which native register (if any) holds a
// given SH-2 register for the block currently being compiled.
type X64RegisterAllocator struct {
	inRegister map[uint8]X64Register
}

// NewX64RegisterAllocator builds the allocator with the fixed mapping.
func NewX64RegisterAllocator() *X64RegisterAllocator {
	a := &X64RegisterAllocator{inRegister: make(map[uint8]X64Register)}
	for sh2Reg, x64Reg := range x64FixedAllocation {
		a.inRegister[sh2Reg] = x64Reg
	}
	return a
}

// GetSH2Register returns the native register holding sh2Reg, or NoReg
// if it must be read from the context struct in memory.
func (a *X64RegisterAllocator) GetSH2Register(sh2Reg uint8) X64Register {
	if r, ok := a.inRegister[sh2Reg]; ok {
		return r
	}
	return NoReg
}

// IsInRegister reports whether sh2Reg currently lives in a native register.
func (a *X64RegisterAllocator) IsInRegister(sh2Reg uint8) bool {
	return a.GetSH2Register(sh2Reg) != NoReg
}

// X64CodeGen emits x86-64 machine code into a JITCodeBuffer. Each method
// corresponds to one native instruction form used by Compile below;
// this is not a general-purpose assembler, only the subset the block
// compiler actually needs.
type X64CodeGen struct {
	buf *JITCodeBuffer
}

// NewX64CodeGen wraps buf for instruction emission.
func NewX64CodeGen(buf *JITCodeBuffer) *X64CodeGen { return &X64CodeGen{buf: buf} }

func rex(w bool, r, x, b X64Register) byte {
	var v byte = 0x40
	if w {
		v |= 0x08
	}
	if r >= R8 {
		v |= 0x04
	}
	if x >= R8 {
		v |= 0x02
	}
	if b >= R8 {
		v |= 0x01
	}
	return v
}

func modrm(mod, reg, rm X64Register) byte {
	return 0xC0 | (byte(reg)&7)<<3 | byte(rm)&7
}

// MovRegReg emits `mov dst, src`.
func (g *X64CodeGen) MovRegReg(dst, src X64Register) {
	g.buf.EmitBytes(rex(true, src, NoReg, dst), 0x89, modrm(0xC0, src, dst))
}

// MovRegImm64 emits `movabs dst, imm`.
func (g *X64CodeGen) MovRegImm64(dst X64Register, imm uint64) {
	g.buf.EmitBytes(rex(true, NoReg, NoReg, dst), 0xB8|(byte(dst)&7))
	g.buf.Emit64(imm)
}

// Add emits `add dst, src`.
func (g *X64CodeGen) Add(dst, src X64Register) {
	g.buf.EmitBytes(rex(true, src, NoReg, dst), 0x01, modrm(0xC0, src, dst))
}

// Adc emits `adc dst, src`.
func (g *X64CodeGen) Adc(dst, src X64Register) {
	g.buf.EmitBytes(rex(true, src, NoReg, dst), 0x11, modrm(0xC0, src, dst))
}

// Sub emits `sub dst, src`.
func (g *X64CodeGen) Sub(dst, src X64Register) {
	g.buf.EmitBytes(rex(true, src, NoReg, dst), 0x29, modrm(0xC0, src, dst))
}

// Sbb emits `sbb dst, src`.
func (g *X64CodeGen) Sbb(dst, src X64Register) {
	g.buf.EmitBytes(rex(true, src, NoReg, dst), 0x19, modrm(0xC0, src, dst))
}

// Neg emits `neg dst`.
func (g *X64CodeGen) Neg(dst X64Register) {
	g.buf.EmitBytes(rex(true, NoReg, NoReg, dst), 0xF7, modrm(0xC0, 3, dst))
}

// And emits `and dst, src`.
func (g *X64CodeGen) And(dst, src X64Register) {
	g.buf.EmitBytes(rex(true, src, NoReg, dst), 0x21, modrm(0xC0, src, dst))
}

// Or emits `or dst, src`.
func (g *X64CodeGen) Or(dst, src X64Register) {
	g.buf.EmitBytes(rex(true, src, NoReg, dst), 0x09, modrm(0xC0, src, dst))
}

// Xor emits `xor dst, src`.
func (g *X64CodeGen) Xor(dst, src X64Register) {
	g.buf.EmitBytes(rex(true, src, NoReg, dst), 0x31, modrm(0xC0, src, dst))
}

// Not emits `not dst`.
func (g *X64CodeGen) Not(dst X64Register) {
	g.buf.EmitBytes(rex(true, NoReg, NoReg, dst), 0xF7, modrm(0xC0, 2, dst))
}

// Cmp emits `cmp dst, src`.
func (g *X64CodeGen) Cmp(dst, src X64Register) {
	g.buf.EmitBytes(rex(true, src, NoReg, dst), 0x39, modrm(0xC0, src, dst))
}

// Test emits `test dst, src`.
func (g *X64CodeGen) Test(dst, src X64Register) {
	g.buf.EmitBytes(rex(true, src, NoReg, dst), 0x85, modrm(0xC0, src, dst))
}

// ShlImm8 emits `shl dst, imm8`.
func (g *X64CodeGen) ShlImm8(dst X64Register, imm uint8) {
	g.buf.EmitBytes(rex(true, NoReg, NoReg, dst), 0xC1, modrm(0xC0, 4, dst), imm)
}

// ShrImm8 emits `shr dst, imm8`.
func (g *X64CodeGen) ShrImm8(dst X64Register, imm uint8) {
	g.buf.EmitBytes(rex(true, NoReg, NoReg, dst), 0xC1, modrm(0xC0, 5, dst), imm)
}

// SarImm8 emits `sar dst, imm8`.
func (g *X64CodeGen) SarImm8(dst X64Register, imm uint8) {
	g.buf.EmitBytes(rex(true, NoReg, NoReg, dst), 0xC1, modrm(0xC0, 7, dst), imm)
}

// RolImm8 emits `rol dst, imm8`.
func (g *X64CodeGen) RolImm8(dst X64Register, imm uint8) {
	g.buf.EmitBytes(rex(true, NoReg, NoReg, dst), 0xC1, modrm(0xC0, 0, dst), imm)
}

// RorImm8 emits `ror dst, imm8`.
func (g *X64CodeGen) RorImm8(dst X64Register, imm uint8) {
	g.buf.EmitBytes(rex(true, NoReg, NoReg, dst), 0xC1, modrm(0xC0, 1, dst), imm)
}

// Push emits `push reg`.
func (g *X64CodeGen) Push(reg X64Register) {
	if reg >= R8 {
		g.buf.EmitBytes(0x41, 0x50|(byte(reg)&7))
	} else {
		g.buf.EmitBytes(0x50 | byte(reg))
	}
}

// Pop emits `pop reg`.
func (g *X64CodeGen) Pop(reg X64Register) {
	if reg >= R8 {
		g.buf.EmitBytes(0x41, 0x58|(byte(reg)&7))
	} else {
		g.buf.EmitBytes(0x58 | byte(reg))
	}
}

// Ret emits `ret`.
func (g *X64CodeGen) Ret() { g.buf.EmitBytes(0xC3) }

// Nop emits `nop`.
func (g *X64CodeGen) Nop() { g.buf.EmitBytes(0x90) }

// Int3 emits a breakpoint trap, used by TRAPA until a real SMPC/CD
// exception path exists for compiled code.
func (g *X64CodeGen) Int3() { g.buf.EmitBytes(0xCC) }

// X64Backend compiles IRBlocks into native code using a fixed register
// allocation. The emitted code neither reads nor writes an SH2Context and
// has no memory-access path; memory ops compile to Int3.
type X64Backend struct {
	alloc *X64RegisterAllocator
}

// NewX64Backend creates a backend instance. Backends are stateless
// across compilations; only the allocator's fixed table is reused.
func NewX64Backend() *X64Backend {
	return &X64Backend{alloc: NewX64RegisterAllocator()}
}

// x64CompiledCode implements CompiledCode over a JITCodeBuffer holding
// one compiled block's machine code.
type x64CompiledCode struct {
	buf   *JITCodeBuffer
	entry uintptr
}

func (c *x64CompiledCode) EntryPoint() uintptr { return c.entry }
func (c *x64CompiledCode) Size() int            { return c.buf.Size() }

// Compile translates block into native code and returns the executable
// result: a prologue that saves the x64FixedAllocation registers, one
// lowered sequence per IR instruction, and an epilogue that restores them
// and returns. SH-2 register values are not loaded from or stored to ctx.
func (be *X64Backend) Compile(block *IRBlock) (CompiledCode, error) {
	buf, err := NewJITCodeBuffer()
	if err != nil {
		return nil, fmt.Errorf("x64 backend: %w", err)
	}
	gen := NewX64CodeGen(buf)

	be.emitPrologue(gen)
	for i, instr := range block.Instrs {
		be.compileInstruction(gen, block, i, instr)
	}
	be.emitEpilogue(gen)

	entry, err := buf.MakeExecutable()
	if err != nil {
		buf.Close()
		return nil, fmt.Errorf("x64 backend: %w", err)
	}
	return &x64CompiledCode{buf: buf, entry: entry}, nil
}

// calleeSavedNativeRegs are the native homes of the fixed SH-2
// allocation, pushed/popped around every compiled block.
var calleeSavedNativeRegs = []X64Register{RBX, R12, R13, R14, R15}

// emitPrologue pushes the callee-saved native homes of the fixed SH-2
// allocation; it does not load SH-2 register values into them.
func (be *X64Backend) emitPrologue(gen *X64CodeGen) {
	for _, native := range calleeSavedNativeRegs {
		gen.Push(native)
	}
}

// emitEpilogue restores the callee-saved registers the prologue pushed,
// in reverse order, then returns to the dispatcher.
func (be *X64Backend) emitEpilogue(gen *X64CodeGen) {
	for i := len(calleeSavedNativeRegs) - 1; i >= 0; i-- {
		gen.Pop(calleeSavedNativeRegs[i])
	}
	gen.Ret()
}

// compileInstruction lowers a single IR instruction to native code. Any
// SH-2 register outside the fixed allocation, or any op this
// representative backend doesn't natively compile (memory access,
// branches), compiles to Int3. The dispatcher never calls compiled code:
// it runs every block through ExecuteIR.
func (be *X64Backend) compileInstruction(gen *X64CodeGen, block *IRBlock, index int, instr IRInstruction) {
	dst := be.nativeOf(instr.Dest)
	src := be.nativeOf(instr.Src2)
	if instr.Src2.Kind == OperandNone {
		src = be.nativeOf(instr.Src1)
	}

	switch instr.Op {
	case IRNop:
		gen.Nop()
	case IRAdd:
		if dst != NoReg && src != NoReg {
			gen.Add(dst, src)
		} else {
			gen.Int3()
		}
	case IRAddC:
		if dst != NoReg && src != NoReg {
			gen.Adc(dst, src)
		} else {
			gen.Int3()
		}
	case IRSub:
		if dst != NoReg && src != NoReg {
			gen.Sub(dst, src)
		} else {
			gen.Int3()
		}
	case IRSubC:
		if dst != NoReg && src != NoReg {
			gen.Sbb(dst, src)
		} else {
			gen.Int3()
		}
	case IRAnd:
		if dst != NoReg && src != NoReg {
			gen.And(dst, src)
		} else {
			gen.Int3()
		}
	case IROr:
		if dst != NoReg && src != NoReg {
			gen.Or(dst, src)
		} else {
			gen.Int3()
		}
	case IRXor:
		if dst != NoReg && src != NoReg {
			gen.Xor(dst, src)
		} else {
			gen.Int3()
		}
	case IRNot:
		if dst != NoReg {
			gen.Not(dst)
		} else {
			gen.Int3()
		}
	case IRMovReg:
		s := be.nativeOf(instr.Src1)
		if dst != NoReg && s != NoReg {
			gen.MovRegReg(dst, s)
		} else {
			gen.Int3()
		}
	case IRShll, IRShlr, IRShar, IRRotl, IRRotr:
		be.compileShift(gen, instr.Op, dst)
	default:
		// Memory access, branches and system ops need dispatcher/bus
		// cooperation this minimal backend doesn't model.
		gen.Int3()
	}
}

func (be *X64Backend) compileShift(gen *X64CodeGen, op IROp, dst X64Register) {
	if dst == NoReg {
		gen.Int3()
		return
	}
	switch op {
	case IRShll:
		gen.ShlImm8(dst, 1)
	case IRShlr:
		gen.ShrImm8(dst, 1)
	case IRShar:
		gen.SarImm8(dst, 1)
	case IRRotl:
		gen.RolImm8(dst, 1)
	case IRRotr:
		gen.RorImm8(dst, 1)
	}
}

func (be *X64Backend) nativeOf(op IROperand) X64Register {
	if op.Kind != OperandReg {
		return NoReg
	}
	return be.alloc.GetSH2Register(op.Reg())
}
