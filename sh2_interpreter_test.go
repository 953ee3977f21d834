// sh2_interpreter_test.go - tests for the SH-2 reference interpreter

package saturn

import "testing"

// testMem is a flat 64KiB big-endian memory used only to drive the
// interpreter in isolation from the full Bus.
type testMem struct {
	buf [0x10000]byte
}

func (m *testMem) Read8(addr uint32) uint8  { return m.buf[addr&0xFFFF] }
func (m *testMem) Read16(addr uint32) uint16 {
	a := addr & 0xFFFF
	return uint16(m.buf[a])<<8 | uint16(m.buf[a+1])
}
func (m *testMem) Read32(addr uint32) uint32 {
	a := addr & 0xFFFF
	return uint32(m.buf[a])<<24 | uint32(m.buf[a+1])<<16 | uint32(m.buf[a+2])<<8 | uint32(m.buf[a+3])
}
func (m *testMem) Write8(addr uint32, v uint8) { m.buf[addr&0xFFFF] = v }
func (m *testMem) Write16(addr uint32, v uint16) {
	a := addr & 0xFFFF
	m.buf[a] = byte(v >> 8)
	m.buf[a+1] = byte(v)
}
func (m *testMem) Write32(addr uint32, v uint32) {
	a := addr & 0xFFFF
	m.buf[a] = byte(v >> 24)
	m.buf[a+1] = byte(v >> 16)
	m.buf[a+2] = byte(v >> 8)
	m.buf[a+3] = byte(v)
}

func (m *testMem) putWord(addr uint32, word uint16) { m.Write16(addr, word) }

func TestInterpreterADD(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x1000, 0x312C) // ADD R2,R1
	ctx := &SH2Context{PC: 0x1000}
	ctx.R[1] = 5
	ctx.R[2] = 3

	in := NewSH2Interpreter()
	if err := in.Step(ctx, mem); err != nil {
		t.Fatal(err)
	}
	if ctx.R[1] != 8 || ctx.R[2] != 3 {
		t.Fatalf("R1=%d R2=%d, want R1=8 R2=3", ctx.R[1], ctx.R[2])
	}
	if ctx.T() {
		t.Fatal("T should be unchanged (false)")
	}
	if ctx.PC != 0x1002 {
		t.Fatalf("PC=%#x, want %#x", ctx.PC, 0x1002)
	}
	if ctx.Cycles != 1 {
		t.Fatalf("Cycles=%d, want 1", ctx.Cycles)
	}
}

func TestInterpreterADDCCarryOut(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x2000, 0x312E) // ADDC R2,R1
	ctx := &SH2Context{PC: 0x2000}
	ctx.R[1] = 0xFFFFFFFF
	ctx.R[2] = 1

	in := NewSH2Interpreter()
	if err := in.Step(ctx, mem); err != nil {
		t.Fatal(err)
	}
	if ctx.R[1] != 0 {
		t.Fatalf("R1=%#x, want 0", ctx.R[1])
	}
	if !ctx.T() {
		t.Fatal("T should be set on carry out")
	}
}

func TestInterpreterBTNotTaken(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x3000, 0x8905) // BT +0x05*2
	ctx := &SH2Context{PC: 0x3000}
	ctx.SetT(false)

	in := NewSH2Interpreter()
	if err := in.Step(ctx, mem); err != nil {
		t.Fatal(err)
	}
	if ctx.PC != 0x3002 {
		t.Fatalf("PC=%#x, want fallthrough to %#x", ctx.PC, 0x3002)
	}
}

func TestInterpreterBTTaken(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x3000, 0x8905) // BT disp=5 -> target = pc+4+10
	ctx := &SH2Context{PC: 0x3000}
	ctx.SetT(true)

	in := NewSH2Interpreter()
	if err := in.Step(ctx, mem); err != nil {
		t.Fatal(err)
	}
	want := uint32(0x3000 + 4 + 5*2)
	if ctx.PC != want {
		t.Fatalf("PC=%#x, want %#x", ctx.PC, want)
	}
}

func TestInterpreterBRADelaySlotExecutesBeforeJump(t *testing.T) {
	mem := &testMem{}
	// BRA +0 (disp=0 -> target = pc+4), delay slot ADD #1,R0
	mem.putWord(0x4000, 0xA000)
	mem.putWord(0x4002, 0x7001) // ADD #1,R0
	ctx := &SH2Context{PC: 0x4000}

	in := NewSH2Interpreter()
	if err := in.Step(ctx, mem); err != nil {
		t.Fatal(err)
	}
	if ctx.R[0] != 1 {
		t.Fatalf("delay slot did not execute: R0=%d, want 1", ctx.R[0])
	}
	if ctx.PC != 0x4004 {
		t.Fatalf("PC=%#x, want branch target %#x", ctx.PC, 0x4004)
	}
	if ctx.InDelaySlot {
		t.Fatal("InDelaySlot should be cleared after the delay slot instruction runs")
	}
}

func TestInterpreterJSRSetsPRToReturnAddress(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x5000, 0x400B) // JSR @R0
	mem.putWord(0x5002, 0x0009) // NOP delay slot
	ctx := &SH2Context{PC: 0x5000}
	ctx.R[0] = 0x9000

	in := NewSH2Interpreter()
	if err := in.Step(ctx, mem); err != nil {
		t.Fatal(err)
	}
	if ctx.PR != 0x5004 {
		t.Fatalf("PR=%#x, want return address %#x", ctx.PR, 0x5004)
	}
	if ctx.PC != 0x9000 {
		t.Fatalf("PC=%#x, want %#x", ctx.PC, 0x9000)
	}
}

func TestInterpreterMovLoadStoreRoundTrip(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x6000, 0x2102) // MOV.L R0,@R1
	mem.putWord(0x6002, 0x6312) // MOV.L @R1,R3
	ctx := &SH2Context{PC: 0x6000}
	ctx.R[0] = 0xCAFEBABE
	ctx.R[1] = 0x8000

	in := NewSH2Interpreter()
	if err := in.Step(ctx, mem); err != nil {
		t.Fatal(err)
	}
	if err := in.Step(ctx, mem); err != nil {
		t.Fatal(err)
	}
	if ctx.R[3] != 0xCAFEBABE {
		t.Fatalf("R3=%#x, want round-tripped value %#x", ctx.R[3], 0xCAFEBABE)
	}
}

func TestInterpreterUnimplementedOpcodeReturnsError(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x7000, 0xFFFF)
	ctx := &SH2Context{PC: 0x7000}

	in := NewSH2Interpreter()
	err := in.Step(ctx, mem)
	if err == nil {
		t.Fatal("expected an error for an unassigned opcode")
	}
	var target *ErrUnimplementedOpcode
	if _, ok := err.(*ErrUnimplementedOpcode); !ok {
		_ = target
		t.Fatalf("got %T, want *ErrUnimplementedOpcode", err)
	}
}
