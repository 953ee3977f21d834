// jit_ir_test.go - tests for the IR operand/block types

package saturn

import "testing"

func TestIROperandRoundTrip(t *testing.T) {
	r := RegOperand(7)
	if r.Kind != OperandReg || r.Reg() != 7 {
		t.Fatalf("got %+v, want reg 7", r)
	}
	imm := ImmOperand(-42)
	if imm.Kind != OperandImm || imm.Imm() != -42 {
		t.Fatalf("got %+v, want imm -42", imm)
	}
	addr := AddrOperand(0x06004000)
	if addr.Kind != OperandAddr || addr.Addr() != 0x06004000 {
		t.Fatalf("got %+v, want addr 0x06004000", addr)
	}
	flag := FlagOperand(SRFlagT)
	if flag.Kind != OperandSRFlag || flag.Flag() != SRFlagT {
		t.Fatalf("got %+v, want flag T", flag)
	}
}

func TestIROpString(t *testing.T) {
	if IRAdd.String() != "ADD" {
		t.Fatalf("got %q, want ADD", IRAdd.String())
	}
	if IROp(255).String() != "UNKNOWN" {
		t.Fatalf("got %q, want UNKNOWN for out-of-range op", IROp(255).String())
	}
}

func TestIRBlockAddAccumulatesEndAddrAndCycles(t *testing.T) {
	b := &IRBlock{StartAddr: 0x1000, EndAddr: 0x1000}
	b.Add(IRInstruction{Op: IRAdd, SourcePC: 0x1000}, 1)
	b.Add(IRInstruction{Op: IRMovImm, SourcePC: 0x1002}, 1)
	if b.EndAddr != 0x1004 {
		t.Fatalf("EndAddr=%#x, want 0x1004", b.EndAddr)
	}
	if b.TotalCycles != 2 {
		t.Fatalf("TotalCycles=%d, want 2", b.TotalCycles)
	}
	if len(b.Instrs) != 2 {
		t.Fatalf("len(Instrs)=%d, want 2", len(b.Instrs))
	}
}

func TestLiveRangesIsLiveFallsBackToLiveOut(t *testing.T) {
	lr := &LiveRanges{LiveOut: 1 << 3}
	if !lr.IsLive(5, 3) {
		t.Fatal("out-of-range index should fall back to LiveOut")
	}
	if lr.IsLive(5, 4) {
		t.Fatal("register 4 is not live in LiveOut")
	}
}

func TestLiveRangesPerInstr(t *testing.T) {
	lr := &LiveRanges{PerInstr: []uint16{1 << 0, 1<<0 | 1<<1}}
	if !lr.IsLive(0, 0) {
		t.Fatal("R0 should be live after instr 0")
	}
	if lr.IsLive(0, 1) {
		t.Fatal("R1 should not be live after instr 0")
	}
	if !lr.IsLive(1, 1) {
		t.Fatal("R1 should be live after instr 1")
	}
}
