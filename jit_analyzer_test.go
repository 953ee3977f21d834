// jit_analyzer_test.go - tests for the block analyzer

package saturn

import "testing"

func TestBlockAnalyzerStopsAtBranch(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x1000, 0x7001) // ADD #1,R0
	mem.putWord(0x1002, 0x7002) // ADD #2,R0
	mem.putWord(0x1004, 0x000B) // RTS
	mem.putWord(0x1006, 0x0009) // NOP (delay slot)
	mem.putWord(0x1008, 0x7003) // ADD #3,R0 (must not be in the block)

	a := NewBlockAnalyzer(mem)
	block := a.Analyze(0x1000, 0)

	if block.StartAddr != 0x1000 {
		t.Fatalf("StartAddr=%#x, want 0x1000", block.StartAddr)
	}
	if block.EndAddr != 0x1008 {
		t.Fatalf("EndAddr=%#x, want 0x1008 (ADD,ADD,RTS,delay-slot-NOP)", block.EndAddr)
	}
	if len(block.Instrs) != 4 {
		t.Fatalf("len(Instrs)=%d, want 4", len(block.Instrs))
	}
	if block.ExitType != ExitReturn {
		t.Fatalf("ExitType=%v, want ExitReturn", block.ExitType)
	}
}

func TestBlockAnalyzerRespectsMaxInstructions(t *testing.T) {
	mem := &testMem{}
	for i := 0; i < 10; i++ {
		mem.putWord(uint32(0x2000+i*2), 0x0009) // NOP
	}
	a := NewBlockAnalyzer(mem)
	block := a.Analyze(0x2000, 5)
	if len(block.Instrs) != 5 {
		t.Fatalf("len(Instrs)=%d, want 5", len(block.Instrs))
	}
}

func TestBlockAnalyzerStopsOnUndecodableWord(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x3000, 0x7001) // ADD #1,R0
	mem.putWord(0x3002, 0xFFFF) // undecodable
	a := NewBlockAnalyzer(mem)
	block := a.Analyze(0x3000, 0)
	if len(block.Instrs) != 1 {
		t.Fatalf("len(Instrs)=%d, want 1", len(block.Instrs))
	}
}

func TestBlockAnalyzerIsBlockStartRequiresAlignment(t *testing.T) {
	a := NewBlockAnalyzer(&testMem{})
	if !a.IsBlockStart(0x1000) {
		t.Fatal("even address should be a valid block start")
	}
	if a.IsBlockStart(0x1001) {
		t.Fatal("odd address should not be a valid block start")
	}
}

func TestAnalyzeLivenessKeepsSourceOperandsLiveOnEntry(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x4000, 0x312C) // ADD R2,R1 (reads R1,R2 writes R1)
	mem.putWord(0x4002, 0x000B) // RTS
	mem.putWord(0x4004, 0x0009) // NOP delay slot
	a := NewBlockAnalyzer(mem)
	block := a.Analyze(0x4000, 0)

	if block.LiveRanges.LiveIn&(1<<1) == 0 {
		t.Fatal("R1 must be live on entry (it's a source operand)")
	}
	if block.LiveRanges.LiveIn&(1<<2) == 0 {
		t.Fatal("R2 must be live on entry")
	}
}
