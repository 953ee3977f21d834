// jit_dispatcher_test.go - tests for the block dispatcher

package saturn

import "testing"

func TestJITDispatcherStepCompilesAndCaches(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x1000, 0x7001) // ADD #1,R0
	mem.putWord(0x1002, 0x000B) // RTS
	mem.putWord(0x1004, 0x0009) // NOP delay slot

	d := NewJITDispatcher(mem)
	ctx := &SH2Context{PC: 0x1000}
	if err := d.Step(ctx); err != nil {
		t.Fatal(err)
	}
	if ctx.R[0] != 1 {
		t.Fatalf("R0=%d, want 1", ctx.R[0])
	}
	if ctx.PC != ctx.PR {
		t.Fatalf("PC=%#x, want return address %#x", ctx.PC, ctx.PR)
	}
	stats := d.CacheStats()
	if stats.BlockCount != 1 {
		t.Fatalf("BlockCount=%d, want 1", stats.BlockCount)
	}
	if stats.Misses != 1 {
		t.Fatalf("Misses=%d, want 1", stats.Misses)
	}
}

func TestJITDispatcherSecondVisitHitsCache(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x2000, 0x0009) // NOP
	mem.putWord(0x2002, 0x000B) // RTS
	mem.putWord(0x2004, 0x0009) // NOP delay slot

	d := NewJITDispatcher(mem)
	ctx := &SH2Context{PC: 0x2000, PR: 0x9000}
	if err := d.Step(ctx); err != nil {
		t.Fatal(err)
	}
	ctx2 := &SH2Context{PC: 0x2000, PR: 0x9000}
	if err := d.Step(ctx2); err != nil {
		t.Fatal(err)
	}
	if d.CacheStats().Hits != 1 {
		t.Fatalf("Hits=%d, want 1", d.CacheStats().Hits)
	}
}

func TestJITDispatcherInvalidateRangeForcesRecompile(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x3000, 0x0009)
	mem.putWord(0x3002, 0x000B)
	mem.putWord(0x3004, 0x0009)

	d := NewJITDispatcher(mem)
	ctx := &SH2Context{PC: 0x3000, PR: 0x9000}
	d.Step(ctx)
	d.InvalidateRange(0x3000, 0x3002)
	if d.CacheStats().BlockCount != 0 {
		t.Fatalf("BlockCount=%d, want 0 after invalidation", d.CacheStats().BlockCount)
	}
}

func TestJITDispatcherFallsBackToInterpreterOnUndecodable(t *testing.T) {
	mem := &testMem{}
	mem.putWord(0x4000, 0xFFFF)

	d := NewJITDispatcher(mem)
	ctx := &SH2Context{PC: 0x4000}
	err := d.Step(ctx)
	if err == nil {
		t.Fatal("expected an unimplemented-opcode error surfaced via the interpreter fallback")
	}
	if _, ok := err.(*ErrUnimplementedOpcode); !ok {
		t.Fatalf("got %T, want *ErrUnimplementedOpcode", err)
	}
}
