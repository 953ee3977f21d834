// jit_cache_test.go - tests for the block cache

package saturn

import "testing"

type fakeCode struct{ size int }

func (f *fakeCode) EntryPoint() uintptr { return 0x1000 }
func (f *fakeCode) Size() int           { return f.size }

func TestBlockCacheLookupMissThenHit(t *testing.T) {
	c := NewBlockCache()
	if b := c.Lookup(0x1000); b != nil {
		t.Fatal("expected miss on empty cache")
	}
	block := &CachedBlock{IR: &IRBlock{StartAddr: 0x1000, EndAddr: 0x1008, Instrs: make([]IRInstruction, 4)}, Code: &fakeCode{size: 64}}
	c.Insert(block)
	if b := c.Lookup(0x1000); b == nil {
		t.Fatal("expected hit after insert")
	}
	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("stats=%+v, want 1 hit 1 miss", stats)
	}
	if stats.BlockCount != 1 || stats.TotalInstructions != 4 {
		t.Fatalf("stats=%+v, want 1 block 4 instrs", stats)
	}
}

func TestBlockCacheInvalidateOverlapping(t *testing.T) {
	c := NewBlockCache()
	c.Insert(&CachedBlock{IR: &IRBlock{StartAddr: 0x1000, EndAddr: 0x1006, Instrs: make([]IRInstruction, 3)}})
	c.Insert(&CachedBlock{IR: &IRBlock{StartAddr: 0x2000, EndAddr: 0x2006, Instrs: make([]IRInstruction, 3)}})

	c.Invalidate(0x1002, 0x1004)

	if b := c.Lookup(0x1000); b != nil {
		t.Fatal("overlapping block should have been invalidated")
	}
	if b := c.Lookup(0x2000); b == nil {
		t.Fatal("non-overlapping block should survive invalidation")
	}
	if c.Stats().BlockCount != 1 {
		t.Fatalf("BlockCount=%d, want 1", c.Stats().BlockCount)
	}
}

func TestBlockCacheClearResetsStats(t *testing.T) {
	c := NewBlockCache()
	c.Insert(&CachedBlock{IR: &IRBlock{StartAddr: 0x1000, EndAddr: 0x1002, Instrs: make([]IRInstruction, 1)}})
	c.Clear()
	if c.Stats() != (BlockCacheStats{}) {
		t.Fatalf("stats not reset: %+v", c.Stats())
	}
	if b := c.Lookup(0x1000); b != nil {
		t.Fatal("cache should be empty after Clear")
	}
}
