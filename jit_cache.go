// jit_cache.go - compiled block cache (spec.md §4.4 Block Cache)
//
// Keyed by start address. Invalidate drops every cached block whose
// range overlaps [start,end), for SH-2 programs that self-modify. It is
// reached through JITDispatcher.InvalidateRange; the bus write path does
// not call it.

package saturn

import "sync"

// BlockCacheStats mirrors the reference BlockCache::Stats counters,
// exposed so a host frontend can surface JIT hit-rate diagnostics.
type BlockCacheStats struct {
	BlockCount       int
	TotalInstructions int
	Hits             uint64
	Misses           uint64
}

// CachedBlock pairs a translated IRBlock with the native code the
// backend compiled for it and its execution metadata.
type CachedBlock struct {
	IR       *IRBlock
	Code     CompiledCode
	Metadata BlockMetadata
}

// CompiledCode is the backend-specific executable artifact for a block.
// An x86-64 backend's CompiledCode wraps a pointer into a JITCodeBuffer.
type CompiledCode interface {
	EntryPoint() uintptr
	Size() int
}

// BlockCache maps SH-2 start addresses to compiled blocks.
type BlockCache struct {
	mu     sync.RWMutex
	blocks map[uint32]*CachedBlock
	stats  BlockCacheStats
}

// NewBlockCache creates an empty cache.
func NewBlockCache() *BlockCache {
	return &BlockCache{blocks: make(map[uint32]*CachedBlock)}
}

// Lookup returns the cached block starting at addr, recording a hit or
// miss in the running stats.
func (c *BlockCache) Lookup(addr uint32) *CachedBlock {
	c.mu.RLock()
	b, ok := c.blocks[addr]
	c.mu.RUnlock()

	c.mu.Lock()
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return b
}

// Insert adds or replaces the block starting at block.IR.StartAddr.
func (c *BlockCache) Insert(block *CachedBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.blocks[block.IR.StartAddr]; !exists {
		c.stats.BlockCount++
		c.stats.TotalInstructions += len(block.IR.Instrs)
	}
	c.blocks[block.IR.StartAddr] = block
}

// Invalidate drops every cached block whose [start,end) range overlaps
// [rangeStart,rangeEnd).
func (c *BlockCache) Invalidate(rangeStart, rangeEnd uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for addr, b := range c.blocks {
		if b.IR.StartAddr < rangeEnd && rangeStart < b.IR.EndAddr {
			delete(c.blocks, addr)
			c.stats.BlockCount--
			c.stats.TotalInstructions -= len(b.IR.Instrs)
		}
	}
}

// Clear empties the cache and resets its stats.
func (c *BlockCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks = make(map[uint32]*CachedBlock)
	c.stats = BlockCacheStats{}
}

// Stats returns a snapshot of the cache's running counters.
func (c *BlockCache) Stats() BlockCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
