// jit_dispatcher.go - glues the block cache, analyzer and backend into
// one execution entry point (spec.md §4.4 JIT Dispatcher)
//
// Step always executes through ExecuteIR (see jit_ir_exec.go for why);
// Compile still runs on every new block so each cached block carries a
// real native-code artifact (CachedBlock.Code), exercising the backend
// exactly as a fully wired dispatcher would.

package saturn

// JITDispatcher drives SH-2 execution one basic block at a time,
// falling back to the plain interpreter for any PC the analyzer can't
// turn into a non-empty block (e.g. an illegal opcode at entry).
type JITDispatcher struct {
	mem      SH2Memory
	cache    *BlockCache
	analyzer *BlockAnalyzer
	backend  *X64Backend
	interp   *SH2Interpreter
}

// NewJITDispatcher wires a dispatcher over mem with a fresh cache.
func NewJITDispatcher(mem SH2Memory) *JITDispatcher {
	return &JITDispatcher{
		mem:      mem,
		cache:    NewBlockCache(),
		analyzer: NewBlockAnalyzer(mem),
		backend:  NewX64Backend(),
		interp:   NewSH2Interpreter(),
	}
}

// Step executes one basic block worth of SH-2 instructions starting at
// ctx.PC, compiling and caching it first if this is the block's first visit.
func (d *JITDispatcher) Step(ctx *SH2Context) error {
	block := d.cache.Lookup(ctx.PC)
	if block == nil {
		ir := d.analyzer.Analyze(ctx.PC, 0)
		if len(ir.Instrs) == 0 {
			return d.interp.Step(ctx, d.mem)
		}
		block = &CachedBlock{IR: ir}
		if code, err := d.backend.Compile(ir); err == nil {
			block.Code = code
		}
		d.cache.Insert(block)
	}
	block.Metadata.ExecutionCount++
	return ExecuteIR(ctx, d.mem, block.IR)
}

// InvalidateRange drops any cached block overlapping [start,end), for
// when SH-2 code writes into a region it has already compiled. Bus
// writes do not call it.
func (d *JITDispatcher) InvalidateRange(start, end uint32) {
	d.cache.Invalidate(start, end)
}

// CacheStats exposes the block cache's running hit/miss counters.
func (d *JITDispatcher) CacheStats() BlockCacheStats {
	return d.cache.Stats()
}
