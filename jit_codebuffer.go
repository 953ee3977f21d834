// jit_codebuffer.go - executable code buffer for compiled blocks
// (spec.md §4.4 x86-64 Backend)
//
// Grows by doubling, like the reference X64CodeBuffer, but backs the
// storage with an anonymous mmap so it can be flipped from writable to
// executable (W^X) instead of carrying NX-bit-violating RWX pages.

package saturn

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const codeBufferInitialSize = 64 * 1024

// JITCodeBuffer is a growable buffer of raw machine code. It is never
// readable, writable and executable at the same time: Emit* calls only
// work while the buffer is in its writable state, and MakeExecutable
// flips it to read+exec before any code in it runs.
type JITCodeBuffer struct {
	mu         sync.Mutex
	mem        []byte
	size       int
	executable bool
}

// NewJITCodeBuffer allocates an anonymous read/write mapping.
func NewJITCodeBuffer() (*JITCodeBuffer, error) {
	mem, err := unix.Mmap(-1, 0, codeBufferInitialSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("jit codebuffer: mmap: %w", err)
	}
	return &JITCodeBuffer{mem: mem}, nil
}

// Close unmaps the underlying pages.
func (b *JITCodeBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mem == nil {
		return nil
	}
	err := unix.Munmap(b.mem)
	b.mem = nil
	return err
}

func (b *JITCodeBuffer) ensureCapacity(extra int) {
	if b.size+extra <= len(b.mem) {
		return
	}
	newCap := len(b.mem) * 2
	for newCap < b.size+extra {
		newCap *= 2
	}
	grown, err := unix.Mmap(-1, 0, newCap, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		panic(fmt.Sprintf("jit codebuffer: grow mmap: %v", err))
	}
	copy(grown, b.mem[:b.size])
	unix.Munmap(b.mem)
	b.mem = grown
	b.executable = false
}

// Emit8 appends a single byte.
func (b *JITCodeBuffer) Emit8(v uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustBeWritable()
	b.ensureCapacity(1)
	b.mem[b.size] = v
	b.size++
}

// EmitBytes appends a sequence of raw bytes, mirroring the reference
// backend's habit of writing whole encoded instructions inline.
func (b *JITCodeBuffer) EmitBytes(bs ...byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustBeWritable()
	b.ensureCapacity(len(bs))
	copy(b.mem[b.size:], bs)
	b.size += len(bs)
}

// Emit32 appends a little-endian 32-bit value (x86-64 immediates and
// rip-relative displacements are always little-endian regardless of
// the big-endian SH-2 data this code manipulates).
func (b *JITCodeBuffer) Emit32(v uint32) {
	b.EmitBytes(byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// Emit64 appends a little-endian 64-bit value.
func (b *JITCodeBuffer) Emit64(v uint64) {
	b.EmitBytes(
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56),
	)
}

// Patch32 overwrites 4 bytes at offset, used to back-patch forward
// branch displacements once a label's address is known.
func (b *JITCodeBuffer) Patch32(offset int, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mem[offset] = byte(v)
	b.mem[offset+1] = byte(v >> 8)
	b.mem[offset+2] = byte(v >> 16)
	b.mem[offset+3] = byte(v >> 24)
}

// Offset returns the current write position, used as a label address
// before it is bound.
func (b *JITCodeBuffer) Offset() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

func (b *JITCodeBuffer) mustBeWritable() {
	if b.executable {
		panic("jit codebuffer: Emit called after MakeExecutable")
	}
}

// MakeExecutable flips the buffer from writable to read+exec and
// returns a pointer to its base, valid until the next Emit call or Close.
func (b *JITCodeBuffer) MakeExecutable() (uintptr, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := unix.Mprotect(b.mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return 0, fmt.Errorf("jit codebuffer: mprotect exec: %w", err)
	}
	b.executable = true
	return uintptr(unsafe.Pointer(&b.mem[0])), nil
}

// MakeWritable flips back to writable so more code can be appended
// (used when a block is extended, e.g. block chaining stubs).
func (b *JITCodeBuffer) MakeWritable() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := unix.Mprotect(b.mem, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return fmt.Errorf("jit codebuffer: mprotect writable: %w", err)
	}
	b.executable = false
	return nil
}

// Size returns the number of bytes written so far.
func (b *JITCodeBuffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}
