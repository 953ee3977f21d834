// mem_flat.go - a flat, bounds-checked SH2Memory backing store
//
// Used wherever code needs an isolated address space that isn't the
// full console memory map: the JIT validator's paired interpreter/JIT
// runs, the test generator's scratch programs, and cmd/jitconform.

package saturn

import "fmt"

// FlatMemory is a single contiguous big-endian byte array implementing
// SH2Memory. Unlike Bus it has no region table: every address maps
// directly into buf, wrapping modulo its length.
type FlatMemory struct {
	buf []byte
}

// NewFlatMemory allocates a zeroed memory of the given size in bytes.
func NewFlatMemory(size int) *FlatMemory {
	if size <= 0 {
		panic(fmt.Sprintf("mem_flat: invalid size %d", size))
	}
	return &FlatMemory{buf: make([]byte, size)}
}

func (m *FlatMemory) wrap(addr uint32) uint32 { return addr % uint32(len(m.buf)) }

// Read8 reads a single byte.
func (m *FlatMemory) Read8(addr uint32) uint8 { return m.buf[m.wrap(addr)] }

// Read16 reads a big-endian 16-bit value.
func (m *FlatMemory) Read16(addr uint32) uint16 {
	a := m.wrap(addr)
	return uint16(m.buf[a])<<8 | uint16(m.buf[(a+1)%uint32(len(m.buf))])
}

// Read32 reads a big-endian 32-bit value.
func (m *FlatMemory) Read32(addr uint32) uint32 {
	hi := uint32(m.Read16(addr))
	lo := uint32(m.Read16(addr + 2))
	return hi<<16 | lo
}

// Write8 writes a single byte.
func (m *FlatMemory) Write8(addr uint32, v uint8) { m.buf[m.wrap(addr)] = v }

// Write16 writes a big-endian 16-bit value.
func (m *FlatMemory) Write16(addr uint32, v uint16) {
	a := m.wrap(addr)
	m.buf[a] = byte(v >> 8)
	m.buf[(a+1)%uint32(len(m.buf))] = byte(v)
}

// Write32 writes a big-endian 32-bit value.
func (m *FlatMemory) Write32(addr uint32, v uint32) {
	m.Write16(addr, uint16(v>>16))
	m.Write16(addr+2, uint16(v))
}

// PutProgram writes words sequentially starting at addr, the layout
// ValidateInstruction and the test generator use to stage a scratch
// instruction stream.
func (m *FlatMemory) PutProgram(addr uint32, words []uint16) {
	for i, w := range words {
		m.Write16(addr+uint32(i*2), w)
	}
}
