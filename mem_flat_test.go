// mem_flat_test.go - tests for FlatMemory

package saturn

import "testing"

func TestFlatMemoryBigEndianRoundTrip(t *testing.T) {
	m := NewFlatMemory(0x1000)
	m.Write32(0x10, 0x11223344)
	if got := m.Read32(0x10); got != 0x11223344 {
		t.Fatalf("got %#x want 0x11223344", got)
	}
	if m.buf[0x10] != 0x11 || m.buf[0x13] != 0x44 {
		t.Fatalf("not big-endian: %x", m.buf[0x10:0x14])
	}
}

func TestFlatMemoryPutProgram(t *testing.T) {
	m := NewFlatMemory(0x100)
	m.PutProgram(0x20, []uint16{0x7001, 0x000B, 0x0009})
	if got := m.Read16(0x20); got != 0x7001 {
		t.Fatalf("got %#x want 0x7001", got)
	}
	if got := m.Read16(0x24); got != 0x0009 {
		t.Fatalf("got %#x want 0x0009", got)
	}
}
