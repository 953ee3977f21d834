// backup_ram.go - internal backup RAM and cartridge RAM persistence
// (spec.md §4.10 Backup RAM)
//
// The on-disk .bup file is the hardware source of truth: it is
// memory-mapped directly, so writes the guest makes are durable without
// an explicit flush. A host-visible byte-slice view is refreshed from
// it periodically rather than on every access, matching the
// refresh-every-300-frames-or-on-dirty policy the original frontend
// uses to avoid a syscall on every SRAM-peeking frame.

package saturn

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const (
	backupRAMSize          = 32 * 1024
	backupRAMRefreshFrames = 300
)

// BackupRAM wraps a memory-mapped .bup file plus an optional cartridge
// RAM expansion pack, each independently backed.
type BackupRAM struct {
	file    *os.File
	mapped  []byte
	hostView [backupRAMSize]byte

	dirty           bool
	framesSinceSync int
	firstLoad       bool

	cartridge     []byte
	cartridgePath string
}

// OpenBackupRAM mmaps (creating if necessary) the internal backup RAM
// file at path.
func OpenBackupRAM(path string) (*BackupRAM, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("backup ram: open %s: %w", path, err)
	}
	firstLoad, err := ensureSize(f, backupRAMSize)
	if err != nil {
		f.Close()
		return nil, err
	}
	mapped, err := unix.Mmap(int(f.Fd()), 0, backupRAMSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("backup ram: mmap %s: %w", path, err)
	}
	b := &BackupRAM{file: f, mapped: mapped, firstLoad: firstLoad}
	b.refreshHostView()
	return b, nil
}

func ensureSize(f *os.File, size int64) (created bool, err error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == size {
		return false, nil
	}
	if err := f.Truncate(size); err != nil {
		return false, fmt.Errorf("backup ram: truncate: %w", err)
	}
	return true, nil
}

// Close unmaps and closes the backing file.
func (b *BackupRAM) Close() error {
	var err error
	if b.mapped != nil {
		err = unix.Munmap(b.mapped)
		b.mapped = nil
	}
	if b.file != nil {
		if cerr := b.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Read8 reads a byte directly from the memory-mapped region: reads
// always see the hardware's true current state.
func (b *BackupRAM) Read8(addr uint32) uint8 {
	return b.mapped[addr%backupRAMSize]
}

// Write8 writes a byte directly into the memory-mapped region and
// marks the host view stale.
func (b *BackupRAM) Write8(addr uint32, v uint8) {
	b.mapped[addr%backupRAMSize] = v
	b.dirty = true
}

// Tick advances the once-per-frame refresh counter, copying the mapped
// region into the host-visible view when the dirty flag is set or the
// refresh interval has elapsed.
func (b *BackupRAM) Tick() {
	b.framesSinceSync++
	if b.dirty || b.framesSinceSync >= backupRAMRefreshFrames {
		b.refreshHostView()
	}
}

func (b *BackupRAM) refreshHostView() {
	copy(b.hostView[:], b.mapped)
	b.dirty = false
	b.framesSinceSync = 0
}

// HostView returns the most recently refreshed host-visible snapshot,
// used by GetSRAMData-style frontend queries that shouldn't pay for a
// syscall on every call.
func (b *BackupRAM) HostView() []byte {
	return b.hostView[:]
}

// WasFirstLoad reports whether OpenBackupRAM had to create or resize
// (rather than reuse) the backing file, mirroring m_sramFirstLoad.
// Orchestrator.SetSRAMData clears it.
func (b *BackupRAM) WasFirstLoad() bool { return b.firstLoad }

// LoadCartridgeRAM reads an optional cartridge RAM expansion pack into
// memory (zero-filled when the file does not exist, padded or truncated
// to size). It is a separate file because real cartridge RAM packs are
// battery-backed independently of the console's own backup RAM. The pack
// is not mapped onto the bus, and changes reach the file only through
// SaveCartridgeRAM.
func (b *BackupRAM) LoadCartridgeRAM(path string, size int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("backup ram: cartridge ram %s: %w", path, err)
		}
		data = make([]byte, size)
	}
	if len(data) != size {
		grown := make([]byte, size)
		copy(grown, data)
		data = grown
	}
	b.cartridge = data
	b.cartridgePath = path
	return nil
}

// SaveCartridgeRAM persists the cartridge RAM pack to its path.
func (b *BackupRAM) SaveCartridgeRAM() error {
	if b.cartridge == nil {
		return nil
	}
	return os.WriteFile(b.cartridgePath, b.cartridge, 0o644)
}

// CartridgeRAM exposes the cartridge RAM pack for bus mapping.
func (b *BackupRAM) CartridgeRAM() []byte { return b.cartridge }
