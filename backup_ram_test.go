// backup_ram_test.go - tests for backup RAM persistence

package saturn

import (
	"path/filepath"
	"testing"
)

func TestBackupRAMCreatesAndSizesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.bup")
	b, err := OpenBackupRAM(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if !b.WasFirstLoad() {
		t.Fatal("expected first load on a freshly created file")
	}
}

func TestBackupRAMWriteReadThroughMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.bup")
	b, err := OpenBackupRAM(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	b.Write8(0x10, 0x42)
	if got := b.Read8(0x10); got != 0x42 {
		t.Fatalf("got %#x, want 0x42", got)
	}
}

func TestBackupRAMReopenPreservesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.bup")
	b1, err := OpenBackupRAM(path)
	if err != nil {
		t.Fatal(err)
	}
	b1.Write8(0x100, 0x99)
	b1.Close()

	b2, err := OpenBackupRAM(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b2.Close()
	if b2.WasFirstLoad() {
		t.Fatal("should not report first load on reuse")
	}
	if got := b2.Read8(0x100); got != 0x99 {
		t.Fatalf("got %#x, want 0x99 (data should survive reopen)", got)
	}
}

func TestBackupRAMTickRefreshesHostViewOnDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.bup")
	b, err := OpenBackupRAM(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	b.Write8(0x5, 0xAB)
	b.Tick()
	if b.HostView()[0x5] != 0xAB {
		t.Fatal("host view should refresh after a dirty write + Tick")
	}
}

func TestBackupRAMCartridgeRAMCreatesWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.bup")
	b, err := OpenBackupRAM(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	cartPath := filepath.Join(t.TempDir(), "cart.ram")
	if err := b.LoadCartridgeRAM(cartPath, 1024*1024); err != nil {
		t.Fatal(err)
	}
	if len(b.CartridgeRAM()) != 1024*1024 {
		t.Fatalf("len=%d, want 1MiB", len(b.CartridgeRAM()))
	}
	b.CartridgeRAM()[0] = 0x7F
	if err := b.SaveCartridgeRAM(); err != nil {
		t.Fatal(err)
	}
}
