// savestate_test.go - round-trip tests for opaque state serialization

package saturn

import (
	"os"
	"path/filepath"
	"testing"
)

func newLoadedOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	dir := t.TempDir()
	discPath := filepath.Join(dir, "game.iso")
	if err := os.WriteFile(discPath, []byte("disc"), 0o644); err != nil {
		t.Fatal(err)
	}
	loader := fakeDiscLoader{sessions: []DiscSession{{Title: "G", Region: 0x01}}}
	o := NewOrchestrator(loader)
	if err := o.Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := o.LoadGame(discPath, dir, dir); err != nil {
		t.Fatal(err)
	}
	return o
}

func TestSaveStateLoadStateRoundTripsContext(t *testing.T) {
	o := newLoadedOrchestrator(t)
	o.masterCtx.R[3] = 0x12345678
	o.masterCtx.PC = 0x06004000
	o.slaveCtx.R[0] = 0xCAFEBABE
	o.lowRAM[10] = 0x42
	o.hiRAM[20] = 0x99

	data, err := o.SaveState()
	if err != nil {
		t.Fatal(err)
	}

	o.masterCtx.R[3] = 0
	o.masterCtx.PC = 0
	o.slaveCtx.R[0] = 0
	o.lowRAM[10] = 0
	o.hiRAM[20] = 0

	if err := o.LoadState(data); err != nil {
		t.Fatal(err)
	}
	if o.masterCtx.R[3] != 0x12345678 || o.masterCtx.PC != 0x06004000 {
		t.Fatalf("master context did not round-trip: %+v", o.masterCtx)
	}
	if o.slaveCtx.R[0] != 0xCAFEBABE {
		t.Fatalf("slave context did not round-trip: %+v", o.slaveCtx)
	}
	if o.lowRAM[10] != 0x42 || o.hiRAM[20] != 0x99 {
		t.Fatal("ram contents did not round-trip")
	}
}

func TestSaveStateRejectsWrongMagic(t *testing.T) {
	o := newLoadedOrchestrator(t)
	if err := o.LoadState([]byte("not a save state")); err == nil {
		t.Fatal("expected an error loading a malformed blob")
	}
}

func TestGetStateSizeIsStableAcrossCalls(t *testing.T) {
	o := newLoadedOrchestrator(t)
	a := o.GetStateSize()
	b := o.GetStateSize()
	if a == 0 || a != b {
		t.Fatalf("expected a stable nonzero size, got %d and %d", a, b)
	}
}

func TestLoadStateRequiresGameLoaded(t *testing.T) {
	o := NewOrchestrator(nil)
	if err := o.Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := o.LoadState([]byte{}); err == nil {
		t.Fatal("expected an error loading state with no game loaded")
	}
}
