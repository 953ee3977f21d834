// savestate.go - opaque full-state serialization (spec.md §4.11 Save State)
//
// Follows the teacher's debug_snapshot.go shape: a fixed magic + version
// header, binary.Write of fixed-width fields in declaration order, then
// gzip-compressed bulk memory. "Opaque" here means the blob has no public
// schema beyond round-tripping through SaveState/LoadState; callers are
// not expected to parse it.

package saturn

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	stateMagic   = "SATN"
	stateVersion = 1
)

// SaveState serializes the full Saturn state: both SH-2 contexts, the
// scheduler's cycle counter, work RAM, and the SCSP/SMPC register state.
// load_state may skip ROM identity checks (spec.md §4.11) — nothing here
// checks BIOS identity at all, by construction.
func (o *Orchestrator) SaveState() ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateUninitialized {
		return nil, fmt.Errorf("save state: orchestrator not initialized")
	}

	var buf bytes.Buffer
	buf.WriteString(stateMagic)
	binary.Write(&buf, binary.LittleEndian, uint32(stateVersion))

	writeContext(&buf, o.masterCtx)
	writeContext(&buf, o.slaveCtx)
	binary.Write(&buf, binary.LittleEndian, o.scheduler.Cycle())

	writeSCSP(&buf, o.scsp)
	writeSMPC(&buf, o.smpc)

	if err := writeCompressed(&buf, o.lowRAM); err != nil {
		return nil, fmt.Errorf("save state: low ram: %w", err)
	}
	if err := writeCompressed(&buf, o.hiRAM); err != nil {
		return nil, fmt.Errorf("save state: hi ram: %w", err)
	}

	return buf.Bytes(), nil
}

// GetStateSize reports the size of a save state taken now. Computed by
// actually serializing once, since the only source of truth for the exact
// byte count is the encoder itself. The RAM blocks are gzip-compressed, so
// the size depends on the current RAM contents and is not fixed per build.
func (o *Orchestrator) GetStateSize() int {
	data, err := o.SaveState()
	if err != nil {
		return 0
	}
	return len(data)
}

// LoadState restores a blob previously produced by SaveState. Valid only
// in GameLoaded (spec.md §4.11).
func (o *Orchestrator) LoadState(data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateGameLoaded {
		return fmt.Errorf("load state: no game loaded")
	}

	r := bytes.NewReader(data)
	magic := make([]byte, len(stateMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("load state: reading magic: %w", err)
	}
	if string(magic) != stateMagic {
		return fmt.Errorf("load state: bad magic %q", magic)
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("load state: reading version: %w", err)
	}
	if version != stateVersion {
		return fmt.Errorf("load state: unsupported version %d", version)
	}

	if err := readContext(r, o.masterCtx); err != nil {
		return fmt.Errorf("load state: master context: %w", err)
	}
	if err := readContext(r, o.slaveCtx); err != nil {
		return fmt.Errorf("load state: slave context: %w", err)
	}
	var cycle uint64
	if err := binary.Read(r, binary.LittleEndian, &cycle); err != nil {
		return fmt.Errorf("load state: cycle: %w", err)
	}
	o.scheduler = NewScheduler()
	o.scheduler.AdvanceBy(cycle)

	if err := readSCSP(r, o.scsp); err != nil {
		return fmt.Errorf("load state: scsp: %w", err)
	}
	if err := readSMPC(r, o.smpc); err != nil {
		return fmt.Errorf("load state: smpc: %w", err)
	}
	if err := readCompressed(r, o.lowRAM); err != nil {
		return fmt.Errorf("load state: low ram: %w", err)
	}
	if err := readCompressed(r, o.hiRAM); err != nil {
		return fmt.Errorf("load state: hi ram: %w", err)
	}

	if o.masterJIT != nil {
		o.masterJIT.cache.Clear()
	}
	if o.slaveJIT != nil {
		o.slaveJIT.cache.Clear()
	}
	return nil
}

func writeContext(buf *bytes.Buffer, ctx *SH2Context) {
	for _, r := range ctx.R {
		binary.Write(buf, binary.LittleEndian, r)
	}
	binary.Write(buf, binary.LittleEndian, ctx.PC)
	binary.Write(buf, binary.LittleEndian, ctx.PR)
	binary.Write(buf, binary.LittleEndian, ctx.GBR)
	binary.Write(buf, binary.LittleEndian, ctx.VBR)
	binary.Write(buf, binary.LittleEndian, ctx.MACH)
	binary.Write(buf, binary.LittleEndian, ctx.MACL)
	binary.Write(buf, binary.LittleEndian, ctx.SR)
	binary.Write(buf, binary.LittleEndian, ctx.Cycles)
	binary.Write(buf, binary.LittleEndian, ctx.InDelaySlot)
	binary.Write(buf, binary.LittleEndian, ctx.DelaySlotPC)
}

func readContext(r io.Reader, ctx *SH2Context) error {
	for i := range ctx.R {
		if err := binary.Read(r, binary.LittleEndian, &ctx.R[i]); err != nil {
			return err
		}
	}
	fields := []any{&ctx.PC, &ctx.PR, &ctx.GBR, &ctx.VBR, &ctx.MACH, &ctx.MACL, &ctx.SR, &ctx.Cycles, &ctx.InDelaySlot, &ctx.DelaySlotPC}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func writeSCSP(buf *bytes.Buffer, s *SCSP) {
	s.mu.Lock()
	defer s.mu.Unlock()
	binary.Write(buf, binary.LittleEndian, s.masterVolume)
	for _, slot := range s.slots {
		binary.Write(buf, binary.LittleEndian, slot.Enabled)
		binary.Write(buf, binary.LittleEndian, slot.Loop)
		binary.Write(buf, binary.LittleEndian, slot.StartAddr)
		binary.Write(buf, binary.LittleEndian, slot.LoopAddr)
		binary.Write(buf, binary.LittleEndian, slot.EndAddr)
		binary.Write(buf, binary.LittleEndian, slot.PitchLFO)
		binary.Write(buf, binary.LittleEndian, slot.Volume)
		binary.Write(buf, binary.LittleEndian, slot.Pan)
		binary.Write(buf, binary.LittleEndian, slot.SampleRate)
		binary.Write(buf, binary.LittleEndian, slot.phase)
	}
}

func readSCSP(r io.Reader, s *SCSP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := binary.Read(r, binary.LittleEndian, &s.masterVolume); err != nil {
		return err
	}
	for i := range s.slots {
		slot := &s.slots[i]
		fields := []any{&slot.Enabled, &slot.Loop, &slot.StartAddr, &slot.LoopAddr, &slot.EndAddr, &slot.PitchLFO, &slot.Volume, &slot.Pan, &slot.SampleRate, &slot.phase}
		for _, f := range fields {
			if err := binary.Read(r, binary.LittleEndian, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSMPC(buf *bytes.Buffer, s *SMPC) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.ports {
		binary.Write(buf, binary.LittleEndian, p)
	}
	buf.Write(s.rtcBCD[:])
}

func readSMPC(r io.Reader, s *SMPC) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.ports {
		if err := binary.Read(r, binary.LittleEndian, &s.ports[i]); err != nil {
			return err
		}
	}
	return binary.Read(r, binary.LittleEndian, &s.rtcBCD)
}

func writeCompressed(buf *bytes.Buffer, data []byte) error {
	binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write(data); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	binary.Write(buf, binary.LittleEndian, uint32(compressed.Len()))
	buf.Write(compressed.Bytes())
	return nil
}

func readCompressed(r io.Reader, dst []byte) error {
	var rawLen, compLen uint32
	if err := binary.Read(r, binary.LittleEndian, &rawLen); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &compLen); err != nil {
		return err
	}
	if int(rawLen) != len(dst) {
		return fmt.Errorf("size mismatch: state has %d bytes, buffer has %d", rawLen, len(dst))
	}
	compressed := make([]byte, compLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return err
	}
	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return err
	}
	defer gz.Close()
	_, err = io.ReadFull(gz, dst)
	return err
}
