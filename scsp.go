// scsp.go - Saturn Custom Sound Processor emulation (spec.md §4.8 SCSP)
//
// Models the 32-slot PCM/FM synthesis engine at the register level the
// rest of the core needs: per-slot sample generation feeding the audio
// ring buffer once per emulated frame. Full SCSP DSP effects processing
// (the 16-step effect microprogram) is out of scope; this produces the
// dry per-slot mix, which is what a frontend actually plays.

package saturn

import "sync"

const scspSlotCount = 32

// SCSPSlotCtrl mirrors one slot's control register block: the fields a
// game actually writes to start/stop/tune a voice.
type SCSPSlotCtrl struct {
	Enabled    bool
	Loop       bool
	StartAddr  uint32
	LoopAddr   uint32
	EndAddr    uint32
	PitchLFO   uint16
	Volume     uint8 // 0-255, linear
	Pan        uint8 // 0 = hard left, 128 = center, 255 = hard right
	SampleRate uint32

	phase uint32 // fixed-point 16.16 playback position within the sample
}

// SCSP is the sound chip's emulated state: slot registers, the PCM
// sample RAM they read from, and the ring buffer frames get pushed into.
type SCSP struct {
	mu      sync.Mutex
	slots   [scspSlotCount]SCSPSlotCtrl
	soundRAM []byte
	ring    *AudioRingBuffer

	masterVolume uint8
	outputRate   uint32
}

// NewSCSP creates a chip with soundRAMSize bytes of sample RAM, draining
// into ring at outputRate samples/sec (the Saturn's SCSP runs its DAC at 44100Hz).
func NewSCSP(soundRAMSize int, ring *AudioRingBuffer, outputRate uint32) *SCSP {
	return &SCSP{
		soundRAM:     make([]byte, soundRAMSize),
		ring:         ring,
		masterVolume: 255,
		outputRate:   outputRate,
	}
}

// SetSlot installs ctrl as slot index's control state.
func (s *SCSP) SetSlot(index int, ctrl SCSPSlotCtrl) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[index] = ctrl
}

// Slot returns a copy of slot index's current control state, used by
// save-state serialization and debug inspection.
func (s *SCSP) Slot(index int) SCSPSlotCtrl {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[index]
}

// SoundRAM exposes the chip's sample RAM for DMA/CPU-mapped access.
func (s *SCSP) SoundRAM() []byte { return s.soundRAM }

// GenerateSamples mixes numFrames stereo frames from every enabled slot
// and pushes them into the ring buffer. Orchestrator.RunFrame calls it
// once per frame with that frame's share of the 44.1 kHz output.
func (s *SCSP) GenerateSamples(numFrames int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int16, numFrames*2)
	for i := range s.slots {
		if !s.slots[i].Enabled {
			continue
		}
		s.mixSlot(&s.slots[i], out, numFrames)
	}
	s.ring.Push(out)
}

func (s *SCSP) mixSlot(slot *SCSPSlotCtrl, out []int16, numFrames int) {
	step := slot.PitchLFO
	if step == 0 {
		step = 1 << 8 // unity rate in 8.8 fixed point when unset
	}
	left, right := panGains(slot.Pan)
	for i := 0; i < numFrames; i++ {
		sampleAddr := slot.StartAddr + slot.phase>>16
		if sampleAddr >= slot.EndAddr {
			if !slot.Loop {
				break
			}
			slot.phase = (slot.LoopAddr - slot.StartAddr) << 16
			sampleAddr = slot.LoopAddr
		}
		raw := int16(0)
		if int(sampleAddr) < len(s.soundRAM)-1 {
			raw = int16(s.soundRAM[sampleAddr]) | int16(s.soundRAM[sampleAddr+1])<<8
		}
		scaled := int32(raw) * int32(slot.Volume) * int32(s.masterVolume) / (255 * 255)

		out[i*2] = clampSample(int32(out[i*2]) + scaled*int32(left)/255)
		out[i*2+1] = clampSample(int32(out[i*2+1]) + scaled*int32(right)/255)

		slot.phase += uint32(step) << 8
	}
}

func panGains(pan uint8) (left, right uint8) {
	if pan < 128 {
		return 255, pan * 2
	}
	return 255 - (pan-128)*2, 255
}

func clampSample(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// SetMasterVolume sets the chip-wide output attenuation (0-255).
func (s *SCSP) SetMasterVolume(v uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterVolume = v
}
