// sh2_context.go - SH-2 processor context (spec.md §3 Processor Context)

package saturn

// SRFlag indexes a named bit of the SH-2 status register.
type SRFlag uint8

const (
	SRFlagT SRFlag = iota // test/carry
	SRFlagS                // saturation (MAC)
	SRFlagQ                // DIV quotient
	SRFlagM                // DIV dividend sign
	SRFlagIMASK            // 4-bit interrupt mask, not a single bit
)

// SH2Context is the complete, observable architectural state of one SH-2
// core. The core contract (spec.md §3) is that this struct's contents
// after executing instruction i are identical whether the interpreter or
// the JIT executed it.
type SH2Context struct {
	R [16]uint32 // general purpose registers R0-R15
	PC uint32
	PR  uint32
	GBR uint32
	VBR uint32

	MACH uint32
	MACL uint32

	SR uint32 // raw status register; named flags are views over this

	Cycles uint64

	InDelaySlot  bool
	DelaySlotPC  uint32
}

const (
	srBitT     = 1 << 0
	srBitS     = 1 << 1
	srBitQ     = 1 << 8
	srBitM     = 1 << 9
	srIMaskPos = 4
	srIMaskMsk = 0xF
)

// T returns the T (test/carry) bit.
func (c *SH2Context) T() bool { return c.SR&srBitT != 0 }

// SetT sets or clears the T bit.
func (c *SH2Context) SetT(v bool) { c.setBit(srBitT, v) }

// S returns the S (MAC saturation) bit.
func (c *SH2Context) S() bool { return c.SR&srBitS != 0 }

// SetS sets or clears the S bit.
func (c *SH2Context) SetS(v bool) { c.setBit(srBitS, v) }

// Q returns the Q (DIV) bit.
func (c *SH2Context) Q() bool { return c.SR&srBitQ != 0 }

// SetQ sets or clears the Q bit.
func (c *SH2Context) SetQ(v bool) { c.setBit(srBitQ, v) }

// M returns the M (DIV) bit.
func (c *SH2Context) M() bool { return c.SR&srBitM != 0 }

// SetM sets or clears the M bit.
func (c *SH2Context) SetM(v bool) { c.setBit(srBitM, v) }

// IMASK returns the 4-bit interrupt mask.
func (c *SH2Context) IMASK() uint8 { return uint8((c.SR >> srIMaskPos) & srIMaskMsk) }

// SetIMASK sets the 4-bit interrupt mask.
func (c *SH2Context) SetIMASK(v uint8) {
	c.SR = (c.SR &^ (srIMaskMsk << srIMaskPos)) | (uint32(v&srIMaskMsk) << srIMaskPos)
}

func (c *SH2Context) setBit(bit uint32, v bool) {
	if v {
		c.SR |= bit
	} else {
		c.SR &^= bit
	}
}

// Equal reports whether two contexts hold identical observable state,
// used directly by the JIT validator's state comparison (spec.md §4.5).
func (c *SH2Context) Equal(o *SH2Context) bool {
	if c.R != o.R {
		return false
	}
	return c.PC == o.PC && c.PR == o.PR && c.GBR == o.GBR && c.VBR == o.VBR &&
		c.MACH == o.MACH && c.MACL == o.MACL && c.SR == o.SR &&
		c.Cycles == o.Cycles && c.InDelaySlot == o.InDelaySlot && c.DelaySlotPC == o.DelaySlotPC
}

// Diff returns the names of every field that differs between c and o,
// mirroring SH2State::Diff in the original implementation — used to
// build the JIT validator's mismatch report (spec.md §4.5).
func (c *SH2Context) Diff(o *SH2Context) []string {
	var out []string
	for i := range c.R {
		if c.R[i] != o.R[i] {
			out = append(out, regName(i))
		}
	}
	cmp := func(name string, a, b uint32) {
		if a != b {
			out = append(out, name)
		}
	}
	cmp("PC", c.PC, o.PC)
	cmp("PR", c.PR, o.PR)
	cmp("GBR", c.GBR, o.GBR)
	cmp("VBR", c.VBR, o.VBR)
	cmp("MACH", c.MACH, o.MACH)
	cmp("MACL", c.MACL, o.MACL)
	cmp("SR", c.SR, o.SR)
	if c.Cycles != o.Cycles {
		out = append(out, "Cycles")
	}
	if c.InDelaySlot != o.InDelaySlot {
		out = append(out, "InDelaySlot")
	}
	if c.DelaySlotPC != o.DelaySlotPC {
		out = append(out, "DelaySlotPC")
	}
	return out
}

func regName(i int) string {
	names := [16]string{"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7", "R8", "R9", "R10", "R11", "R12", "R13", "R14", "R15"}
	return names[i]
}

// Clone returns a deep copy, used by the JIT validator to run the
// interpreter and the JIT from identical isolated starting states.
func (c *SH2Context) Clone() *SH2Context {
	cp := *c
	return &cp
}
