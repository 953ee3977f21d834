// peripheral.go - controller port model sitting between SMPC and the
// orchestrator's stored button state (spec.md §4.9 SMPC & Peripheral Model)

package saturn

// PeripheralReportFunc is invoked by SMPC whenever the emulated game polls
// a port; it returns the port's current inverted-logic Saturn report.
type PeripheralReportFunc func(port int) uint16

// PeripheralPort models one of the two logical controller slots SMPC polls.
// The orchestrator owns the raw host button mask; the port's callback is
// just SMPC.PortReport bound to that port index, matching the
// register-a-callback shape spec.md §9 describes for callback-based
// producers in a language without first-class closures as methods.
type PeripheralPort struct {
	index    int
	smpc     *SMPC
	attached bool
}

// NewPeripheralPort creates a port bound to index within smpc's two ports.
func NewPeripheralPort(index int, smpc *SMPC) *PeripheralPort {
	return &PeripheralPort{index: index, smpc: smpc, attached: true}
}

// Report returns the current inverted-logic report SMPC would see on poll.
func (p *PeripheralPort) Report() uint16 {
	if !p.attached {
		return 0xFFFF
	}
	return p.smpc.PortReport(p.index)
}

// SetHeld updates which frontend buttons are currently held on this port;
// effective on the next SMPC poll (spec.md §5 ordering guarantee).
func (p *PeripheralPort) SetHeld(held map[FrontendButton]bool) {
	if !p.attached {
		return
	}
	p.smpc.SetControllerState(p.index, held)
}

// Detach marks the port as having no controller connected: Report then
// returns 0xFFFF ("everything released") and SetHeld is ignored. SMPC's
// own stored state for the port is left as it was.
func (p *PeripheralPort) Detach() { p.attached = false }

// Attach marks the port as having a controller connected again.
func (p *PeripheralPort) Attach() { p.attached = true }
