// smpc.go - System Manager and Peripheral Control emulation
// (spec.md §4.9 SMPC)
//
// Saturn digital pad reports use inverted logic: a bit reads 0 when
// the corresponding button is held, 1 when released. The frontend's
// boolean "is this button down" state is translated through the fixed
// mapping table below before it reaches the guest.

package saturn

import "sync"

// SaturnButton names one bit of the standard Saturn digital pad report.
type SaturnButton uint16

const (
	ButtonUp SaturnButton = 1 << iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonB
	ButtonC
	ButtonA
	ButtonStart
	ButtonZ
	ButtonY
	ButtonX
	ButtonL
	ButtonR
)

// FrontendButton names a host-side input the frontend reports; the
// fixed table below is the only place that maps these onto SaturnButton.
type FrontendButton int

const (
	FrontendUp FrontendButton = iota
	FrontendDown
	FrontendLeft
	FrontendRight
	FrontendSouth
	FrontendEast
	FrontendNorth
	FrontendWest
	FrontendStart
	FrontendL1
	FrontendR1
	FrontendL2
	FrontendR2
)

// frontendToSaturn is the fixed frontend -> Saturn pad mapping
// (spec.md §6): a standard 8-button gamepad layout onto the Saturn's
// A/B/C/X/Y/Z/L/R face and shoulder buttons.
var frontendToSaturn = map[FrontendButton]SaturnButton{
	FrontendUp:    ButtonUp,
	FrontendDown:  ButtonDown,
	FrontendLeft:  ButtonLeft,
	FrontendRight: ButtonRight,
	FrontendSouth: ButtonB,
	FrontendEast:  ButtonA,
	FrontendNorth: ButtonX,
	FrontendWest:  ButtonY,
	FrontendStart: ButtonStart,
	FrontendL1:    ButtonL,
	FrontendR1:    ButtonR,
	FrontendL2:    ButtonZ,
	FrontendR2:    ButtonC,
}

const saturnPadPortCount = 2

// SMPC models the peripheral and RTC controller's host-visible surface:
// per-port button state and the real-time clock snapshot games read on boot.
type SMPC struct {
	mu    sync.Mutex
	ports [saturnPadPortCount]uint16 // raw, inverted-logic digital pad reports

	rtcBCD [7]uint8 // year-100, year, month, day, hour, minute, second (all BCD)
}

// NewSMPC creates an SMPC with every port reporting "nothing held"
// (all bits set, per the inverted-logic convention).
func NewSMPC() *SMPC {
	s := &SMPC{}
	for i := range s.ports {
		s.ports[i] = 0xFFFF
	}
	return s
}

// SetControllerState translates a set of currently-held frontend
// buttons into the port's inverted-logic Saturn pad report.
func (s *SMPC) SetControllerState(port int, held map[FrontendButton]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pressed SaturnButton
	for fb, isHeld := range held {
		if !isHeld {
			continue
		}
		if sb, ok := frontendToSaturn[fb]; ok {
			pressed |= sb
		}
	}
	s.ports[port] = ^uint16(pressed)
}

// PortReport returns port's raw inverted-logic digital pad report, the
// form the CD block/SH-2 firmware reads it in.
func (s *SMPC) PortReport(port int) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ports[port]
}

// SetRTC loads a real-time clock snapshot (BCD-encoded per the SMPC's
// INTBACK command format) that boot ROM code reads once at startup.
func (s *SMPC) SetRTC(yearHundreds, year, month, day, hour, minute, second uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rtcBCD = [7]uint8{yearHundreds, year, month, day, hour, minute, second}
}

// RTC returns the BCD-encoded clock snapshot.
func (s *SMPC) RTC() [7]uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rtcBCD
}
