package soc

import (
	"github.com/komandara/k10fabric/agent"
	"github.com/komandara/k10fabric/fabric/bus"
)

// SelfTestMap places the self-test on the layout of the Spec. The scratch
// words sit in the middle of the memory. The unmapped addresses are one
// inside the peripheral window that no block owns and one that no target
// owns.
func (s Spec) SelfTestMap() agent.SelfTestMap {
	m := agent.SelfTestMap{
		Scratch: s.Memory.Base + uint32(s.MemorySize()/2),
		Timer:   s.Periph.Timer,
		SimCtrl: s.Periph.SimCtrl,
		UART:    s.Periph.UART,
	}

	if addr, ok := s.unownedPeriphAddr(); ok {
		m.Unmapped = append(m.Unmapped, addr)
	}

	if addr, ok := s.unownedAddr(); ok {
		m.Unmapped = append(m.Unmapped, addr)
	}

	return m
}

func (s Spec) unownedPeriphAddr() (uint32, bool) {
	blockSize := uint64(^s.Periph.SubMask) + 1
	window := s.PeriphRange()
	subs := []bus.AddrRange{s.TimerRange(), s.SimCtrlRange(), s.UARTRange()}

	for addr := uint64(window.Base); addr <= uint64(window.Last()); addr += blockSize {
		if !ownedBy(uint32(addr), subs) {
			return uint32(addr), true
		}
	}

	return 0, false
}

func (s Spec) unownedAddr() (uint32, bool) {
	ranges := []bus.AddrRange{s.MemoryRange(), s.PeriphRange()}

	for _, addr := range []uint32{0x8000_0000, 0xF000_0000, 0x2000_0000} {
		if !ownedBy(addr, ranges) {
			return addr, true
		}
	}

	return 0, false
}

func ownedBy(addr uint32, ranges []bus.AddrRange) bool {
	for _, r := range ranges {
		if r.Contains(addr) {
			return true
		}
	}

	return false
}
