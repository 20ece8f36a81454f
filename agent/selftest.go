package agent

import (
	"github.com/komandara/k10fabric/fabric/adapter"
	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/periph/simctrl"
	"github.com/komandara/k10fabric/periph/timer"
	"github.com/komandara/k10fabric/periph/uart"
)

// SelfTestMap tells the self-test where the targets live.
type SelfTestMap struct {
	Scratch  uint32
	Timer    uint32
	SimCtrl  uint32
	UART     uint32
	Unmapped []uint32
}

func read(addr uint32) adapter.Request {
	return adapter.Request{Addr: addr}
}

func write(addr, data uint32, mask uint8) adapter.Request {
	return adapter.Request{Write: true, Addr: addr, Data: data, Mask: mask}
}

func ok(req adapter.Request) Step {
	return Step{Request: req, Status: bus.StatusOK}
}

func readBack(addr, data uint32) Step {
	return Step{
		Request:   read(addr),
		Status:    bus.StatusOK,
		CheckData: true,
		Data:      data,
	}
}

func printString(ctrlBase uint32, s string) []adapter.Request {
	reqs := make([]adapter.Request, 0, len(s))
	for i := 0; i < len(s); i++ {
		reqs = append(reqs,
			write(ctrlBase+simctrl.RegCharOut, uint32(s[i]), bus.FullMask))
	}

	return reqs
}

// SelfTest creates the script that checks the memory and the peripherals
// through the fabric. It prints "[PASS]" and finishes with 1 on the sim
// controller, or prints "[FAIL]" and finishes with 0.
func SelfTest(m SelfTestMap) Script {
	s := m.Scratch

	steps := []Step{
		ok(write(s, 0xDEAD_BEEF, bus.FullMask)),
		readBack(s, 0xDEAD_BEEF),
		ok(write(s, 0x0000_1234, 0x3)),
		readBack(s, 0xDEAD_1234),
		ok(write(s+4, 0, bus.FullMask)),
		ok(write(s+4, 0x00AB_0000, 0x4)),
		readBack(s+4, 0x00AB_0000),
		ok(read(m.Timer + timer.RegMTimeLo)),
		ok(write(m.Timer+timer.RegMTimeCmpHi, 0, bus.FullMask)),
		readBack(m.Timer+timer.RegMTimeCmpHi, 0),
		readBack(m.UART+uart.RegStatus, uart.StatusTxReady),
		ok(write(m.UART+uart.RegTxRx, 'K', bus.FullMask)),
		readBack(m.SimCtrl+simctrl.RegStatus, 1),
	}

	for _, addr := range m.Unmapped {
		steps = append(steps,
			Step{Request: read(addr), Status: bus.StatusError},
			Step{Request: write(addr, 0, bus.FullMask), Status: bus.StatusError},
		)
	}

	onPass := append(printString(m.SimCtrl, "[PASS]\n"),
		write(m.SimCtrl+simctrl.RegCtrl, 1, bus.FullMask))
	onFail := append(printString(m.SimCtrl, "[FAIL]\n"),
		write(m.SimCtrl+simctrl.RegCtrl, 0, bus.FullMask))

	return Script{Steps: steps, OnPass: onPass, OnFail: onFail}
}
