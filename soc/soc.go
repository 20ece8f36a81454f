// Package soc assembles the K10: two initiators, the crossbar, the program
// memory and the peripheral block.
package soc

import (
	"fmt"

	"github.com/komandara/k10fabric/agent"
	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/fabric/subdecoder"
	"github.com/komandara/k10fabric/fabric/xbar"
	"github.com/komandara/k10fabric/periph/memory"
	"github.com/komandara/k10fabric/periph/simctrl"
	"github.com/komandara/k10fabric/periph/target"
	"github.com/komandara/k10fabric/periph/timer"
	"github.com/komandara/k10fabric/periph/uart"
	"github.com/komandara/k10fabric/sim"
	"github.com/komandara/k10fabric/tracing"
)

// Initiator indices on the crossbar.
const (
	IFetch = 0
	Data   = 1

	numInitiators = 2
)

// Target indices on the crossbar.
const (
	TargetMemory = 0
	TargetPeriph = 1
)

// Outcome is how a run ended.
type Outcome int

// The outcomes.
const (
	OutcomeRunning Outcome = iota
	OutcomePass
	OutcomeFail
	OutcomeTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "RUNNING"
	case OutcomePass:
		return "PASS"
	case OutcomeFail:
		return "FAIL"
	case OutcomeTimeout:
		return "TIMEOUT"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// A SoC steps the whole system one clock cycle at a time.
//
// Each cycle the initiators drive the crossbar, the crossbar drives every
// target, and then every element commits. While reset is held nothing is
// driven and every element is returned to idle. Reset is held for the first
// cycles after the SoC is built.
type SoC struct {
	*sim.TickingComponent

	spec Spec

	ports  []*agent.Port
	xbar   *xbar.Crossbar
	periph *subdecoder.SubDecoder

	mem     *memory.Storage
	timer   *timer.Timer
	simCtrl *simctrl.Controller
	uart    *uart.UART

	endpoints []*target.Endpoint

	fwd       []bus.Forward
	cycle     uint64
	resetHeld bool
	resetLeft int
}

// Spec returns the configuration of the SoC.
func (s *SoC) Spec() Spec {
	return s.spec
}

// Cycle returns the number of cycles stepped so far.
func (s *SoC) Cycle() uint64 {
	return s.cycle
}

// Port returns the port of initiator i.
func (s *SoC) Port(i int) *agent.Port {
	return s.ports[i]
}

// Crossbar returns the crossbar.
func (s *SoC) Crossbar() *xbar.Crossbar {
	return s.xbar
}

// Memory returns the program memory.
func (s *SoC) Memory() *memory.Storage {
	return s.mem
}

// Timer returns the timer.
func (s *SoC) Timer() *timer.Timer {
	return s.timer
}

// SimCtrl returns the sim controller.
func (s *SoC) SimCtrl() *simctrl.Controller {
	return s.simCtrl
}

// UART returns the UART.
func (s *SoC) UART() *uart.UART {
	return s.uart
}

// Endpoints returns the target endpoints in front of the memory and the
// peripherals.
func (s *SoC) Endpoints() []*target.Endpoint {
	return s.endpoints
}

// Hookables returns every element that accepts tracing hooks.
func (s *SoC) Hookables() []tracing.NamedHookable {
	var list []tracing.NamedHookable

	for _, p := range s.ports {
		list = append(list, p.Adapter())
	}

	for _, e := range s.endpoints {
		list = append(list, e)
	}

	return list
}

// InReset tells if reset is held in the next cycle.
func (s *SoC) InReset() bool {
	return s.resetHeld || s.resetLeft > 0
}

// Reset holds or releases reset. Releasing it does not cut short the reset
// cycles after build.
func (s *SoC) Reset(hold bool) {
	s.resetHeld = hold
}

// Step advances one cycle.
func (s *SoC) Step() {
	defer func() { s.cycle++ }()

	if s.InReset() {
		s.resetAll()

		if s.resetLeft > 0 {
			s.resetLeft--
		}

		return
	}

	for i, p := range s.ports {
		s.fwd[i] = p.Drive()
	}

	back := s.xbar.Eval(s.fwd)

	for i, p := range s.ports {
		p.Complete(back[i])
	}

	for _, p := range s.ports {
		p.Commit()
	}

	s.xbar.Commit()
}

func (s *SoC) resetAll() {
	for _, p := range s.ports {
		p.Reset()
	}

	s.xbar.Reset()
}

// Idle tells if all the agents are done and nothing is in flight.
func (s *SoC) Idle() bool {
	for _, p := range s.ports {
		if !p.Idle() {
			return false
		}
	}

	for t := 0; t < s.xbar.NumTargets(); t++ {
		if s.xbar.Outstanding(t) > 0 {
			return false
		}
	}

	return true
}

// Err returns the first failure reported by an agent.
func (s *SoC) Err() error {
	for _, p := range s.ports {
		if err := p.Agent().Err(); err != nil {
			return err
		}
	}

	return nil
}

// Outcome tells how the run has ended so far. A program that writes the sim
// controller ends the run. Otherwise the run ends when every agent is done,
// or times out after the maximum number of cycles.
func (s *SoC) Outcome() Outcome {
	switch {
	case s.simCtrl.Finished():
		if s.simCtrl.Status() == simctrl.StatusPass && s.Err() == nil {
			return OutcomePass
		}

		return OutcomeFail
	case !s.InReset() && s.Idle():
		if s.Err() != nil {
			return OutcomeFail
		}

		return OutcomePass
	case s.cycle >= s.spec.MaxCycles:
		return OutcomeTimeout
	default:
		return OutcomeRunning
	}
}

// Halted tells if the run has ended.
func (s *SoC) Halted() bool {
	return s.Outcome() != OutcomeRunning
}

// Tick steps one cycle unless the run has ended.
func (s *SoC) Tick() bool {
	if s.Halted() {
		return false
	}

	s.Step()

	return true
}

// Run steps until the run ends and returns the outcome.
func (s *SoC) Run() Outcome {
	for s.Tick() {
	}

	return s.Outcome()
}
