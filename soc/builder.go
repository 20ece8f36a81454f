package soc

import (
	"io"

	"github.com/pkg/errors"

	"github.com/komandara/k10fabric/agent"
	"github.com/komandara/k10fabric/fabric/adapter"
	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/fabric/subdecoder"
	"github.com/komandara/k10fabric/fabric/xbar"
	"github.com/komandara/k10fabric/periph/memory"
	"github.com/komandara/k10fabric/periph/simctrl"
	"github.com/komandara/k10fabric/periph/target"
	"github.com/komandara/k10fabric/periph/timer"
	"github.com/komandara/k10fabric/periph/uart"
	"github.com/komandara/k10fabric/sim"
)

// A Builder can build SoCs.
type Builder struct {
	engine  sim.Engine
	spec    Spec
	console io.Writer
	uartOut io.Writer
	agents  [numInitiators]agent.Agent
}

// MakeBuilder creates a builder with the K10 defaults.
func MakeBuilder() Builder {
	return Builder{
		spec:    Defaults(),
		console: io.Discard,
		uartOut: io.Discard,
	}
}

// WithEngine sets the engine that ticks the SoC.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithSpec sets the configuration.
func (b Builder) WithSpec(s Spec) Builder {
	b.spec = s
	return b
}

// WithConsole sets where the characters written to the sim controller go.
func (b Builder) WithConsole(w io.Writer) Builder {
	b.console = w
	return b
}

// WithUARTOutput sets where the bytes transmitted by the UART go.
func (b Builder) WithUARTOutput(w io.Writer) Builder {
	b.uartOut = w
	return b
}

// WithIFetchAgent sets the agent that drives the instruction fetch port.
func (b Builder) WithIFetchAgent(a agent.Agent) Builder {
	b.agents[IFetch] = a
	return b
}

// WithDataAgent sets the agent that drives the data port.
func (b Builder) WithDataAgent(a agent.Agent) Builder {
	b.agents[Data] = a
	return b
}

// Build creates the SoC and loads the memory image if the Spec names one.
func (b Builder) Build(name string) (*SoC, error) {
	if err := b.spec.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid spec")
	}

	if b.engine == nil {
		b.engine = sim.NewSerialEngine()
	}

	s := &SoC{
		spec:      b.spec,
		fwd:       make([]bus.Forward, numInitiators),
		resetLeft: b.spec.ResetCycles,
	}
	s.TickingComponent = sim.NewTickingComponent(
		name, b.engine, b.spec.Freq(), s)

	if err := b.buildTargets(s, name); err != nil {
		return nil, err
	}

	if err := b.buildCrossbar(s, name); err != nil {
		return nil, err
	}

	b.buildPorts(s, name)

	if b.spec.Memory.Image != "" {
		if err := s.mem.LoadHexFile(b.spec.Memory.Image); err != nil {
			return nil, errors.Wrap(err, "loading memory image")
		}
	}

	return s, nil
}

func (b Builder) buildTargets(s *SoC, name string) error {
	s.mem = memory.New(uint32(b.spec.MemorySize()))
	s.timer = timer.New()
	s.simCtrl = simctrl.New(b.console)
	s.uart = uart.New(b.uartOut)

	memEP := target.MakeBuilder().
		WithLatency(b.spec.Memory.Latency).
		WithOffsetMask(^b.spec.Memory.Mask).
		Build(sim.BuildName(name, "Memory"), s.mem)

	periphEP := target.MakeBuilder().
		WithLatency(b.spec.Periph.Latency).
		WithOffsetMask(^b.spec.Periph.SubMask)

	timerEP := periphEP.Build(sim.BuildName(name, "Timer"), s.timer)
	simCtrlEP := periphEP.Build(sim.BuildName(name, "SimCtrl"), s.simCtrl)
	uartEP := periphEP.Build(sim.BuildName(name, "UART"), s.uart)

	s.endpoints = []*target.Endpoint{memEP, timerEP, simCtrlEP, uartEP}

	periph, err := subdecoder.MakeBuilder().
		WithSubTarget(timerEP, b.spec.TimerRange()).
		WithSubTarget(simCtrlEP, b.spec.SimCtrlRange()).
		WithSubTarget(uartEP, b.spec.UARTRange()).
		Build(sim.BuildName(name, "Periph"))
	if err != nil {
		return errors.Wrap(err, "building peripheral block")
	}

	s.periph = periph

	return nil
}

func (b Builder) buildCrossbar(s *SoC, name string) error {
	x, err := xbar.MakeBuilder().
		WithPolicy(b.spec.Arbitration).
		WithNumInitiators(numInitiators).
		WithTarget(s.endpoints[0], b.spec.MemoryRange()).
		WithTarget(s.periph, b.spec.PeriphRange()).
		Build(sim.BuildName(name, "Xbar"))
	if err != nil {
		return errors.Wrap(err, "building crossbar")
	}

	s.xbar = x

	return nil
}

func (b Builder) buildPorts(s *SoC, name string) {
	names := [numInitiators]string{"IFetch", "Data"}

	for i, a := range b.agents {
		if a == nil {
			a = agent.NewScriptedAgent(
				sim.BuildName(name, names[i]+"Agent"), agent.Script{})
		}

		ad := adapter.MakeBuilder().Build(sim.BuildName(name, names[i]))
		s.ports = append(s.ports, agent.NewPort(a, ad))
	}
}
