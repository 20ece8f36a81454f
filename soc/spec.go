package soc

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/komandara/k10fabric/fabric/arbitration"
	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/sim"
)

// MemorySpec describes the program memory.
type MemorySpec struct {
	Base    uint32 `yaml:"base"`
	Mask    uint32 `yaml:"mask"`
	Latency int    `yaml:"latency"`
	Image   string `yaml:"image,omitempty"`
}

// PeriphSpec describes the peripheral window and the register blocks inside
// it. Every block owns the addresses that match its base under SubMask.
type PeriphSpec struct {
	Base    uint32 `yaml:"base"`
	Mask    uint32 `yaml:"mask"`
	SubMask uint32 `yaml:"sub_mask"`
	Timer   uint32 `yaml:"timer"`
	SimCtrl uint32 `yaml:"sim_ctrl"`
	UART    uint32 `yaml:"uart"`
	Latency int    `yaml:"latency"`
}

// Spec is the configuration of the SoC. It does not change once the SoC is
// built.
type Spec struct {
	Arbitration arbitration.Policy `yaml:"arbitration"`
	FreqMHz     float64            `yaml:"freq_mhz"`
	MaxCycles   uint64             `yaml:"max_cycles"`
	ResetCycles int                `yaml:"reset_cycles"`
	Memory      MemorySpec         `yaml:"memory"`
	Periph      PeriphSpec         `yaml:"periph"`
}

// Defaults returns the layout of the K10.
func Defaults() Spec {
	return Spec{
		Arbitration: arbitration.RoundRobin,
		FreqMHz:     100,
		MaxCycles:   1_000_000,
		ResetCycles: 5,
		Memory: MemorySpec{
			Base:    0x0000_0000,
			Mask:    0xFFFF_0000,
			Latency: 1,
		},
		Periph: PeriphSpec{
			Base:    0x4000_0000,
			Mask:    0xFFFF_0000,
			SubMask: 0xFFFF_F000,
			Timer:   0x4000_0000,
			SimCtrl: 0x4000_1000,
			UART:    0x4000_2000,
		},
	}
}

// MemoryRange returns the addresses of the program memory.
func (s Spec) MemoryRange() bus.AddrRange {
	return bus.AddrRange{Base: s.Memory.Base, Mask: s.Memory.Mask}
}

// MemorySize returns the size of the program memory in bytes.
func (s Spec) MemorySize() uint64 {
	return uint64(^s.Memory.Mask) + 1
}

// PeriphRange returns the addresses of the peripheral window.
func (s Spec) PeriphRange() bus.AddrRange {
	return bus.AddrRange{Base: s.Periph.Base, Mask: s.Periph.Mask}
}

// TimerRange returns the addresses of the timer.
func (s Spec) TimerRange() bus.AddrRange {
	return bus.AddrRange{Base: s.Periph.Timer, Mask: s.Periph.SubMask}
}

// SimCtrlRange returns the addresses of the sim controller.
func (s Spec) SimCtrlRange() bus.AddrRange {
	return bus.AddrRange{Base: s.Periph.SimCtrl, Mask: s.Periph.SubMask}
}

// UARTRange returns the addresses of the UART.
func (s Spec) UARTRange() bus.AddrRange {
	return bus.AddrRange{Base: s.Periph.UART, Mask: s.Periph.SubMask}
}

// Freq returns the clock frequency.
func (s Spec) Freq() sim.Freq {
	return sim.Freq(s.FreqMHz) * sim.MHz
}

const maxMemorySize = 64 << 20

// Validate checks the spec.
func (s Spec) Validate() error {
	switch s.Arbitration {
	case arbitration.RoundRobin, arbitration.FixedPriority:
	default:
		return errors.Errorf("unknown arbitration policy %d", s.Arbitration)
	}

	if s.FreqMHz <= 0 {
		return errors.Errorf("frequency must be positive, got %g MHz", s.FreqMHz)
	}

	if s.MaxCycles == 0 {
		return errors.New("max cycles must be positive")
	}

	if s.ResetCycles < 0 {
		return errors.Errorf("reset cycles must not be negative, got %d",
			s.ResetCycles)
	}

	if s.Memory.Latency < 0 || s.Periph.Latency < 0 {
		return errors.New("latency must not be negative")
	}

	if s.MemorySize() > maxMemorySize {
		return errors.Errorf("memory of %d bytes is larger than %d bytes",
			s.MemorySize(), maxMemorySize)
	}

	if _, err := bus.NewAddressMap(s.MemoryRange(), s.PeriphRange()); err != nil {
		return errors.Wrap(err, "fabric address map")
	}

	return s.validatePeriph()
}

func (s Spec) validatePeriph() error {
	p := s.Periph

	if p.SubMask&p.Mask != p.Mask {
		return errors.Errorf(
			"sub mask 0x%08x does not refine window mask 0x%08x", p.SubMask, p.Mask)
	}

	subs := []bus.AddrRange{s.TimerRange(), s.SimCtrlRange(), s.UARTRange()}
	for _, r := range subs {
		if !s.PeriphRange().Contains(r.Base) {
			return errors.Errorf("%s is outside the peripheral window %s",
				r, s.PeriphRange())
		}
	}

	if _, err := bus.NewAddressMap(subs...); err != nil {
		return errors.Wrap(err, "peripheral address map")
	}

	return nil
}

// LoadSpec reads a YAML file over the defaults and validates the result.
func LoadSpec(path string) (Spec, error) {
	spec := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return spec, errors.Wrap(err, "reading spec")
	}

	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, errors.Wrapf(err, "parsing spec %s", path)
	}

	if err := spec.Validate(); err != nil {
		return spec, errors.Wrapf(err, "invalid spec %s", path)
	}

	return spec, nil
}

// Dump writes the spec as YAML.
func (s Spec) Dump() ([]byte, error) {
	data, err := yaml.Marshal(s)

	return data, errors.Wrap(err, "encoding spec")
}
