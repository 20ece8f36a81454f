package xbar

import (
	"github.com/pkg/errors"

	"github.com/komandara/k10fabric/fabric/arbitration"
	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/fabric/skid"
	"github.com/komandara/k10fabric/sim"
)

type targetEntry struct {
	target bus.Target
	rng    bus.AddrRange
}

// A Builder can build crossbars.
type Builder struct {
	policy        arbitration.Policy
	numInitiators int
	targets       []targetEntry
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		policy:        arbitration.RoundRobin,
		numInitiators: 1,
	}
}

// WithPolicy sets the arbitration policy of every target port.
func (b Builder) WithPolicy(p arbitration.Policy) Builder {
	b.policy = p
	return b
}

// WithNumInitiators sets the number of initiator ports.
func (b Builder) WithNumInitiators(n int) Builder {
	b.numInitiators = n
	return b
}

// WithTarget appends a target port that owns the given address range. Target
// indices follow the order of the calls.
func (b Builder) WithTarget(t bus.Target, rng bus.AddrRange) Builder {
	targets := make([]targetEntry, len(b.targets), len(b.targets)+1)
	copy(targets, b.targets)
	b.targets = append(targets, targetEntry{target: t, rng: rng})

	return b
}

// Build creates the crossbar. It fails if the address ranges of the targets
// are not valid.
func (b Builder) Build(name string) (*Crossbar, error) {
	sim.NameMustBeValid(name)

	if b.numInitiators <= 0 || b.numInitiators > arbitration.MaxRequesters {
		return nil, errors.Errorf(
			"crossbar %s cannot serve %d initiators", name, b.numInitiators)
	}

	ranges := make([]bus.AddrRange, len(b.targets))
	for i, t := range b.targets {
		ranges[i] = t.rng
	}

	addrMap, err := bus.NewAddressMap(ranges...)
	if err != nil {
		return nil, errors.Wrapf(err, "crossbar %s", name)
	}

	x := &Crossbar{
		name:          name,
		addrMap:       addrMap,
		numInitiators: b.numInitiators,
		ports:         make([]port, len(b.targets)),
		errs:          make([]*sim.Register[errState], b.numInitiators),
		decoded:       make([]int, b.numInitiators),
		out:           make([]bus.Backward, b.numInitiators),
	}

	for i, t := range b.targets {
		x.ports[i] = b.buildPort(name, i, t.target)
	}

	for i := range x.errs {
		x.errs[i] = sim.NewRegister(errState{})
	}

	return x, nil
}

func (b Builder) buildPort(name string, i int, t bus.Target) port {
	portName := sim.BuildNameWithIndex(name, "Port", i)

	return port{
		target: t,
		arb: arbitration.MakeBuilder().
			WithPolicy(b.policy).
			WithNumRequesters(b.numInitiators).
			Build(sim.BuildName(portName, "Arbiter")),
		addrBuf: skid.NewBuffer[routedAddr](sim.BuildName(portName, "AddrBuf")),
		wBuf:    skid.NewBuffer[bus.WData](sim.BuildName(portName, "WriteBuf")),
		rspBuf:  skid.NewBuffer[routedRsp](sim.BuildName(portName, "RspBuf")),
		owners:  newOwnerFIFO(b.numInitiators),
		wOwner:  sim.NewRegister(noOwner),
	}
}
