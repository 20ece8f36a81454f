package arbitration

import (
	"log"

	"github.com/komandara/k10fabric/sim"
)

// A Builder can build arbiters.
type Builder struct {
	policy        Policy
	numRequesters int
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		policy:        RoundRobin,
		numRequesters: 1,
	}
}

// WithPolicy sets the arbitration policy.
func (b Builder) WithPolicy(p Policy) Builder {
	b.policy = p
	return b
}

// WithNumRequesters sets the width of the request vector.
func (b Builder) WithNumRequesters(n int) Builder {
	b.numRequesters = n
	return b
}

// Build creates an arbiter. It panics if the number of requesters is not in
// [1, MaxRequesters].
func (b Builder) Build(name string) *Arbiter {
	sim.NameMustBeValid(name)

	if b.numRequesters <= 0 || b.numRequesters > MaxRequesters {
		log.Panicf("arbiter %s cannot serve %d requesters",
			name, b.numRequesters)
	}

	return &Arbiter{
		name:   name,
		policy: b.policy,
		n:      b.numRequesters,
		ptr:    sim.NewRegister(0),
	}
}
