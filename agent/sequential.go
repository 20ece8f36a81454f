package agent

import (
	"github.com/pkg/errors"

	"github.com/komandara/k10fabric/fabric/adapter"
	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/sim"
)

// A SequentialAgent reads consecutive words of a region, wrapping around at
// its end, the way an instruction fetch unit streams a program.
type SequentialAgent struct {
	name     string
	base     uint32
	numWords uint32
	count    uint64
	issued   uint64
	next     uint32
	err      error
}

// NewSequentialAgent creates an agent that reads count words, starting at
// base and wrapping after numWords words. A count of 0 reads forever.
func NewSequentialAgent(
	name string,
	base uint32,
	numWords uint32,
	count uint64,
) *SequentialAgent {
	sim.NameMustBeValid(name)

	if numWords == 0 {
		numWords = 1
	}

	return &SequentialAgent{
		name:     name,
		base:     base,
		numWords: numWords,
		count:    count,
	}
}

// Name returns the name of the agent.
func (a *SequentialAgent) Name() string {
	return a.name
}

// Next returns the read of the next word.
func (a *SequentialAgent) Next() (adapter.Request, bool) {
	if a.Done() {
		return adapter.Request{}, false
	}

	req := adapter.Request{Addr: a.base + a.next*bus.NumByteLanes}
	a.next = (a.next + 1) % a.numWords
	a.issued++

	return req, true
}

// Issued returns the number of reads issued.
func (a *SequentialAgent) Issued() uint64 {
	return a.issued
}

// Complete records failed reads.
func (a *SequentialAgent) Complete(req adapter.Request, rsp bus.Rsp) {
	if rsp.Status != bus.StatusOK && a.err == nil {
		a.err = errors.Errorf("%s: %s returned %s", a.name, req, rsp.Status)
	}
}

// Done tells if all the reads have been issued. An agent that reads forever
// is never done.
func (a *SequentialAgent) Done() bool {
	return a.count > 0 && a.issued >= a.count
}

// Err returns the first failed read.
func (a *SequentialAgent) Err() error {
	return a.err
}
