// Package agent provides the initiators that drive traffic into the fabric.
package agent

import (
	"github.com/komandara/k10fabric/fabric/adapter"
	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/sim"
)

// An Agent decides what an initiator asks the fabric to do.
type Agent interface {
	sim.Named

	// Next returns the next request. It is only called when the initiator
	// has no transaction in flight.
	Next() (req adapter.Request, ok bool)

	// Complete reports the response to the request last returned by Next.
	Complete(req adapter.Request, rsp bus.Rsp)

	// Done tells if the agent has nothing more to issue.
	Done() bool

	// Err returns the first unexpected response the agent has seen.
	Err() error
}

// A Port connects an agent to the adapter of one initiator.
type Port struct {
	agent   Agent
	adapter *adapter.Adapter

	inFlight  adapter.Request
	issued    uint64
	completed uint64
}

// NewPort connects the agent to the adapter.
func NewPort(a Agent, ad *adapter.Adapter) *Port {
	return &Port{agent: a, adapter: ad}
}

// Agent returns the agent behind the port.
func (p *Port) Agent() Agent {
	return p.agent
}

// Adapter returns the adapter of the port.
func (p *Port) Adapter() *adapter.Adapter {
	return p.adapter
}

// Issued returns the number of requests handed to the adapter.
func (p *Port) Issued() uint64 {
	return p.issued
}

// Completed returns the number of responses delivered to the agent.
func (p *Port) Completed() uint64 {
	return p.completed
}

// Idle tells if the agent is done and nothing is in flight.
func (p *Port) Idle() bool {
	return !p.adapter.Busy() && p.agent.Done()
}

// Drive returns the signals the initiator drives in this cycle.
func (p *Port) Drive() bus.Forward {
	if p.adapter.Busy() || p.agent.Done() {
		return p.adapter.Drive(false, adapter.Request{})
	}

	req, ok := p.agent.Next()
	if !ok {
		return p.adapter.Drive(false, adapter.Request{})
	}

	p.inFlight = req
	p.issued++

	return p.adapter.Drive(true, req)
}

// Complete takes the fabric's answer and hands a delivered response to the
// agent.
func (p *Port) Complete(b bus.Backward) {
	p.adapter.Complete(b)

	if rsp, ok := p.adapter.Response(); ok {
		p.completed++
		p.agent.Complete(p.inFlight, rsp)
	}
}

// Commit applies the state of the adapter.
func (p *Port) Commit() {
	p.adapter.Commit()
}

// Reset drops the transaction in flight. The agent keeps its progress.
func (p *Port) Reset() {
	p.adapter.Reset()
}
