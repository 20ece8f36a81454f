// Package adapter converts a single-request bus interface into the three
// channels of the fabric.
package adapter

import (
	"fmt"

	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/sim"
	"github.com/komandara/k10fabric/tracing"
)

// Request is what an initiator asks the adapter to perform. Data and Mask are
// only used by writes.
type Request struct {
	Write bool
	Addr  uint32
	Data  uint32
	Mask  uint8
}

func (r Request) String() string {
	if r.Write {
		return fmt.Sprintf("write 0x%08x <- 0x%08x/%x", r.Addr, r.Data, r.Mask)
	}

	return fmt.Sprintf("read 0x%08x", r.Addr)
}

func (r Request) addrReq() bus.AddrReq {
	return bus.AddrReq{Addr: r.Addr, Write: r.Write}
}

func (r Request) wData() bus.WData {
	return bus.WData{Data: r.Data, Mask: r.Mask}
}

// State is the position of the adapter in a transaction.
type State int

// The adapter states.
const (
	StateIdle State = iota
	StateAddrPhase
	StateDataPhase
	StateAwaitRsp
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAddrPhase:
		return "AddrPhase"
	case StateDataPhase:
		return "DataPhase"
	case StateAwaitRsp:
		return "AwaitRsp"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type regs struct {
	state State
	req   Request
	wDone bool
	task  string
}

// An Adapter tracks the single transaction of one initiator.
//
// Each cycle, Drive presents the initiator's request and returns the fabric
// side signals. Complete then takes the fabric's answers, and the adapter
// stages its next state. Accepted and Response report the outcome to the
// initiator in the same cycle.
type Adapter struct {
	sim.HookableBase

	name string

	r    *sim.Register[regs]
	fwd  bus.Forward
	live Request

	accepted bool
	rspValid bool
	rsp      bus.Rsp
}

// Name returns the name of the adapter.
func (a *Adapter) Name() string {
	return a.name
}

// State returns the committed state of the adapter.
func (a *Adapter) State() State {
	return a.r.Get().state
}

// Busy tells if a transaction is in flight.
func (a *Adapter) Busy() bool {
	return a.r.Get().state != StateIdle
}

// Drive presents the initiator's request for this cycle and returns the
// signals the adapter drives into the fabric. In the idle state the request
// passes through to the address and the write-data channels at once. After
// that the adapter drives the latched copy and ignores the initiator.
func (a *Adapter) Drive(reqValid bool, req Request) bus.Forward {
	cur := a.r.Get()
	f := bus.Forward{}

	switch cur.state {
	case StateIdle:
		if reqValid {
			f.AddrValid = true
			f.Addr = req.addrReq()
			f.WValid = req.Write
			f.W = req.wData()
		}
	case StateAddrPhase:
		f.AddrValid = true
		f.Addr = cur.req.addrReq()
		f.WValid = cur.req.Write && !cur.wDone
		f.W = cur.req.wData()
	case StateDataPhase:
		f.WValid = true
		f.W = cur.req.wData()
	case StateAwaitRsp:
		f.RspReady = true
	}

	if !f.WValid {
		f.W = bus.WData{}
	}

	a.fwd = f
	a.live = req

	return f
}

// Complete takes the fabric's answer to the signals returned by Drive and
// stages the next state.
func (a *Adapter) Complete(b bus.Backward) {
	cur := a.r.Get()
	next := cur

	a.accepted = false
	a.rspValid = false
	a.rsp = bus.Rsp{}

	awFire := a.fwd.AddrValid && b.AddrReady
	wFire := a.fwd.WValid && b.WReady
	rspFire := a.fwd.RspReady && b.RspValid

	switch cur.state {
	case StateIdle:
		if !a.fwd.AddrValid {
			return
		}

		next.req = a.live
		next.wDone = wFire
		next.task = sim.GetIDGenerator().Generate()
		next.state = a.afterAddrPhase(next.req, awFire, next.wDone)
		a.startTask(next)
	case StateAddrPhase:
		next.wDone = cur.wDone || wFire
		next.state = a.afterAddrPhase(cur.req, awFire, next.wDone)
	case StateDataPhase:
		if wFire {
			next.wDone = true
			next.state = StateAwaitRsp
		}
	case StateAwaitRsp:
		if rspFire {
			a.rspValid = true
			a.rsp = b.Rsp
			a.endTask(cur)
			next = regs{state: StateIdle}
		}
	}

	a.accepted = cur.state != StateAwaitRsp && next.state == StateAwaitRsp

	a.r.Stage(next)
}

func (a *Adapter) afterAddrPhase(req Request, awFire, wDone bool) State {
	switch {
	case !awFire:
		return StateAddrPhase
	case req.Write && !wDone:
		return StateDataPhase
	default:
		return StateAwaitRsp
	}
}

func (a *Adapter) startTask(r regs) {
	kind := "read"
	if r.req.Write {
		kind = "write"
	}

	tracing.StartTask(r.task, "", a, kind, r.req.addrReq().String(), r.req)
}

func (a *Adapter) endTask(r regs) {
	tracing.EndTask(r.task, a)
}

// Accepted tells if the fabric took all the phases of the request in this
// cycle. The initiator may drop its request after seeing it.
func (a *Adapter) Accepted() bool {
	return a.accepted
}

// Response returns the response delivered to the initiator in this cycle.
func (a *Adapter) Response() (bus.Rsp, bool) {
	return a.rsp, a.rspValid
}

// Commit applies the state staged by Complete.
func (a *Adapter) Commit() {
	a.r.Commit()
	a.accepted = false
	a.rspValid = false
}

// Reset drops the transaction in flight.
func (a *Adapter) Reset() {
	a.r.Reset()
	a.fwd = bus.Forward{}
	a.accepted = false
	a.rspValid = false
}

// Builder can build adapters.
type Builder struct{}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{}
}

// Build creates an idle adapter.
func (b Builder) Build(name string) *Adapter {
	sim.NameMustBeValid(name)

	return &Adapter{
		name: name,
		r:    sim.NewRegister(regs{state: StateIdle}),
	}
}
