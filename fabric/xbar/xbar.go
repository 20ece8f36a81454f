// Package xbar provides the crossbar that connects several initiators to
// several targets.
package xbar

import (
	"log"

	"github.com/komandara/k10fabric/fabric/arbitration"
	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/fabric/skid"
	"github.com/komandara/k10fabric/sim"
)

const noOwner = -1

type routedAddr struct {
	bus.AddrReq
	initiator int
}

type routedRsp struct {
	rsp       bus.Rsp
	initiator int
}

// port holds everything the crossbar keeps for one target.
type port struct {
	target  bus.Target
	arb     *arbitration.Arbiter
	addrBuf *skid.Buffer[routedAddr]
	wBuf    *skid.Buffer[bus.WData]
	rspBuf  *skid.Buffer[routedRsp]
	owners  ownerFIFO

	// wOwner is the initiator whose write data the target waits for.
	wOwner *sim.Register[int]
}

// errState tracks the synthetic transaction of an initiator whose address
// did not decode.
type errState struct {
	active bool
	write  bool
	wDone  bool
}

// A Crossbar routes requests from N initiators to M targets by address and
// routes the responses back.
//
// Every target has its own arbiter and its own elastic buffers on the
// address, the write-data and the response channel. Targets never block each
// other. A target receives write data in the order of the write addresses it
// receives, since a write is not granted to a target that still waits for the
// data of a previous write.
type Crossbar struct {
	name          string
	addrMap       *bus.AddressMap
	numInitiators int
	ports         []port
	errs          []*sim.Register[errState]

	decoded []int
	out     []bus.Backward
}

// Name returns the name of the crossbar.
func (x *Crossbar) Name() string {
	return x.name
}

// NumInitiators returns the number of initiator ports.
func (x *Crossbar) NumInitiators() int {
	return x.numInitiators
}

// NumTargets returns the number of target ports.
func (x *Crossbar) NumTargets() int {
	return len(x.ports)
}

// Target returns the target connected to port t.
func (x *Crossbar) Target(t int) bus.Target {
	return x.ports[t].target
}

// Arbiter returns the arbiter of target port t.
func (x *Crossbar) Arbiter(t int) *arbitration.Arbiter {
	return x.ports[t].arb
}

// Outstanding returns the number of requests target t still owes a response.
func (x *Crossbar) Outstanding(t int) int {
	return x.ports[t].owners.len()
}

// Hookables returns the elastic buffers and the arbiters of all the target
// ports.
func (x *Crossbar) Hookables() []sim.Hookable {
	list := make([]sim.Hookable, 0, 4*len(x.ports))
	for i := range x.ports {
		p := &x.ports[i]
		list = append(list, p.arb, p.addrBuf, p.wBuf, p.rspBuf)
	}

	return list
}

// A Level reports how full a buffer is.
type Level interface {
	Name() string
	Size() int
	Capacity() int
}

// Buffers returns the elastic buffers of all the target ports.
func (x *Crossbar) Buffers() []Level {
	list := make([]Level, 0, 3*len(x.ports))
	for i := range x.ports {
		p := &x.ports[i]
		list = append(list, p.addrBuf, p.wBuf, p.rspBuf)
	}

	return list
}

// Eval evaluates one cycle. It takes the signals each initiator drives,
// drives every target exactly once, and returns the signals going back to
// each initiator. The returned slice is reused by the next call.
func (x *Crossbar) Eval(in []bus.Forward) []bus.Backward {
	if len(in) != x.numInitiators {
		log.Panicf("crossbar %s has %d initiators, got %d inputs",
			x.name, x.numInitiators, len(in))
	}

	for i := range x.out {
		x.out[i] = bus.Backward{}
		x.decoded[i] = noOwner

		if !in[i].AddrValid {
			continue
		}

		if t, ok := x.addrMap.Decode(in[i].Addr.Addr); ok {
			x.decoded[i] = t
		}
	}

	for i := range in {
		x.evalDecodeError(i, in[i])
	}

	for t := range x.ports {
		x.evalPort(t, in)
	}

	return x.out
}

func (x *Crossbar) evalDecodeError(i int, f bus.Forward) {
	cur := x.errs[i].Get()
	next := cur

	switch {
	case !cur.active:
		if f.AddrValid && x.decoded[i] == noOwner {
			x.out[i].AddrReady = true
			next = errState{active: true, write: f.Addr.Write}
		}
	case cur.write && !cur.wDone:
		x.out[i].WReady = true
		next.wDone = f.WValid
	default:
		x.claimRsp(i, bus.Rsp{Status: bus.StatusError})
		if f.RspReady {
			next = errState{}
		}
	}

	x.errs[i].Stage(next)
}

func (x *Crossbar) evalPort(t int, in []bus.Forward) {
	p := &x.ports[t]

	aValid, aItem := x.evalAddr(t, p, in)
	wValid, wItem := x.evalWrite(p, in)
	rspReady := x.evalRsp(p, in)

	p.target.Drive(bus.Forward{
		AddrValid: aValid,
		Addr:      aItem.AddrReq,
		WValid:    wValid,
		W:         wItem,
		RspReady:  rspReady,
	})
}

// evalAddr arbitrates among the initiators that address target t and returns
// the address phase presented to the target.
func (x *Crossbar) evalAddr(
	t int,
	p *port,
	in []bus.Forward,
) (bool, routedAddr) {
	writesBlocked := p.wOwner.Get() != noOwner

	var req arbitration.Vector
	for i := range in {
		if x.decoded[i] != t {
			continue
		}

		if in[i].Addr.Write && writesBlocked {
			continue
		}

		req = req.Set(i)
	}

	grant, valid := p.arb.Arbitrate(req)
	g, _ := grant.Lowest()

	offer := routedAddr{}
	if valid {
		offer = routedAddr{AddrReq: in[g].Addr, initiator: g}
	}

	taken := valid && p.addrBuf.ProducerMaySend()
	p.arb.Update(grant, taken)

	if taken {
		x.out[g].AddrReady = true

		if offer.Write {
			p.wOwner.Stage(g)
		}
	}

	aValid, aItem := p.addrBuf.Output(valid, offer)
	targetReady := p.target.AddrReady()
	p.addrBuf.Update(valid, offer, targetReady)

	if aValid && targetReady {
		p.owners.stagePush(aItem.initiator)
	}

	return aValid, aItem
}

// evalWrite forwards the write data of the pending data owner and returns the
// write-data phase presented to the target.
func (x *Crossbar) evalWrite(p *port, in []bus.Forward) (bool, bus.WData) {
	o := p.wOwner.Get()

	offerValid := false
	offer := bus.WData{}

	if o != noOwner && in[o].WValid {
		offerValid = true
		offer = in[o].W
	}

	if o != noOwner && p.wBuf.ProducerMaySend() {
		x.out[o].WReady = true

		if offerValid {
			p.wOwner.Stage(noOwner)
		}
	}

	wValid, wItem := p.wBuf.Output(offerValid, offer)
	p.wBuf.Update(offerValid, offer, p.target.WriteReady())

	return wValid, wItem
}

// evalRsp routes the response of the target back to the initiator that owns
// it. It returns the ready signal presented to the target.
func (x *Crossbar) evalRsp(p *port, in []bus.Forward) bool {
	rsp, valid := p.target.Response()
	owner, hasOwner := p.owners.peek()

	if valid && !hasOwner {
		log.Panicf("target %s responds without an outstanding request",
			p.target.Name())
	}

	offer := routedRsp{rsp: rsp, initiator: owner}
	maySend := p.rspBuf.ProducerMaySend()

	if valid && maySend {
		p.owners.stagePop()
	}

	outValid, item := p.rspBuf.Output(valid, offer)
	ready := false

	if outValid {
		x.claimRsp(item.initiator, item.rsp)
		ready = in[item.initiator].RspReady
	}

	p.rspBuf.Update(valid, offer, ready)

	return maySend
}

func (x *Crossbar) claimRsp(initiator int, rsp bus.Rsp) {
	if x.out[initiator].RspValid {
		log.Panicf("crossbar %s has two responses for initiator %d",
			x.name, initiator)
	}

	x.out[initiator].RspValid = true
	x.out[initiator].Rsp = rsp
}

// Commit applies the state staged by Eval to the crossbar and to all the
// targets.
func (x *Crossbar) Commit() {
	for i := range x.ports {
		p := &x.ports[i]
		p.arb.Commit()
		p.addrBuf.Commit()
		p.wBuf.Commit()
		p.rspBuf.Commit()
		p.owners.commit()
		p.wOwner.Commit()
		p.target.Commit()
	}

	for _, e := range x.errs {
		e.Commit()
	}
}

// Reset returns the crossbar and all the targets to idle.
func (x *Crossbar) Reset() {
	for i := range x.ports {
		p := &x.ports[i]
		p.arb.Reset()
		p.addrBuf.Reset()
		p.wBuf.Reset()
		p.rspBuf.Reset()
		p.owners.reset()
		p.wOwner.Reset()
		p.target.Reset()
	}

	for _, e := range x.errs {
		e.Reset()
	}
}
