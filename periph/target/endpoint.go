// Package target turns a register-level handler into a fabric target.
package target

import (
	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/pipelining"
	"github.com/komandara/k10fabric/sim"
	"github.com/komandara/k10fabric/tracing"
)

// A Handler serves word accesses to the registers or the storage behind a
// target. Addresses are offsets inside the target's range. An error makes
// the target respond with an Error status.
type Handler interface {
	Read(offset uint32) (uint32, error)
	Write(offset uint32, data uint32, mask uint8) error
}

type rspItem struct {
	taskID string
	rsp    bus.Rsp
}

func (r rspItem) TaskID() string {
	return r.taskID
}

type latched struct {
	valid  bool
	req    bus.AddrReq
	taskID string
}

// An Endpoint is a target that serves one address phase at a time. A read
// is performed the cycle after its address phase. A write is performed in
// the cycle its data arrives. Responses come out in order after the latency
// of the access pipeline.
type Endpoint struct {
	sim.HookableBase

	name       string
	handler    Handler
	offsetMask uint32
	pipeline   *pipelining.Pipeline[rspItem]
	rspBuf     *sim.Buffer[rspItem]
	aw         *sim.Register[latched]

	in      bus.Forward
	awFire  bool
	wFire   bool
	rspFire bool
	issue   bool
}

// Name returns the name of the endpoint.
func (e *Endpoint) Name() string {
	return e.name
}

// Handler returns the handler behind the endpoint.
func (e *Endpoint) Handler() Handler {
	return e.handler
}

// AddrReady tells if the endpoint takes an address phase.
func (e *Endpoint) AddrReady() bool {
	return !e.aw.Get().valid
}

// WriteReady tells if the endpoint takes the write data of the latched
// address phase.
func (e *Endpoint) WriteReady() bool {
	cur := e.aw.Get()
	return cur.valid && cur.req.Write && e.pipeline.CanAccept()
}

// Response returns the oldest response not yet delivered.
func (e *Endpoint) Response() (bus.Rsp, bool) {
	item, ok := e.rspBuf.Peek()

	return item.rsp, ok
}

// Pending returns the number of accesses performed but not yet responded.
func (e *Endpoint) Pending() int {
	return e.pipeline.NumItems() + e.rspBuf.Size()
}

// Drive presents the signals of this cycle.
func (e *Endpoint) Drive(f bus.Forward) {
	cur := e.aw.Get()

	e.in = f
	e.awFire = f.AddrValid && e.AddrReady()
	e.wFire = f.WValid && e.WriteReady()
	_, rspValid := e.Response()
	e.rspFire = f.RspReady && rspValid
	e.issue = e.wFire ||
		(cur.valid && !cur.req.Write && e.pipeline.CanAccept())

	switch {
	case e.awFire:
		e.aw.Stage(latched{
			valid:  true,
			req:    f.Addr,
			taskID: sim.GetIDGenerator().Generate(),
		})
	case e.issue:
		e.aw.Stage(latched{})
	}
}

// Commit performs the accesses of this cycle.
func (e *Endpoint) Commit() {
	if e.rspFire {
		item, _ := e.rspBuf.Pop()
		tracing.EndTask(item.taskID, e)
	}

	e.pipeline.Tick()

	if e.issue {
		e.perform(e.aw.Get())
	}

	e.aw.Commit()

	if e.awFire {
		e.startTask(e.aw.Get())
	}

	if c, ok := e.handler.(sim.Clocked); ok {
		c.Commit()
	}

	e.awFire = false
	e.wFire = false
	e.rspFire = false
	e.issue = false
}

func (e *Endpoint) perform(l latched) {
	offset := l.req.Addr & e.offsetMask
	rsp := bus.Rsp{Status: bus.StatusOK}

	if l.req.Write {
		if err := e.handler.Write(offset, e.in.W.Data, e.in.W.Mask); err != nil {
			rsp.Status = bus.StatusError
		}
	} else {
		data, err := e.handler.Read(offset)
		if err != nil {
			rsp.Status = bus.StatusError
		} else {
			rsp.Data = data
		}
	}

	e.pipeline.Accept(rspItem{taskID: l.taskID, rsp: rsp})
}

func (e *Endpoint) startTask(l latched) {
	kind := "read"
	if l.req.Write {
		kind = "write"
	}

	tracing.StartTask(l.taskID, "", e, kind, l.req.String(), nil)
}

// Reset drops everything in flight and resets the handler if it keeps
// clocked state.
func (e *Endpoint) Reset() {
	e.aw.Reset()
	e.pipeline.Clear()
	e.rspBuf.Clear()
	e.awFire = false
	e.wFire = false
	e.rspFire = false
	e.issue = false

	if c, ok := e.handler.(sim.Clocked); ok {
		c.Reset()
	}
}
