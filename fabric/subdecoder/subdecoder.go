// Package subdecoder fans one target port out to several register blocks
// selected by address.
package subdecoder

import (
	"github.com/pkg/errors"

	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/sim"
)

const unmatched = -1

type regs struct {
	active bool
	req    bus.AddrReq
	sel    int
	awSent bool
	wDone  bool
}

// A SubDecoder is a target that forwards each transaction to the sub-target
// owning its address. It serves one transaction at a time. The selected
// sub-target is registered when the address phase is accepted and steers the
// write data and the response. Addresses no sub-target owns get an Error
// response after their write data, if any, is consumed.
type SubDecoder struct {
	name    string
	addrMap *bus.AddressMap
	subs    []bus.Target
	r       *sim.Register[regs]
	idle    bus.Forward
}

// Name returns the name of the sub-decoder.
func (d *SubDecoder) Name() string {
	return d.name
}

// NumSubTargets returns the number of sub-targets.
func (d *SubDecoder) NumSubTargets() int {
	return len(d.subs)
}

// SubTarget returns sub-target i.
func (d *SubDecoder) SubTarget(i int) bus.Target {
	return d.subs[i]
}

// Busy tells if a transaction is in flight.
func (d *SubDecoder) Busy() bool {
	return d.r.Get().active
}

// AddrReady tells if the sub-decoder takes a new address phase.
func (d *SubDecoder) AddrReady() bool {
	return !d.r.Get().active
}

// WriteReady tells if the sub-decoder takes the write data of the
// transaction in flight.
func (d *SubDecoder) WriteReady() bool {
	cur := d.r.Get()
	if !cur.active || !cur.req.Write || cur.wDone {
		return false
	}

	if cur.sel == unmatched {
		return true
	}

	return cur.awSent && d.subs[cur.sel].WriteReady()
}

// Response returns the response of the transaction in flight.
func (d *SubDecoder) Response() (bus.Rsp, bool) {
	cur := d.r.Get()
	if !cur.active || !cur.wDone {
		return bus.Rsp{}, false
	}

	if cur.sel == unmatched {
		return bus.Rsp{Status: bus.StatusError}, true
	}

	if !cur.awSent {
		return bus.Rsp{}, false
	}

	return d.subs[cur.sel].Response()
}

// Drive presents the upstream signals and drives every sub-target once.
func (d *SubDecoder) Drive(f bus.Forward) {
	cur := d.r.Get()

	wReady := d.WriteReady()
	_, rspValid := d.Response()

	next := cur

	if !cur.active {
		if f.AddrValid {
			next = d.accept(f.Addr)
		}

		d.driveSubs(unmatched, bus.Forward{})
		d.r.Stage(next)

		return
	}

	sub := bus.Forward{}

	if cur.sel != unmatched && !cur.awSent {
		sub.AddrValid = true
		sub.Addr = cur.req
		next.awSent = d.subs[cur.sel].AddrReady()
	}

	if cur.req.Write && !cur.wDone && (cur.sel == unmatched || cur.awSent) {
		sub.WValid = f.WValid
		sub.W = f.W
		next.wDone = f.WValid && wReady
	}

	sub.RspReady = f.RspReady

	if rspValid && f.RspReady {
		next = regs{sel: unmatched}
	}

	d.driveSubs(cur.sel, sub)
	d.r.Stage(next)
}

func (d *SubDecoder) accept(req bus.AddrReq) regs {
	sel, ok := d.addrMap.Decode(req.Addr)
	if !ok {
		sel = unmatched
	}

	return regs{
		active: true,
		req:    req,
		sel:    sel,
		wDone:  !req.Write,
	}
}

func (d *SubDecoder) driveSubs(sel int, f bus.Forward) {
	for i, s := range d.subs {
		if i == sel {
			s.Drive(f)
			continue
		}

		s.Drive(d.idle)
	}
}

// Commit applies the staged state to the sub-decoder and all the
// sub-targets.
func (d *SubDecoder) Commit() {
	d.r.Commit()

	for _, s := range d.subs {
		s.Commit()
	}
}

// Reset returns the sub-decoder and all the sub-targets to idle.
func (d *SubDecoder) Reset() {
	d.r.Reset()

	for _, s := range d.subs {
		s.Reset()
	}
}

type subEntry struct {
	target bus.Target
	rng    bus.AddrRange
}

// A Builder can build sub-decoders.
type Builder struct {
	subs []subEntry
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithSubTarget appends a sub-target that owns the given address range.
func (b Builder) WithSubTarget(t bus.Target, rng bus.AddrRange) Builder {
	subs := make([]subEntry, len(b.subs), len(b.subs)+1)
	copy(subs, b.subs)
	b.subs = append(subs, subEntry{target: t, rng: rng})

	return b
}

// Build creates the sub-decoder. It fails if the address ranges of the
// sub-targets are not valid.
func (b Builder) Build(name string) (*SubDecoder, error) {
	sim.NameMustBeValid(name)

	ranges := make([]bus.AddrRange, len(b.subs))
	targets := make([]bus.Target, len(b.subs))

	for i, s := range b.subs {
		ranges[i] = s.rng
		targets[i] = s.target
	}

	addrMap, err := bus.NewAddressMap(ranges...)
	if err != nil {
		return nil, errors.Wrapf(err, "sub-decoder %s", name)
	}

	return &SubDecoder{
		name:    name,
		addrMap: addrMap,
		subs:    targets,
		r:       sim.NewRegister(regs{sel: unmatched}),
	}, nil
}
