// Package arbitration picks one winner among the requesters of a shared
// resource in every cycle.
package arbitration

import (
	"log"

	"github.com/komandara/k10fabric/sim"
)

// HookPosGrant marks a grant that the consumer has accepted. The hook item is
// the index of the granted requester.
var HookPosGrant = &sim.HookPos{Name: "Arbiter Grant"}

// An Arbiter grants at most one requester per cycle.
//
// Arbitrate is combinational and may be called any number of times in a
// cycle. The round-robin pointer only moves when Update reports that the
// granted request was consumed, and the move takes effect on Commit.
type Arbiter struct {
	sim.HookableBase

	name    string
	policy  Policy
	n       int
	ptr     *sim.Register[int]
	granted int
	advance bool
}

// Name returns the name of the arbiter.
func (a *Arbiter) Name() string {
	return a.name
}

// Policy returns the arbitration policy.
func (a *Arbiter) Policy() Policy {
	return a.policy
}

// NumRequesters returns the width of the request vector.
func (a *Arbiter) NumRequesters() int {
	return a.n
}

// Pointer returns the committed round-robin pointer. It is always 0 for
// fixed-priority arbiters.
func (a *Arbiter) Pointer() int {
	return a.ptr.Get()
}

// Arbitrate returns a one-hot grant, or zero if nobody requests. Valid is set
// iff at least one requester requests. Request bits outside the width of the
// arbiter are ignored.
func (a *Arbiter) Arbitrate(req Vector) (grant Vector, valid bool) {
	req &= widthMask(a.n)
	if req == 0 {
		return 0, false
	}

	switch a.policy {
	case FixedPriority:
		grant = a.lowest(req)
	default:
		grant = a.roundRobin(req)
	}

	if !grant.IsOneHotOrZero() {
		log.Panicf("arbiter %s produced a multi-hot grant %s", a.name, grant)
	}

	return grant, true
}

func (a *Arbiter) lowest(req Vector) Vector {
	i, _ := req.Lowest()
	return OneHot(i)
}

func (a *Arbiter) roundRobin(req Vector) Vector {
	masked := req &^ (OneHot(a.ptr.Get()) - 1)
	if masked != 0 {
		return a.lowest(masked)
	}

	return a.lowest(req)
}

// Update tells the arbiter if the grant it produced in this cycle has been
// consumed. The pointer only moves when advance is set and the grant is
// valid.
func (a *Arbiter) Update(grant Vector, advance bool) {
	if !grant.IsOneHotOrZero() {
		log.Panicf("arbiter %s updated with a multi-hot grant %s",
			a.name, grant)
	}

	a.advance = false

	i, valid := grant.Lowest()
	if !advance || !valid {
		return
	}

	a.advance = true
	a.granted = i

	if a.policy == RoundRobin {
		a.ptr.Stage((i + 1) % a.n)
	}
}

// Commit applies the pointer staged in this cycle.
func (a *Arbiter) Commit() {
	a.ptr.Commit()

	if a.advance && a.NumHooks() > 0 {
		a.InvokeHook(sim.HookCtx{
			Domain: a,
			Pos:    HookPosGrant,
			Item:   a.granted,
		})
	}

	a.advance = false
}

// Reset points the arbiter at requester 0.
func (a *Arbiter) Reset() {
	a.ptr.Reset()
	a.advance = false
}
