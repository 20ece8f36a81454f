package agent

import (
	"log"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/komandara/k10fabric/fabric/adapter"
	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/sim"
)

type goldenWord struct {
	data  uint32
	known uint8
}

// A RandomAgent issues random reads and writes to word addresses inside a
// window and checks every read against the bytes it wrote earlier.
type RandomAgent struct {
	name       string
	rng        *rand.Rand
	window     bus.AddrRange
	numWords   uint32
	writeRatio float64
	remaining  uint64

	golden map[uint32]goldenWord
	err    error

	reads, writes, checked uint64
}

// Name returns the name of the agent.
func (a *RandomAgent) Name() string {
	return a.name
}

// Reads returns the number of completed reads.
func (a *RandomAgent) Reads() uint64 {
	return a.reads
}

// Writes returns the number of completed writes.
func (a *RandomAgent) Writes() uint64 {
	return a.writes
}

// Checked returns the number of reads compared with the golden model.
func (a *RandomAgent) Checked() uint64 {
	return a.checked
}

// Next returns a random access.
func (a *RandomAgent) Next() (adapter.Request, bool) {
	if a.remaining == 0 {
		return adapter.Request{}, false
	}

	a.remaining--

	addr := a.window.Base + uint32(a.rng.Int63n(int64(a.numWords)))*bus.NumByteLanes

	if a.rng.Float64() >= a.writeRatio {
		return adapter.Request{Addr: addr}, true
	}

	mask := bus.FullMask
	if a.rng.Intn(4) == 0 {
		mask = uint8(a.rng.Intn(int(bus.FullMask))) + 1
	}

	return adapter.Request{
		Write: true,
		Addr:  addr,
		Data:  a.rng.Uint32(),
		Mask:  mask,
	}, true
}

// Complete checks the response against the golden model.
func (a *RandomAgent) Complete(req adapter.Request, rsp bus.Rsp) {
	if rsp.Status != bus.StatusOK {
		a.fail(errors.Errorf("%s: %s returned %s", a.name, req, rsp.Status))
		return
	}

	g := a.golden[req.Addr]

	if req.Write {
		a.writes++
		g.data = bus.ApplyMask(g.data, req.Data, req.Mask)
		g.known |= req.Mask
		a.golden[req.Addr] = g

		return
	}

	a.reads++

	if g.known == 0 {
		return
	}

	a.checked++

	want := bus.ApplyMask(0, g.data, g.known)
	got := bus.ApplyMask(0, rsp.Data, g.known)

	if want != got {
		a.fail(errors.Errorf("%s: %s returned 0x%08x, want 0x%08x (lanes %x)",
			a.name, req, rsp.Data, g.data, g.known))
	}
}

func (a *RandomAgent) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

// Done tells if all the accesses have been issued.
func (a *RandomAgent) Done() bool {
	return a.remaining == 0
}

// Err returns the first mismatch.
func (a *RandomAgent) Err() error {
	return a.err
}

// A RandomBuilder can build random agents.
type RandomBuilder struct {
	seed        int64
	window      bus.AddrRange
	numAccesses uint64
	writeRatio  float64
}

// MakeRandomBuilder creates a builder with default parameters.
func MakeRandomBuilder() RandomBuilder {
	return RandomBuilder{
		seed:        1,
		window:      bus.AddrRange{Base: 0, Mask: 0xFFFF_FF00},
		numAccesses: 1000,
		writeRatio:  0.5,
	}
}

// WithSeed sets the seed of the random generator.
func (b RandomBuilder) WithSeed(seed int64) RandomBuilder {
	b.seed = seed
	return b
}

// WithWindow sets the address range the agent accesses.
func (b RandomBuilder) WithWindow(r bus.AddrRange) RandomBuilder {
	b.window = r
	return b
}

// WithNumAccesses sets the number of accesses to issue.
func (b RandomBuilder) WithNumAccesses(n uint64) RandomBuilder {
	b.numAccesses = n
	return b
}

// WithWriteRatio sets the fraction of accesses that are writes.
func (b RandomBuilder) WithWriteRatio(r float64) RandomBuilder {
	b.writeRatio = r
	return b
}

// Build creates a random agent.
func (b RandomBuilder) Build(name string) *RandomAgent {
	sim.NameMustBeValid(name)

	words := (uint64(^b.window.Mask) + 1) / bus.NumByteLanes
	if words == 0 {
		log.Panicf("agent %s has a window smaller than a word", name)
	}

	if b.writeRatio < 0 || b.writeRatio > 1 {
		log.Panicf("agent %s has write ratio %f", name, b.writeRatio)
	}

	return &RandomAgent{
		name:       name,
		rng:        rand.New(rand.NewSource(b.seed)),
		window:     b.window,
		numWords:   uint32(words),
		writeRatio: b.writeRatio,
		remaining:  b.numAccesses,
		golden:     make(map[uint32]goldenWord),
	}
}
