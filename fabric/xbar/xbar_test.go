package xbar

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/komandara/k10fabric/fabric/adapter"
	"github.com/komandara/k10fabric/fabric/arbitration"
	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/periph/memory"
	"github.com/komandara/k10fabric/periph/target"
	"github.com/komandara/k10fabric/sim"
)

type completion struct {
	cycle int
	req   adapter.Request
	rsp   bus.Rsp
}

// testBench drives a crossbar through one adapter per initiator. Each
// initiator issues its queued requests one at a time.
type testBench struct {
	x        *Crossbar
	adapters []*adapter.Adapter
	queues   [][]adapter.Request
	inFlight []adapter.Request
	done     [][]completion
	accepts  [][]int
	cycle    int
	fwd      []bus.Forward

	afterEval func(tb *testBench)
}

func newTestBench(x *Crossbar) *testBench {
	n := x.NumInitiators()
	tb := &testBench{
		x:        x,
		queues:   make([][]adapter.Request, n),
		inFlight: make([]adapter.Request, n),
		done:     make([][]completion, n),
		accepts:  make([][]int, n),
		fwd:      make([]bus.Forward, n),
	}

	for i := 0; i < n; i++ {
		a := adapter.MakeBuilder().
			Build(sim.BuildNameWithIndex("Adapter", "Port", i))
		tb.adapters = append(tb.adapters, a)
	}

	return tb
}

func (tb *testBench) issue(i int, reqs ...adapter.Request) {
	tb.queues[i] = append(tb.queues[i], reqs...)
}

func (tb *testBench) step() {
	for i, a := range tb.adapters {
		if !a.Busy() && len(tb.queues[i]) > 0 {
			tb.inFlight[i] = tb.queues[i][0]
			tb.queues[i] = tb.queues[i][1:]
			tb.fwd[i] = a.Drive(true, tb.inFlight[i])

			continue
		}

		tb.fwd[i] = a.Drive(false, adapter.Request{})
	}

	back := tb.x.Eval(tb.fwd)

	if tb.afterEval != nil {
		tb.afterEval(tb)
	}

	for i, a := range tb.adapters {
		a.Complete(back[i])

		if a.Accepted() {
			tb.accepts[i] = append(tb.accepts[i], tb.cycle)
		}

		if rsp, ok := a.Response(); ok {
			tb.done[i] = append(tb.done[i], completion{
				cycle: tb.cycle,
				req:   tb.inFlight[i],
				rsp:   rsp,
			})
		}
	}

	for _, a := range tb.adapters {
		a.Commit()
	}

	tb.x.Commit()
	tb.cycle++
}

func (tb *testBench) idle() bool {
	for i, a := range tb.adapters {
		if a.Busy() || len(tb.queues[i]) > 0 {
			return false
		}
	}

	return true
}

func (tb *testBench) runUntilIdle(maxCycles int) {
	for i := 0; i < maxCycles; i++ {
		tb.step()

		if tb.idle() {
			return
		}
	}

	Fail("the crossbar did not drain")
}

func readReq(addr uint32) adapter.Request {
	return adapter.Request{Addr: addr}
}

func writeReq(addr, data uint32) adapter.Request {
	return adapter.Request{
		Write: true,
		Addr:  addr,
		Data:  data,
		Mask:  bus.FullMask,
	}
}

var (
	range0 = bus.AddrRange{Base: 0x0000_0000, Mask: 0xFFFF_FF00}
	range1 = bus.AddrRange{Base: 0x0000_1000, Mask: 0xFFFF_FF00}
)

var _ = Describe("Crossbar with memories", func() {
	var (
		mem0, mem1 *memory.Storage
		builder    Builder
		x          *Crossbar
		tb         *testBench
	)

	build := func(numInitiators int, latency int) {
		mem0 = memory.New(0x100)
		mem1 = memory.New(0x100)

		ep0 := target.MakeBuilder().
			WithLatency(latency).
			WithOffsetMask(^range0.Mask).
			Build("Mem0", mem0)
		ep1 := target.MakeBuilder().
			WithLatency(latency).
			WithOffsetMask(^range1.Mask).
			Build("Mem1", mem1)

		var err error
		x, err = builder.
			WithNumInitiators(numInitiators).
			WithTarget(ep0, range0).
			WithTarget(ep1, range1).
			Build("Xbar")
		Expect(err).NotTo(HaveOccurred())

		tb = newTestBench(x)
	}

	BeforeEach(func() {
		builder = MakeBuilder()
	})

	It("should route the first and the last address of every range", func() {
		build(1, 0)
		mem0.WriteWord(0x00, 0x11)
		mem0.WriteWord(0xFC, 0x22)
		mem1.WriteWord(0x00, 0x33)
		mem1.WriteWord(0xFC, 0x44)

		tb.issue(0,
			readReq(range0.Base),
			readReq(range0.Last()),
			readReq(range1.Base),
			readReq(range1.Last()),
		)
		tb.runUntilIdle(100)

		Expect(tb.done[0]).To(HaveLen(4))
		Expect(tb.done[0][0].rsp).To(Equal(bus.Rsp{Data: 0x11}))
		Expect(tb.done[0][1].rsp).To(Equal(bus.Rsp{Data: 0x22}))
		Expect(tb.done[0][2].rsp).To(Equal(bus.Rsp{Data: 0x33}))
		Expect(tb.done[0][3].rsp).To(Equal(bus.Rsp{Data: 0x44}))
	})

	It("should complete a read in three cycles", func() {
		build(1, 0)

		tb.issue(0, readReq(0x10))
		tb.runUntilIdle(10)

		Expect(tb.accepts[0]).To(Equal([]int{0}))
		Expect(tb.done[0][0].cycle).To(Equal(2))
	})

	It("should write into the addressed target", func() {
		build(1, 0)

		tb.issue(0,
			writeReq(0x1004, 0xCAFE_F00D),
			adapter.Request{Write: true, Addr: 0x1004, Data: 0xAA, Mask: 0x1},
		)
		tb.runUntilIdle(20)

		Expect(tb.done[0]).To(HaveLen(2))
		Expect(tb.done[0][0].rsp.Status).To(Equal(bus.StatusOK))
		Expect(mem1.ReadWord(4)).To(Equal(uint32(0xCAFE_F0AA)))
		Expect(mem0.ReadWord(4)).To(Equal(uint32(0)))
	})

	It("should serve two initiators reading one target in turn", func() {
		build(2, 0)
		mem0.WriteWord(0x0, 100)
		mem0.WriteWord(0x4, 101)

		tb.issue(0, readReq(0x0))
		tb.issue(1, readReq(0x4))

		tb.step()
		Expect(tb.accepts[0]).To(Equal([]int{0}))
		Expect(tb.accepts[1]).To(BeEmpty())
		Expect(x.Arbiter(0).Pointer()).To(Equal(1))

		tb.runUntilIdle(20)

		Expect(tb.accepts[1]).To(Equal([]int{1}))
		Expect(tb.done[0][0].rsp.Data).To(Equal(uint32(100)))
		Expect(tb.done[1][0].rsp.Data).To(Equal(uint32(101)))
		Expect(tb.done[0][0].cycle).To(BeNumerically("<", tb.done[1][0].cycle))
		Expect(x.Arbiter(0).Pointer()).To(Equal(0))
	})

	It("should favor the lowest initiator with fixed priority", func() {
		builder = builder.WithPolicy(arbitration.FixedPriority)
		build(3, 0)

		tb.issue(0, readReq(0x0), readReq(0x0))
		tb.issue(2, readReq(0x8))
		tb.runUntilIdle(40)

		Expect(tb.accepts[0][0]).To(Equal(0))
		Expect(tb.accepts[2][0]).To(BeNumerically(">", tb.accepts[0][0]))
	})

	It("should not let one target block another", func() {
		build(2, 3)

		tb.issue(0, readReq(0x0))
		tb.issue(1, readReq(0x1000))
		tb.step()

		Expect(tb.accepts[0]).To(Equal([]int{0}))
		Expect(tb.accepts[1]).To(Equal([]int{0}))
	})

	It("should deliver write data in address order", func() {
		build(2, 1)

		tb.issue(0, writeReq(0x10, 0xA0), writeReq(0x14, 0xA1))
		tb.issue(1, writeReq(0x20, 0xB0), writeReq(0x24, 0xB1))
		tb.runUntilIdle(100)

		Expect(mem0.ReadWord(0x10)).To(Equal(uint32(0xA0)))
		Expect(mem0.ReadWord(0x14)).To(Equal(uint32(0xA1)))
		Expect(mem0.ReadWord(0x20)).To(Equal(uint32(0xB0)))
		Expect(mem0.ReadWord(0x24)).To(Equal(uint32(0xB1)))
	})

	It("should return unmatched addresses with an error", func() {
		build(1, 0)

		tb.issue(0, readReq(0x8000), writeReq(0x8004, 1), readReq(0x0))
		tb.runUntilIdle(20)

		Expect(tb.done[0]).To(HaveLen(3))
		Expect(tb.done[0][0].rsp.Status).To(Equal(bus.StatusError))
		Expect(tb.done[0][1].rsp.Status).To(Equal(bus.StatusError))
		Expect(tb.done[0][2].rsp.Status).To(Equal(bus.StatusOK))
	})

	It("should keep every initiator to one outstanding request", func() {
		build(3, 2)

		tb.afterEval = func(tb *testBench) {
			total := tb.x.Outstanding(0) + tb.x.Outstanding(1)
			Expect(total).To(BeNumerically("<=", 3))
		}

		for i := 0; i < 3; i++ {
			for j := 0; j < 5; j++ {
				tb.issue(i, readReq(uint32(0x1000*(j%2)+4*i)))
			}
		}

		tb.runUntilIdle(200)

		for i := 0; i < 3; i++ {
			Expect(tb.done[i]).To(HaveLen(5))
			Expect(tb.accepts[i]).To(HaveLen(5))

			for j := 1; j < 5; j++ {
				Expect(tb.accepts[i][j]).To(
					BeNumerically(">", tb.done[i][j-1].cycle))
			}
		}
	})

	It("should agree with a golden model under random traffic", func() {
		build(3, 1)

		r := rand.New(rand.NewSource(1))
		golden := map[uint32]uint32{}
		expected := make([][]uint32, 3)

		for i := 0; i < 3; i++ {
			for j := 0; j < 60; j++ {
				base := []uint32{range0.Base, range1.Base}[r.Intn(2)]
				addr := base + uint32(i)*0x40 + uint32(r.Intn(16))*4

				if r.Intn(2) == 0 {
					data := r.Uint32()
					golden[addr] = data
					tb.issue(i, writeReq(addr, data))
					expected[i] = append(expected[i], 0)

					continue
				}

				tb.issue(i, readReq(addr))
				expected[i] = append(expected[i], golden[addr])
			}
		}

		tb.runUntilIdle(5000)

		for i := 0; i < 3; i++ {
			Expect(tb.done[i]).To(HaveLen(60))

			for j, c := range tb.done[i] {
				Expect(c.rsp.Status).To(Equal(bus.StatusOK))

				if !c.req.Write {
					Expect(c.rsp.Data).To(Equal(expected[i][j]), "initiator %d access %d", i, j)
				}
			}
		}
	})

	It("should drop everything on reset", func() {
		build(2, 2)

		tb.issue(0, readReq(0x0))
		tb.issue(1, readReq(0x4))
		tb.step()
		tb.step()

		x.Reset()

		Expect(x.Outstanding(0)).To(Equal(0))
		Expect(x.Arbiter(0).Pointer()).To(Equal(0))
		Expect(x.Target(0).AddrReady()).To(BeTrue())
	})

	It("should expose its hookable parts", func() {
		build(2, 0)

		Expect(x.Hookables()).To(HaveLen(8))
		Expect(x.Buffers()).To(HaveLen(6))
		Expect(x.NumTargets()).To(Equal(2))
	})
})

var _ = Describe("Crossbar with mocked targets", func() {
	var (
		mockCtrl *gomock.Controller
		t0, t1   *MockTarget
		x        *Crossbar
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		t0 = NewMockTarget(mockCtrl)
		t1 = NewMockTarget(mockCtrl)

		for _, t := range []*MockTarget{t0, t1} {
			t.EXPECT().Name().Return("Target").AnyTimes()
			t.EXPECT().AddrReady().Return(true).AnyTimes()
			t.EXPECT().WriteReady().Return(true).AnyTimes()
			t.EXPECT().Commit().AnyTimes()
		}

		var err error
		x, err = MakeBuilder().
			WithNumInitiators(2).
			WithTarget(t0, range0).
			WithTarget(t1, range1).
			Build("Xbar")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should not involve any target for an unmatched address", func() {
		for _, t := range []*MockTarget{t0, t1} {
			t.EXPECT().Response().Return(bus.Rsp{}, false).AnyTimes()
			t.EXPECT().Drive(bus.Forward{RspReady: true}).AnyTimes()
		}

		tb := newTestBench(x)
		tb.issue(0, writeReq(0x9000, 5))
		tb.issue(1, readReq(0xFFFF_FFFC))
		tb.runUntilIdle(10)

		Expect(tb.done[0][0].rsp.Status).To(Equal(bus.StatusError))
		Expect(tb.done[1][0].rsp.Status).To(Equal(bus.StatusError))
		Expect(x.Outstanding(0)).To(Equal(0))
		Expect(x.Outstanding(1)).To(Equal(0))
	})

	It("should drive the granted address phase into the target", func() {
		t0.EXPECT().Response().Return(bus.Rsp{}, false).AnyTimes()
		t1.EXPECT().Response().Return(bus.Rsp{}, false).AnyTimes()
		t0.EXPECT().Drive(bus.Forward{
			AddrValid: true,
			Addr:      bus.AddrReq{Addr: 0x8},
			RspReady:  true,
		})
		t1.EXPECT().Drive(bus.Forward{RspReady: true})

		x.Eval([]bus.Forward{
			{AddrValid: true, Addr: bus.AddrReq{Addr: 0x8}},
			{},
		})
	})

	It("should panic if a target responds without a request", func() {
		t0.EXPECT().Response().Return(bus.Rsp{}, true).AnyTimes()
		t1.EXPECT().Response().Return(bus.Rsp{}, false).AnyTimes()
		t1.EXPECT().Drive(gomock.Any()).AnyTimes()

		Expect(func() {
			x.Eval([]bus.Forward{{}, {}})
		}).To(Panic())
	})

	It("should panic on the wrong number of inputs", func() {
		Expect(func() { x.Eval([]bus.Forward{{}}) }).To(Panic())
	})
})

var _ = Describe("Builder", func() {
	It("should reject overlapping ranges", func() {
		ep := target.MakeBuilder().Build("Mem", memory.New(16))

		_, err := MakeBuilder().
			WithTarget(ep, range0).
			WithTarget(ep, bus.AddrRange{Base: 0x0, Mask: 0xFFFF_F000}).
			Build("Xbar")

		Expect(err).To(HaveOccurred())
	})

	It("should reject an empty address map", func() {
		_, err := MakeBuilder().Build("Xbar")

		Expect(err).To(HaveOccurred())
	})

	It("should reject too many initiators", func() {
		ep := target.MakeBuilder().Build("Mem", memory.New(16))

		_, err := MakeBuilder().
			WithNumInitiators(65).
			WithTarget(ep, range0).
			Build("Xbar")

		Expect(err).To(HaveOccurred())
	})
})
