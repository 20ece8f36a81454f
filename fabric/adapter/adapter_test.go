package adapter

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/sim"
	"github.com/komandara/k10fabric/tracing"
)

type taskRecorder struct {
	starts []tracing.Task
	ends   []tracing.Task
}

func (r *taskRecorder) Func(ctx sim.HookCtx) {
	task := ctx.Item.(tracing.Task)

	switch ctx.Pos {
	case tracing.HookPosTaskStart:
		r.starts = append(r.starts, task)
	case tracing.HookPosTaskEnd:
		r.ends = append(r.ends, task)
	}
}

var _ = Describe("Adapter", func() {
	var a *Adapter

	read := Request{Addr: 0x100}
	write := Request{Write: true, Addr: 0x104, Data: 0xAB, Mask: 0x1}

	cycle := func(reqValid bool, req Request, b bus.Backward) bus.Forward {
		f := a.Drive(reqValid, req)
		a.Complete(b)

		return f
	}

	BeforeEach(func() {
		a = MakeBuilder().Build("Adapter")
	})

	It("should drive nothing when idle", func() {
		f := a.Drive(false, read)

		Expect(f).To(Equal(bus.Forward{}))
		Expect(a.Busy()).To(BeFalse())
	})

	It("should pass a read straight into the address channel", func() {
		f := a.Drive(true, read)

		Expect(f.AddrValid).To(BeTrue())
		Expect(f.Addr).To(Equal(bus.AddrReq{Addr: 0x100}))
		Expect(f.WValid).To(BeFalse())
		Expect(f.RspReady).To(BeFalse())
	})

	It("should complete a read", func() {
		cycle(true, read, bus.Backward{AddrReady: true})
		Expect(a.Accepted()).To(BeTrue())
		a.Commit()
		Expect(a.State()).To(Equal(StateAwaitRsp))

		f := cycle(false, Request{}, bus.Backward{})
		Expect(f.RspReady).To(BeTrue())
		Expect(a.Accepted()).To(BeFalse())
		_, valid := a.Response()
		Expect(valid).To(BeFalse())
		a.Commit()

		cycle(false, Request{}, bus.Backward{
			RspValid: true,
			Rsp:      bus.Rsp{Data: 0x55},
		})
		rsp, valid := a.Response()
		Expect(valid).To(BeTrue())
		Expect(rsp.Data).To(Equal(uint32(0x55)))
		a.Commit()

		Expect(a.State()).To(Equal(StateIdle))
	})

	It("should keep driving the latched address until it is taken", func() {
		cycle(true, read, bus.Backward{})
		Expect(a.Accepted()).To(BeFalse())
		a.Commit()
		Expect(a.State()).To(Equal(StateAddrPhase))

		f := cycle(true, Request{Addr: 0x999}, bus.Backward{AddrReady: true})
		Expect(f.Addr.Addr).To(Equal(uint32(0x100)))
		Expect(a.Accepted()).To(BeTrue())
		a.Commit()

		Expect(a.State()).To(Equal(StateAwaitRsp))
	})

	It("should send write data with the address", func() {
		f := cycle(true, write, bus.Backward{AddrReady: true, WReady: true})

		Expect(f.WValid).To(BeTrue())
		Expect(f.W).To(Equal(bus.WData{Data: 0xAB, Mask: 0x1}))
		Expect(a.Accepted()).To(BeTrue())
	})

	It("should send write data after the address", func() {
		cycle(true, write, bus.Backward{AddrReady: true})
		Expect(a.Accepted()).To(BeFalse())
		a.Commit()
		Expect(a.State()).To(Equal(StateDataPhase))

		f := cycle(false, Request{}, bus.Backward{})
		Expect(f.AddrValid).To(BeFalse())
		Expect(f.WValid).To(BeTrue())
		a.Commit()

		cycle(false, Request{}, bus.Backward{WReady: true})
		Expect(a.Accepted()).To(BeTrue())
		a.Commit()

		Expect(a.State()).To(Equal(StateAwaitRsp))
	})

	It("should not resend write data taken before the address", func() {
		cycle(true, write, bus.Backward{WReady: true})
		a.Commit()

		f := cycle(false, Request{}, bus.Backward{AddrReady: true})
		Expect(f.AddrValid).To(BeTrue())
		Expect(f.WValid).To(BeFalse())
		Expect(a.Accepted()).To(BeTrue())
	})

	It("should drop the transaction on reset", func() {
		cycle(true, read, bus.Backward{AddrReady: true})
		a.Commit()
		a.Reset()

		Expect(a.State()).To(Equal(StateIdle))
	})

	It("should trace each transaction", func() {
		rec := &taskRecorder{}
		a.AcceptHook(rec)

		cycle(true, write, bus.Backward{AddrReady: true, WReady: true})
		a.Commit()
		cycle(false, Request{}, bus.Backward{RspValid: true})
		a.Commit()

		Expect(rec.starts).To(HaveLen(1))
		Expect(rec.starts[0].Kind).To(Equal("write"))
		Expect(rec.starts[0].What).To(Equal("W@0x00000104"))
		Expect(rec.ends).To(HaveLen(1))
		Expect(rec.ends[0].ID).To(Equal(rec.starts[0].ID))
	})
})
