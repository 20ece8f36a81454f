package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should give the period", func() {
		Expect((100 * MHz).Period()).To(BeNumerically("~", 10e-9, 1e-18))
	})

	It("should panic on a zero frequency", func() {
		var f Freq
		Expect(func() { f.Period() }).To(Panic())
	})

	It("should panic on a NaN time", func() {
		nan := VTimeInSec(0)
		nan /= nan
		Expect(func() { GHz.ThisTick(nan) }).To(Panic())
	})

	DescribeTable("tick times at 1 GHz",
		func(get func(VTimeInSec) VTimeInSec, now, want float64) {
			Expect(get(VTimeInSec(now))).
				To(BeNumerically("~", want, 1e-12))
		},
		Entry("this tick on a tick", GHz.ThisTick, 5e-9, 5e-9),
		Entry("this tick between ticks", GHz.ThisTick, 5.5e-9, 6e-9),
		Entry("next tick on a tick", GHz.NextTick, 102.000000001, 102.000000002),
		Entry("next tick off a tick", GHz.NextTick, 102.0000000011, 102.000000002),
	)

	It("should give the time n cycles later", func() {
		Expect(GHz.NCyclesLater(12, 102.000000001)).
			To(BeNumerically("~", 102.000000013, 1e-12))
	})

	It("should convert between cycles and time", func() {
		f := 100 * MHz
		Expect(f.Cycle(f.CycleTime(42))).To(Equal(uint64(42)))
		Expect(f.CycleTime(3)).To(BeNumerically("~", 30e-9, 1e-15))
	})
})
