package soc

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/komandara/k10fabric/fabric/arbitration"
)

var _ = Describe("Spec", func() {
	It("should describe the K10 by default", func() {
		s := Defaults()

		Expect(s.Validate()).To(Succeed())
		Expect(s.MemorySize()).To(Equal(uint64(64 << 10)))
		Expect(s.MaxCycles).To(Equal(uint64(1_000_000)))
		Expect(s.ResetCycles).To(Equal(5))
		Expect(s.TimerRange().Contains(0x4000_000C)).To(BeTrue())
		Expect(s.SimCtrlRange().Contains(0x4000_1004)).To(BeTrue())
		Expect(s.UARTRange().Contains(0x4000_2010)).To(BeTrue())
	})

	It("should reject overlapping windows", func() {
		s := Defaults()
		s.Periph.Base = 0x0000_0000
		s.Periph.Timer = 0x0000_0000
		s.Periph.SimCtrl = 0x0000_1000
		s.Periph.UART = 0x0000_2000

		Expect(s.Validate()).To(MatchError(ContainSubstring("fabric address map")))
	})

	It("should reject blocks outside the peripheral window", func() {
		s := Defaults()
		s.Periph.UART = 0x5000_0000

		Expect(s.Validate()).To(MatchError(ContainSubstring("outside")))
	})

	It("should reject overlapping blocks", func() {
		s := Defaults()
		s.Periph.UART = s.Periph.Timer

		Expect(s.Validate()).To(HaveOccurred())
	})

	It("should reject a sub mask coarser than the window", func() {
		s := Defaults()
		s.Periph.SubMask = 0xFF00_0000

		Expect(s.Validate()).To(HaveOccurred())
	})

	It("should reject bad numbers", func() {
		s := Defaults()
		s.MaxCycles = 0
		Expect(s.Validate()).NotTo(Succeed())

		s = Defaults()
		s.FreqMHz = 0
		Expect(s.Validate()).NotTo(Succeed())

		s = Defaults()
		s.Memory.Latency = -1
		Expect(s.Validate()).NotTo(Succeed())

		s = Defaults()
		s.Memory.Mask = 0xF000_0000
		Expect(s.Validate()).NotTo(Succeed())
	})

	Context("when loading YAML", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		write := func(content string) string {
			path := filepath.Join(dir, "k10.yaml")
			Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

			return path
		}

		It("should override the defaults", func() {
			path := write(`
arbitration: fixed
max_cycles: 5000
memory:
  base: 0x10000000
  mask: 0xFFFFF000
  latency: 3
`)

			s, err := LoadSpec(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(s.Arbitration).To(Equal(arbitration.FixedPriority))
			Expect(s.MaxCycles).To(Equal(uint64(5000)))
			Expect(s.Memory.Base).To(Equal(uint32(0x1000_0000)))
			Expect(s.Memory.Latency).To(Equal(3))
			Expect(s.Periph.UART).To(Equal(uint32(0x4000_2000)))
		})

		It("should reject an unknown policy", func() {
			_, err := LoadSpec(write("arbitration: lottery\n"))

			Expect(err).To(MatchError(ContainSubstring("lottery")))
		})

		It("should reject an invalid layout", func() {
			_, err := LoadSpec(write("periph:\n  base: 0x0\n"))

			Expect(err).To(HaveOccurred())
		})

		It("should report a missing file", func() {
			_, err := LoadSpec(filepath.Join(dir, "none.yaml"))

			Expect(err).To(HaveOccurred())
		})

		It("should read back what it dumps", func() {
			s := Defaults()
			s.Arbitration = arbitration.FixedPriority

			data, err := s.Dump()
			Expect(err).NotTo(HaveOccurred())

			loaded, err := LoadSpec(write(string(data)))
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(s))
		})
	})

	It("should place the self-test on the layout", func() {
		m := Defaults().SelfTestMap()

		Expect(m.Scratch).To(Equal(uint32(0x8000)))
		Expect(m.Unmapped).To(Equal([]uint32{0x4000_3000, 0x8000_0000}))
	})
})
