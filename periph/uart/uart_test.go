package uart

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/komandara/k10fabric/fabric/bus"
)

var _ = Describe("UART", func() {
	var (
		tx *bytes.Buffer
		u  *UART
	)

	BeforeEach(func() {
		tx = &bytes.Buffer{}
		u = New(tx)
	})

	It("should always be ready to transmit", func() {
		Expect(u.Read(RegStatus)).To(Equal(StatusTxReady))
	})

	It("should transmit bytes", func() {
		Expect(u.Write(RegTxRx, 'O', bus.FullMask)).To(Succeed())
		Expect(u.Write(RegTxRx, 'K', bus.FullMask)).To(Succeed())

		Expect(tx.String()).To(Equal("OK"))
		Expect(u.BytesSent()).To(Equal(uint64(2)))
	})

	It("should keep the baud divider", func() {
		Expect(u.Read(RegBaudDiv)).To(Equal(DefaultBaudDiv))

		Expect(u.Write(RegBaudDiv, 54, bus.FullMask)).To(Succeed())
		Expect(u.Read(RegBaudDiv)).To(Equal(uint32(54)))
	})

	It("should raise the transmit interrupt when enabled", func() {
		Expect(u.Write(RegTxRx, 'a', bus.FullMask)).To(Succeed())
		Expect(u.InterruptPending()).To(BeFalse())

		Expect(u.Write(RegCtrl, CtrlTxIRQEnable, bus.FullMask)).To(Succeed())
		Expect(u.InterruptPending()).To(BeTrue())

		Expect(u.Write(RegIRQClr, 1, bus.FullMask)).To(Succeed())
		Expect(u.InterruptPending()).To(BeFalse())
	})

	It("should reject unknown registers", func() {
		_, err := u.Read(0x14)
		Expect(err).To(HaveOccurred())
	})

	It("should reset the registers", func() {
		Expect(u.Write(RegCtrl, 3, bus.FullMask)).To(Succeed())
		u.Reset()

		Expect(u.Read(RegCtrl)).To(Equal(uint32(0)))
	})
})
