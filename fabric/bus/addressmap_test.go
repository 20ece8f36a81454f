package bus

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AddressMap", func() {
	var (
		mem    = AddrRange{Base: 0x00000000, Mask: 0xFFFF0000}
		periph = AddrRange{Base: 0x40000000, Mask: 0xFFFF0000}
	)

	It("should decode the first and the last address of a range", func() {
		m := MustNewAddressMap(mem, periph)

		for i, r := range []AddrRange{mem, periph} {
			t, ok := m.Decode(r.Base)
			Expect(ok).To(BeTrue())
			Expect(t).To(Equal(i))

			t, ok = m.Decode(r.Base | ^r.Mask)
			Expect(ok).To(BeTrue())
			Expect(t).To(Equal(i))
		}

		Expect(periph.Last()).To(Equal(uint32(0x4000FFFF)))
	})

	It("should not decode unmapped addresses", func() {
		m := MustNewAddressMap(mem, periph)

		_, ok := m.Decode(0x80000000)
		Expect(ok).To(BeFalse())

		_, ok = m.Decode(0x00010000)
		Expect(ok).To(BeFalse())
	})

	It("should reject overlapping ranges", func() {
		_, err := NewAddressMap(
			mem,
			AddrRange{Base: 0x00001000, Mask: 0xFFFFF000},
		)

		Expect(err).To(MatchError(ContainSubstring("overlaps")))
	})

	It("should reject bases outside their masks", func() {
		_, err := NewAddressMap(AddrRange{Base: 0x40000010, Mask: 0xFFFF0000})

		Expect(err).To(MatchError(ContainSubstring("outside of its mask")))
	})

	It("should reject an empty map", func() {
		_, err := NewAddressMap()

		Expect(err).To(HaveOccurred())
	})

	It("should keep disjoint ranges with different masks", func() {
		m, err := NewAddressMap(
			AddrRange{Base: 0x40000000, Mask: 0xFFFFF000},
			AddrRange{Base: 0x40001000, Mask: 0xFFFFF000},
			AddrRange{Base: 0x40002000, Mask: 0xFFFFF000},
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Len()).To(Equal(3))

		t, ok := m.Decode(0x40001FFC)
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(1))
	})
})

var _ = Describe("ApplyMask", func() {
	It("should merge enabled lanes only", func() {
		Expect(ApplyMask(0x11223344, 0xAABBCCDD, 0x0)).To(Equal(uint32(0x11223344)))
		Expect(ApplyMask(0x11223344, 0xAABBCCDD, 0xF)).To(Equal(uint32(0xAABBCCDD)))
		Expect(ApplyMask(0x11223344, 0xAABBCCDD, 0x1)).To(Equal(uint32(0x112233DD)))
		Expect(ApplyMask(0x11223344, 0xAABBCCDD, 0xA)).To(Equal(uint32(0xAA22CC44)))
	})
})
