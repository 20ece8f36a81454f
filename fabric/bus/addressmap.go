package bus

import (
	"fmt"

	"github.com/pkg/errors"
)

// An AddrRange selects the addresses a for which a & Mask == Base.
type AddrRange struct {
	Base uint32
	Mask uint32
}

// Contains tells if the address falls in the range.
func (r AddrRange) Contains(addr uint32) bool {
	return addr&r.Mask == r.Base
}

// Last returns the highest address in the range.
func (r AddrRange) Last() uint32 {
	return r.Base | ^r.Mask
}

// Overlaps tells if at least one address belongs to both ranges.
func (r AddrRange) Overlaps(o AddrRange) bool {
	return (r.Base^o.Base)&r.Mask&o.Mask == 0
}

func (r AddrRange) String() string {
	return fmt.Sprintf("[0x%08x/0x%08x]", r.Base, r.Mask)
}

// AddressMap decodes addresses to target indices. It is fixed at build time.
type AddressMap struct {
	ranges []AddrRange
}

// NewAddressMap creates an address map where target i owns ranges[i]. It
// returns an error if a base has bits set outside of its mask, or if two ranges
// overlap.
func NewAddressMap(ranges ...AddrRange) (*AddressMap, error) {
	if len(ranges) == 0 {
		return nil, errors.New("address map has no range")
	}

	for i, r := range ranges {
		if r.Base&^r.Mask != 0 {
			return nil, errors.Errorf(
				"range %d %s has base bits outside of its mask", i, r)
		}

		for j := 0; j < i; j++ {
			if r.Overlaps(ranges[j]) {
				return nil, errors.Errorf(
					"range %d %s overlaps range %d %s", i, r, j, ranges[j])
			}
		}
	}

	m := &AddressMap{
		ranges: make([]AddrRange, len(ranges)),
	}
	copy(m.ranges, ranges)

	return m, nil
}

// MustNewAddressMap is like NewAddressMap, but panics on error.
func MustNewAddressMap(ranges ...AddrRange) *AddressMap {
	m, err := NewAddressMap(ranges...)
	if err != nil {
		panic(err)
	}

	return m
}

// Decode returns the index of the target that owns the address. Ranges are
// tested in target index order.
func (m *AddressMap) Decode(addr uint32) (target int, ok bool) {
	for i, r := range m.ranges {
		if r.Contains(addr) {
			return i, true
		}
	}

	return 0, false
}

// Len returns the number of targets in the map.
func (m *AddressMap) Len() int {
	return len(m.ranges)
}

// Range returns the range owned by target i.
func (m *AddressMap) Range(i int) AddrRange {
	return m.ranges[i]
}
