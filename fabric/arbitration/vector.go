package arbitration

import (
	"fmt"
	"math/bits"
)

// MaxRequesters is the largest number of requesters an Arbiter serves.
const MaxRequesters = 64

// A Vector holds one bit per requester. Bit i stands for requester i.
type Vector uint64

// OneHot returns the vector with only bit i set.
func OneHot(i int) Vector {
	return Vector(1) << uint(i)
}

// Set returns the vector with bit i set.
func (v Vector) Set(i int) Vector {
	return v | OneHot(i)
}

// Bit tells if bit i is set.
func (v Vector) Bit(i int) bool {
	return v&OneHot(i) != 0
}

// Any tells if at least one bit is set.
func (v Vector) Any() bool {
	return v != 0
}

// IsOneHotOrZero tells if at most one bit is set.
func (v Vector) IsOneHotOrZero() bool {
	return v&(v-1) == 0
}

// Lowest returns the index of the lowest set bit.
func (v Vector) Lowest() (int, bool) {
	if v == 0 {
		return 0, false
	}

	return bits.TrailingZeros64(uint64(v)), true
}

func (v Vector) String() string {
	return fmt.Sprintf("%b", uint64(v))
}

func widthMask(n int) Vector {
	if n >= MaxRequesters {
		return ^Vector(0)
	}

	return OneHot(n) - 1
}
