// Package timer models the machine timer: a free-running 64-bit counter and a
// compare register that raises the timer interrupt.
package timer

import (
	"github.com/pkg/errors"

	"github.com/komandara/k10fabric/fabric/bus"
)

// Register offsets.
const (
	RegMTimeLo    uint32 = 0x0
	RegMTimeHi    uint32 = 0x4
	RegMTimeCmpLo uint32 = 0x8
	RegMTimeCmpHi uint32 = 0xC
)

// Timer counts cycles. Writes to a counter half take effect in the cycle they
// are performed, and the counter does not advance in that cycle.
type Timer struct {
	mtime    uint64
	mtimecmp uint64
	written  bool
}

// New creates a timer in its reset state.
func New() *Timer {
	t := &Timer{}
	t.Reset()

	return t
}

// MTime returns the counter.
func (t *Timer) MTime() uint64 {
	return t.mtime
}

// MTimeCmp returns the compare value.
func (t *Timer) MTimeCmp() uint64 {
	return t.mtimecmp
}

// InterruptPending tells if the counter has reached the compare value.
func (t *Timer) InterruptPending() bool {
	return t.mtime >= t.mtimecmp
}

// Read returns a register.
func (t *Timer) Read(offset uint32) (uint32, error) {
	switch offset &^ 0x3 {
	case RegMTimeLo:
		return uint32(t.mtime), nil
	case RegMTimeHi:
		return uint32(t.mtime >> 32), nil
	case RegMTimeCmpLo:
		return uint32(t.mtimecmp), nil
	case RegMTimeCmpHi:
		return uint32(t.mtimecmp >> 32), nil
	default:
		return 0, errors.Errorf("timer has no register at 0x%x", offset)
	}
}

// Write updates a register.
func (t *Timer) Write(offset uint32, data uint32, mask uint8) error {
	switch offset &^ 0x3 {
	case RegMTimeLo:
		t.mtime = setLo(t.mtime, bus.ApplyMask(uint32(t.mtime), data, mask))
		t.written = true
	case RegMTimeHi:
		t.mtime = setHi(t.mtime, bus.ApplyMask(uint32(t.mtime>>32), data, mask))
		t.written = true
	case RegMTimeCmpLo:
		t.mtimecmp = setLo(t.mtimecmp,
			bus.ApplyMask(uint32(t.mtimecmp), data, mask))
	case RegMTimeCmpHi:
		t.mtimecmp = setHi(t.mtimecmp,
			bus.ApplyMask(uint32(t.mtimecmp>>32), data, mask))
	default:
		return errors.Errorf("timer has no register at 0x%x", offset)
	}

	return nil
}

func setLo(v uint64, lo uint32) uint64 {
	return v&^0xFFFFFFFF | uint64(lo)
}

func setHi(v uint64, hi uint32) uint64 {
	return v&0xFFFFFFFF | uint64(hi)<<32
}

// Commit advances the counter by one cycle.
func (t *Timer) Commit() {
	if !t.written {
		t.mtime++
	}

	t.written = false
}

// Reset clears the counter and sets the compare value to its maximum.
func (t *Timer) Reset() {
	t.mtime = 0
	t.mtimecmp = ^uint64(0)
	t.written = false
}
