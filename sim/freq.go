package sim

import (
	"log"
	"math"
)

// VTimeInSec is a point in simulated time, in seconds.
type VTimeInSec float64

// Freq is a clock frequency in Hz.
type Freq float64

// Frequency units.
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the time between two ticks.
func (f Freq) Period() VTimeInSec {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	return VTimeInSec(1.0 / f)
}

// Cycle returns the number of ticks between time 0 and t.
func (f Freq) Cycle(t VTimeInSec) uint64 {
	return uint64(math.Round(float64(t) * float64(f)))
}

// CycleTime returns the time of a tick.
func (f Freq) CycleTime(cycle uint64) VTimeInSec {
	return VTimeInSec(float64(cycle) / float64(f))
}

// ticks returns t in cycles, rounded to a tenth of a cycle so that float
// error does not push a tick time into the next cycle.
func (f Freq) ticks(t VTimeInSec) float64 {
	if math.IsNaN(float64(t)) {
		log.Panic("time is NaN")
	}

	return math.Round(float64(t)*float64(f)*10) / 10
}

// ThisTick returns the first tick at or after t.
func (f Freq) ThisTick(t VTimeInSec) VTimeInSec {
	return VTimeInSec(math.Ceil(f.ticks(t)) / float64(f))
}

// NextTick returns the first tick strictly after t.
func (f Freq) NextTick(t VTimeInSec) VTimeInSec {
	return VTimeInSec((math.Floor(f.ticks(t)) + 1) / float64(f))
}

// NCyclesLater returns the tick n cycles after t.
func (f Freq) NCyclesLater(n int, t VTimeInSec) VTimeInSec {
	return f.ThisTick(t + VTimeInSec(float64(n)/float64(f)))
}
