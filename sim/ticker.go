package sim

import (
	"sync"
)

// A TickEvent asks a handler to advance one cycle.
type TickEvent struct {
	EventBase
}

// MakeTickEvent creates a TickEvent for the handler at the given time.
func MakeTickEvent(handler Handler, time VTimeInSec) TickEvent {
	return TickEvent{EventBase: NewEventBase(time, handler)}
}

// A Ticker updates its state by one cycle and reports if anything changed.
type Ticker interface {
	Tick() bool
}

// A TickScheduler schedules the tick events of a handler on clock edges,
// at most one per edge.
type TickScheduler struct {
	Freq   Freq
	Engine Engine

	lock     sync.Mutex
	handler  Handler
	nextTick VTimeInSec
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *TickScheduler {
	return &TickScheduler{
		Freq:     freq,
		Engine:   engine,
		handler:  handler,
		nextTick: -1,
	}
}

// TickNow schedules a tick on the current clock edge.
func (t *TickScheduler) TickNow() {
	t.scheduleAt(t.Freq.ThisTick(t.CurrentTime()))
}

// TickLater schedules a tick on the clock edge after now.
func (t *TickScheduler) TickLater() {
	t.scheduleAt(t.Freq.NextTick(t.CurrentTime()))
}

func (t *TickScheduler) scheduleAt(time VTimeInSec) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.nextTick >= time {
		return
	}

	t.nextTick = time
	t.Engine.Schedule(MakeTickEvent(t.handler, time))
}

// CurrentTime returns the time of the engine that drives the scheduler.
func (t *TickScheduler) CurrentTime() VTimeInSec {
	return t.Engine.CurrentTime()
}

// A TickingComponent is a named, hookable element that ticks every cycle for
// as long as its ticker makes progress. A ticker that stops making progress
// must be woken up with TickNow or TickLater.
type TickingComponent struct {
	HookableBase
	*TickScheduler

	name   string
	ticker Ticker
}

// NewTickingComponent creates a new ticking component.
func NewTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	NameMustBeValid(name)

	tc := &TickingComponent{
		name:   name,
		ticker: ticker,
	}
	tc.TickScheduler = NewTickScheduler(tc, engine, freq)

	return tc
}

// Name returns the name of the component.
func (c *TickingComponent) Name() string {
	return c.name
}

// Handle runs one tick and schedules the next if the tick made progress.
func (c *TickingComponent) Handle(_ Event) error {
	if c.ticker.Tick() {
		c.TickLater()
	}

	return nil
}
