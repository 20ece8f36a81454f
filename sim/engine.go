package sim

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	Schedule(e Event)
}

// An Engine runs events in time order.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run processes events until none is left or a handler fails.
	Run() error

	// Pause stops the engine before the next event.
	Pause()

	// Continue lets a paused engine go on.
	Continue()
}

// An Event is something that happens to a handler at a point in time.
type Event interface {
	Time() VTimeInSec
	Handler() Handler
}

// A Handler reacts to the events scheduled for it. An event only changes the
// state of its own handler.
type Handler interface {
	Handle(e Event) error
}

// EventBase holds the time and the handler of an event.
type EventBase struct {
	ID      string
	time    VTimeInSec
	handler Handler
}

// NewEventBase creates an EventBase with a fresh ID.
func NewEventBase(t VTimeInSec, handler Handler) EventBase {
	return EventBase{
		ID:      GetIDGenerator().Generate(),
		time:    t,
		handler: handler,
	}
}

// Time returns when the event happens.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler of the event.
func (e EventBase) Handler() Handler {
	return e.handler
}
