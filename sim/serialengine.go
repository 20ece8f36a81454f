package sim

import (
	"log"
	"reflect"
	"sync"
)

// A SerialEngine runs events one after another on the calling goroutine.
type SerialEngine struct {
	HookableBase

	mu     sync.Mutex
	resume *sync.Cond
	now    VTimeInSec
	paused bool
	queue  EventQueue

	running sync.Mutex
}

// NewSerialEngine creates a SerialEngine.
func NewSerialEngine() *SerialEngine {
	e := &SerialEngine{queue: NewEventQueue()}
	e.resume = sync.NewCond(&e.mu)

	return e
}

// Schedule registers an event. Events cannot be scheduled in the past.
func (e *SerialEngine) Schedule(evt Event) {
	now := e.CurrentTime()
	if evt.Time() < now {
		log.Panicf("event %s scheduled at %.10f, before now %.10f",
			reflect.TypeOf(evt), evt.Time(), now)
	}

	e.queue.Push(evt)
}

// Run processes the scheduled events, including the ones scheduled while
// running, in time order. Events at the same time run in the order they
// were scheduled. Run stops at the first handler error and returns it.
func (e *SerialEngine) Run() error {
	e.running.Lock()
	defer e.running.Unlock()

	for {
		evt, ok := e.next()
		if !ok {
			return nil
		}

		if err := e.handle(evt); err != nil {
			return err
		}
	}
}

// next waits while paused, then pops the next event and moves the time to
// it.
func (e *SerialEngine) next() (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.paused {
		e.resume.Wait()
	}

	if e.queue.Len() == 0 {
		return nil, false
	}

	evt := e.queue.Pop()
	e.now = evt.Time()

	return evt, true
}

func (e *SerialEngine) handle(evt Event) error {
	ctx := HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(ctx)

	err := evt.Handler().Handle(evt)

	ctx.Pos = HookPosAfterEvent
	e.InvokeHook(ctx)

	return err
}

// Pause stops the engine before its next event. Pausing twice is the same as
// pausing once.
func (e *SerialEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.paused = true
}

// Continue resumes a paused engine.
func (e *SerialEngine) Continue() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.paused = false
	e.resume.Broadcast()
}

// IsPaused tells whether Pause has been called without a matching Continue.
func (e *SerialEngine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.paused
}

// CurrentTime returns the time of the event being run or last run.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.now
}
