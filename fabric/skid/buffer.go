// Package skid provides the one-entry elastic buffer that decouples a
// producer from a consumer on a valid/ready channel.
package skid

import (
	"github.com/komandara/k10fabric/sim"
)

// A Buffer is a one-entry skid buffer.
//
// The producer may send whenever the buffer is empty, so the ready signal it
// sees never depends on the consumer in the same cycle. When empty, the
// buffer presents the producer's item directly to the consumer. An item that
// the consumer does not accept is captured and presented until it is
// accepted.
type Buffer[T any] struct {
	sim.HookableBase

	name     string
	occupied *sim.Register[bool]
	item     *sim.Register[T]

	captured T
	pushed   bool
	popped   bool
}

// NewBuffer creates an empty buffer.
func NewBuffer[T any](name string) *Buffer[T] {
	sim.NameMustBeValid(name)

	var zero T

	return &Buffer[T]{
		name:     name,
		occupied: sim.NewRegister(false),
		item:     sim.NewRegister(zero),
	}
}

// Name returns the name of the buffer.
func (b *Buffer[T]) Name() string {
	return b.name
}

// Occupied tells if the buffer holds an item.
func (b *Buffer[T]) Occupied() bool {
	return b.occupied.Get()
}

// Size returns the number of items held, which is 0 or 1.
func (b *Buffer[T]) Size() int {
	if b.occupied.Get() {
		return 1
	}

	return 0
}

// Capacity returns 1.
func (b *Buffer[T]) Capacity() int {
	return 1
}

// ProducerMaySend tells if an item offered in this cycle is taken.
func (b *Buffer[T]) ProducerMaySend() bool {
	return !b.occupied.Get()
}

// Output returns what the consumer sees in this cycle, given what the
// producer offers.
func (b *Buffer[T]) Output(inValid bool, in T) (valid bool, item T) {
	if b.occupied.Get() {
		return true, b.item.Get()
	}

	return inValid, in
}

// Update stages the next state from the producer's offer and the consumer's
// readiness in this cycle.
func (b *Buffer[T]) Update(inValid bool, in T, outReady bool) {
	b.pushed = false
	b.popped = false

	if b.occupied.Get() {
		if outReady {
			b.occupied.Stage(false)
			b.popped = true
		}

		return
	}

	if inValid && !outReady {
		b.occupied.Stage(true)
		b.item.Stage(in)
		b.captured = in
		b.pushed = true
	}
}

// Commit applies the state staged by Update.
func (b *Buffer[T]) Commit() {
	var released T
	if b.popped {
		released = b.item.Get()
	}

	b.occupied.Commit()
	b.item.Commit()

	if b.NumHooks() > 0 {
		b.invokeHooks(released)
	}

	b.pushed = false
	b.popped = false
}

func (b *Buffer[T]) invokeHooks(released T) {
	if b.popped {
		b.InvokeHook(sim.HookCtx{
			Domain: b,
			Pos:    sim.HookPosBufPop,
			Item:   released,
		})
	}

	if b.pushed {
		b.InvokeHook(sim.HookCtx{
			Domain: b,
			Pos:    sim.HookPosBufPush,
			Item:   b.captured,
		})
	}
}

// Reset empties the buffer.
func (b *Buffer[T]) Reset() {
	b.occupied.Reset()
	b.item.Reset()
	b.pushed = false
	b.popped = false
}
