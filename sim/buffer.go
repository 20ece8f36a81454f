package sim

import "log"

// HookPosBufPush marks when an element is pushed into a buffer.
var HookPosBufPush = &HookPos{Name: "Buffer Push"}

// HookPosBufPop marks when an element is popped from a buffer.
var HookPosBufPop = &HookPos{Name: "Buffer Pop"}

// A Buffer is a bounded FIFO queue of typed elements.
type Buffer[T any] struct {
	HookableBase

	name     string
	capacity int
	elements []T
}

// NewBuffer creates an empty buffer that holds up to capacity elements.
func NewBuffer[T any](name string, capacity int) *Buffer[T] {
	NameMustBeValid(name)

	if capacity <= 0 {
		log.Panicf("buffer %s has capacity %d", name, capacity)
	}

	return &Buffer[T]{
		name:     name,
		capacity: capacity,
		elements: make([]T, 0, capacity),
	}
}

// Name returns the name of the buffer.
func (b *Buffer[T]) Name() string {
	return b.name
}

// CanPush tells if the buffer has a free slot.
func (b *Buffer[T]) CanPush() bool {
	return len(b.elements) < b.capacity
}

// Push appends an element. Pushing into a full buffer panics.
func (b *Buffer[T]) Push(e T) {
	if !b.CanPush() {
		log.Panicf("buffer %s overflow", b.name)
	}

	b.elements = append(b.elements, e)
	b.invokeHook(HookPosBufPush, e)
}

// Pop removes and returns the oldest element.
func (b *Buffer[T]) Pop() (T, bool) {
	var zero T

	if len(b.elements) == 0 {
		return zero, false
	}

	e := b.elements[0]
	copy(b.elements, b.elements[1:])
	b.elements[len(b.elements)-1] = zero
	b.elements = b.elements[:len(b.elements)-1]

	b.invokeHook(HookPosBufPop, e)

	return e, true
}

// Peek returns the oldest element without removing it.
func (b *Buffer[T]) Peek() (T, bool) {
	if len(b.elements) == 0 {
		var zero T
		return zero, false
	}

	return b.elements[0], true
}

// Capacity returns the number of slots.
func (b *Buffer[T]) Capacity() int {
	return b.capacity
}

// Size returns the number of elements held.
func (b *Buffer[T]) Size() int {
	return len(b.elements)
}

// Clear drops all the elements.
func (b *Buffer[T]) Clear() {
	clear(b.elements)
	b.elements = b.elements[:0]
}

func (b *Buffer[T]) invokeHook(pos *HookPos, e T) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(HookCtx{
		Domain: b,
		Pos:    pos,
		Item:   e,
	})
}
