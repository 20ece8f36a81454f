package sim

// Clocked is implemented by every element whose registered state advances on
// the cycle boundary. Outputs computed during a cycle only depend on the state
// committed at the previous boundary.
type Clocked interface {
	// Commit applies the staged next state.
	Commit()

	// Reset returns the element to its reset state. Anything staged is
	// discarded.
	Reset()
}

// A Register holds a value that only changes on Commit. Reading a register
// always returns the committed value, no matter what has been staged in the
// current cycle.
type Register[T any] struct {
	cur      T
	next     T
	resetVal T
	staged   bool
}

// NewRegister creates a register that resets to the given value.
func NewRegister[T any](resetVal T) *Register[T] {
	return &Register[T]{
		cur:      resetVal,
		resetVal: resetVal,
	}
}

// Get returns the committed value.
func (r *Register[T]) Get() T {
	return r.cur
}

// Stage sets the value that the register takes at the next Commit. Staging
// more than once in a cycle keeps the last value.
func (r *Register[T]) Stage(v T) {
	r.next = v
	r.staged = true
}

// Staged tells if a value has been staged since the last Commit.
func (r *Register[T]) Staged() bool {
	return r.staged
}

// Commit applies the staged value, if any.
func (r *Register[T]) Commit() {
	if !r.staged {
		return
	}

	r.cur = r.next
	r.staged = false
}

// Reset discards the staged value and returns to the reset value.
func (r *Register[T]) Reset() {
	var zero T

	r.cur = r.resetVal
	r.next = zero
	r.staged = false
}
