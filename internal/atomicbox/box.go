package atomicbox

import "sync"

// Box is a mutable cell whose reads and read-modify-write cycles are
// serialized against each other. Values stored in a Box should be treated as
// immutable: update functions return a new value instead of mutating the old
// one, so snapshots returned by Get stay valid after later updates.
type Box[T any] struct {
	mu    sync.Mutex
	value T
}

// New creates a Box holding value.
func New[T any](value T) *Box[T] {
	return &Box[T]{value: value}
}

// Get returns the current value.
func (b *Box[T]) Get() T {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.value
}

// Update replaces the held value with f(old). f runs inside the critical
// section and must not call back into the same Box.
func (b *Box[T]) Update(f func(T) T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.value = f(b.value)
}

// Modify is Update for callers that also need a result computed from the
// same snapshot, e.g. a pop or a compare-and-swap style decision.
func Modify[T, R any](b *Box[T], f func(T) (T, R)) R {
	b.mu.Lock()
	defer b.mu.Unlock()

	var result R
	b.value, result = f(b.value)

	return result
}
