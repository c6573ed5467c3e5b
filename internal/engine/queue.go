package engine

import (
	"slices"
	"sync"
)

// QueueProcessor limits how many items load at the same time. Items wait in
// FIFO order until a slot is released.
type QueueProcessor struct {
	maxConcurrent int
	startFn       func(id string) error

	mu      sync.Mutex
	pending []string
	active  map[string]struct{}
}

// NewQueueProcessor creates a new queue processor
func NewQueueProcessor(maxConcurrent int, startFn func(id string) error) *QueueProcessor {
	return &QueueProcessor{
		maxConcurrent: max(maxConcurrent, 1),
		startFn:       startFn,
		active:        make(map[string]struct{}),
	}
}

// Enqueue adds id to the queue unless it is already queued or active.
func (q *QueueProcessor) Enqueue(id string) {
	q.mu.Lock()
	if _, ok := q.active[id]; !ok && !slices.Contains(q.pending, id) {
		q.pending = append(q.pending, id)
	}
	ready := q.fillAvailableSlots()
	q.mu.Unlock()

	q.startAll(ready)
}

// Release frees the slot held by id, or drops it from the queue.
func (q *QueueProcessor) Release(id string) {
	q.mu.Lock()
	delete(q.active, id)
	q.pending = slices.DeleteFunc(q.pending, func(p string) bool { return p == id })
	ready := q.fillAvailableSlots()
	q.mu.Unlock()

	q.startAll(ready)
}

// Active reports whether id currently holds a slot.
func (q *QueueProcessor) Active(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.active[id]
	return ok
}

// Queued reports how many items wait for a slot.
func (q *QueueProcessor) Queued() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// fillAvailableSlots moves waiting ids into free slots. Must hold q.mu.
func (q *QueueProcessor) fillAvailableSlots() []string {
	available := q.maxConcurrent - len(q.active)
	if available <= 0 || len(q.pending) == 0 {
		return nil
	}

	toStart := min(available, len(q.pending))
	ready := slices.Clone(q.pending[:toStart])
	q.pending = slices.Delete(q.pending, 0, toStart)

	for _, id := range ready {
		q.active[id] = struct{}{}
	}
	return ready
}

// startAll runs startFn outside the lock; a failed start frees its slot.
func (q *QueueProcessor) startAll(ids []string) {
	for _, id := range ids {
		if err := q.startFn(id); err != nil {
			q.Release(id)
		}
	}
}
