package sim

import (
	"container/heap"
	"sync"
)

// EventQueue are a queue of event ordered by the time of events. Events
// scheduled for the same time come out in the order they were pushed.
type EventQueue interface {
	Push(evt Event)
	Pop() Event
	Len() int
	Peek() Event
}

// NewEventQueue creates an empty, thread-safe EventQueue.
func NewEventQueue() EventQueue {
	q := &heapEventQueue{}
	heap.Init(&q.entries)

	return q
}

type queuedEvent struct {
	evt Event
	seq uint64
}

type heapEventQueue struct {
	lock    sync.Mutex
	entries eventHeap
	nextSeq uint64
}

func (q *heapEventQueue) Push(evt Event) {
	q.lock.Lock()
	defer q.lock.Unlock()

	heap.Push(&q.entries, queuedEvent{evt: evt, seq: q.nextSeq})
	q.nextSeq++
}

func (q *heapEventQueue) Pop() Event {
	q.lock.Lock()
	defer q.lock.Unlock()

	return heap.Pop(&q.entries).(queuedEvent).evt
}

func (q *heapEventQueue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()

	return len(q.entries)
}

func (q *heapEventQueue) Peek() Event {
	q.lock.Lock()
	defer q.lock.Unlock()

	return q.entries[0].evt
}

type eventHeap []queuedEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	ti, tj := h[i].evt.Time(), h[j].evt.Time()
	if ti == tj {
		return h[i].seq < h[j].seq
	}

	return ti < tj
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(queuedEvent))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]

	return e
}
