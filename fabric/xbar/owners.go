package xbar

import "log"

// ownerFIFO remembers, in issue order, which initiator each outstanding
// request at a target belongs to. Pushes and pops are staged and applied on
// commit.
type ownerFIFO struct {
	slots       []int
	head, count int

	push      int
	pushValid bool
	pop       bool
}

func newOwnerFIFO(capacity int) ownerFIFO {
	return ownerFIFO{slots: make([]int, capacity)}
}

func (q *ownerFIFO) peek() (int, bool) {
	if q.count == 0 {
		return 0, false
	}

	return q.slots[q.head], true
}

func (q *ownerFIFO) len() int {
	return q.count
}

func (q *ownerFIFO) stagePush(initiator int) {
	q.push = initiator
	q.pushValid = true
}

func (q *ownerFIFO) stagePop() {
	q.pop = true
}

func (q *ownerFIFO) commit() {
	if q.pop {
		if q.count == 0 {
			log.Panic("popping an empty owner queue")
		}

		q.head = (q.head + 1) % len(q.slots)
		q.count--
	}

	if q.pushValid {
		if q.count == len(q.slots) {
			log.Panic("owner queue overflow")
		}

		q.slots[(q.head+q.count)%len(q.slots)] = q.push
		q.count++
	}

	q.pop = false
	q.pushValid = false
}

func (q *ownerFIFO) reset() {
	q.head = 0
	q.count = 0
	q.pop = false
	q.pushValid = false
}
