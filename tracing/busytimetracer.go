package tracing

import (
	"sort"
	"sync"

	"github.com/komandara/k10fabric/sim"
)

type interval struct {
	start, end sim.VTimeInSec
}

// BusyTimeTracer traces the time that a domain is processing a kind of task.
// Overlapping tasks only count once.
type BusyTimeTracer struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	lock      sync.Mutex
	inflight  map[string]sim.VTimeInSec
	completed []interval
	busyTime  sim.VTimeInSec
}

// NewBusyTimeTracer creates a new BusyTimeTracer
func NewBusyTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *BusyTimeTracer {
	return &BusyTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		inflight:   make(map[string]sim.VTimeInSec),
	}
}

// BusyTime returns the total time covered by the tasks that have ended.
func (t *BusyTimeTracer) BusyTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.collapse()

	return t.busyTime
}

// TerminateAllTasks ends all the tasks in flight at the current time.
func (t *BusyTimeTracer) TerminateAllTasks() {
	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.timeTeller.CurrentTime()
	for id, start := range t.inflight {
		t.completed = append(t.completed, interval{start: start, end: now})
		delete(t.inflight, id)
	}
}

// StartTask records the task start time
func (t *BusyTimeTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.inflight[task.ID] = t.timeTeller.CurrentTime()
}

// StepTask does nothing
func (t *BusyTimeTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task
func (t *BusyTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	start, ok := t.inflight[task.ID]
	if !ok {
		return
	}

	delete(t.inflight, task.ID)
	t.completed = append(t.completed,
		interval{start: start, end: t.timeTeller.CurrentTime()})
}

// collapse folds the completed intervals that end before every task in
// flight starts into the busy time.
func (t *BusyTimeTracer) collapse() {
	horizon := sim.VTimeInSec(-1)
	for _, start := range t.inflight {
		if horizon < 0 || start < horizon {
			horizon = start
		}
	}

	sort.Slice(t.completed, func(i, j int) bool {
		return t.completed[i].start < t.completed[j].start
	})

	var (
		kept   []interval
		merged *interval
	)

	for _, iv := range t.completed {
		if horizon >= 0 && iv.end > horizon {
			kept = append(kept, iv)
			continue
		}

		if merged != nil && iv.start <= merged.end {
			if iv.end > merged.end {
				merged.end = iv.end
			}

			continue
		}

		if merged != nil {
			t.busyTime += merged.end - merged.start
		}

		merged = &interval{start: iv.start, end: iv.end}
	}

	if merged != nil {
		t.busyTime += merged.end - merged.start
	}

	t.completed = kept
}
