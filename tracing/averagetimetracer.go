package tracing

import (
	"sync"

	"github.com/komandara/k10fabric/sim"
)

// AverageTimeTracer measures how long the tasks that pass its filter take
// from start to end.
type AverageTimeTracer struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	lock      sync.Mutex
	inflight  map[string]sim.VTimeInSec
	totalTime sim.VTimeInSec
	minTime   sim.VTimeInSec
	maxTime   sim.VTimeInSec
	taskCount uint64
}

// NewAverageTimeTracer creates a new AverageTimeTracer. A nil filter keeps
// every task.
func NewAverageTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	return &AverageTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		inflight:   make(map[string]sim.VTimeInSec),
	}
}

// AverageTime returns the average time of the tasks that have ended.
func (t *AverageTimeTracer) AverageTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.taskCount == 0 {
		return 0
	}

	return t.totalTime / sim.VTimeInSec(t.taskCount)
}

// MinTime returns the shortest time of one task.
func (t *AverageTimeTracer) MinTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.minTime
}

// MaxTime returns the longest time of one task.
func (t *AverageTimeTracer) MaxTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.maxTime
}

// TotalCount returns the number of tasks that have ended.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount
}

// StartTask records when the task starts.
func (t *AverageTimeTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.inflight[task.ID] = t.timeTeller.CurrentTime()
}

// StepTask ignores the steps.
func (t *AverageTimeTracer) StepTask(_ Task) {}

// EndTask adds the time of the task to the statistics.
func (t *AverageTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	start, ok := t.inflight[task.ID]
	if !ok {
		return
	}

	delete(t.inflight, task.ID)

	taskTime := t.timeTeller.CurrentTime() - start
	if t.taskCount == 0 || taskTime < t.minTime {
		t.minTime = taskTime
	}

	t.maxTime = max(t.maxTime, taskTime)
	t.totalTime += taskTime
	t.taskCount++
}
