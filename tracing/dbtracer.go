package tracing

import (
	"sync"

	"github.com/tebeka/atexit"

	"github.com/komandara/k10fabric/datarecording"
	"github.com/komandara/k10fabric/sim"
)

// TaskTableName is the table the DBTracer writes the tasks into.
const TaskTableName = "trace"

// TaskEntry is the row a DBTracer writes for each task. Times are in
// seconds.
type TaskEntry struct {
	ID        string
	ParentID  string
	Kind      string
	What      string
	Location  string
	StartTime float64
	EndTime   float64
}

func makeTaskEntry(task Task) TaskEntry {
	return TaskEntry{
		ID:        task.ID,
		ParentID:  task.ParentID,
		Kind:      task.Kind,
		What:      task.What,
		Location:  task.Location,
		StartTime: float64(task.StartTime),
		EndTime:   float64(task.EndTime),
	}
}

// DBTracer writes every task that ends into a data recorder. A task is only
// written once it ends, so tasks still open at the end of a run are lost.
type DBTracer struct {
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder

	mu                 sync.Mutex
	startTime, endTime sim.VTimeInSec
	open               map[string]Task
}

// NewDBTracer creates the task table in the backend and returns a tracer
// that writes into it. The backend is flushed when the program exits.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	backend datarecording.DataRecorder,
) *DBTracer {
	t := &DBTracer{
		timeTeller: timeTeller,
		backend:    backend,
		open:       make(map[string]Task),
	}

	backend.CreateTable(TaskTableName, TaskEntry{})
	atexit.Register(t.Terminate)

	return t
}

// SetTimeRange only keeps the tasks that overlap the time range. A zero bound
// does not limit.
func (t *DBTracer) SetTimeRange(startTime, endTime sim.VTimeInSec) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startTime = startTime
	t.endTime = endTime
}

// StartTask opens a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task.StartTime = t.timeTeller.CurrentTime()
	if t.endTime > 0 && task.StartTime > t.endTime {
		return
	}

	t.open[task.ID] = task
}

// StepTask ignores the steps.
func (t *DBTracer) StepTask(_ Task) {}

// EndTask closes a task and writes it.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	opened, ok := t.open[task.ID]
	if !ok {
		return
	}

	delete(t.open, task.ID)

	opened.EndTime = t.timeTeller.CurrentTime()
	if t.startTime > 0 && opened.EndTime < t.startTime {
		return
	}

	t.backend.InsertData(TaskTableName, makeTaskEntry(opened))
}

// Terminate drops the open tasks and flushes the backend.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.open)
	t.backend.Flush()
}
