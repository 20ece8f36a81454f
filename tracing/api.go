// Package tracing lets components report the tasks they work on, and lets
// tracers collect those tasks through hooks.
package tracing

import (
	"github.com/pkg/errors"

	"github.com/komandara/k10fabric/sim"
)

// NamedHookable represent something both have a name and can be hooked
type NamedHookable interface {
	sim.Named
	sim.Hookable
	InvokeHook(sim.HookCtx)
}

// A list of hook poses for the hooks to apply to
var (
	HookPosTaskStart = &sim.HookPos{Name: "HookPosTaskStart"}
	HookPosTaskStep  = &sim.HookPos{Name: "HookPosTaskStep"}
	HookPosTaskEnd   = &sim.HookPos{Name: "HookPosTaskEnd"}
)

// StartTask reports that the domain starts working on a task. The id, kind
// and what must be set. Nothing is built if no hook listens to the domain.
func StartTask(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	detail any,
) {
	if err := checkTask(id, domain, kind, what); err != nil {
		panic(err)
	}

	if domain.NumHooks() == 0 {
		return
	}

	if domain.Name() == "" {
		panic("tracing domain must have a name")
	}

	emit(domain, HookPosTaskStart, Task{
		ID:       id,
		ParentID: parentID,
		Kind:     kind,
		What:     what,
		Location: domain.Name(),
		Detail:   detail,
	})
}

func checkTask(id string, domain NamedHookable, kind, what string) error {
	switch {
	case id == "":
		return errors.New("task id must not be empty")
	case domain == nil:
		return errors.Errorf("task %s has no domain", id)
	case kind == "":
		return errors.Errorf("task %s has no kind", id)
	case what == "":
		return errors.Errorf("task %s has no description", id)
	}

	return nil
}

// AddTaskStep reports that a task has reached a milestone.
func AddTaskStep(id string, domain NamedHookable, what string) {
	if domain.NumHooks() == 0 {
		return
	}

	emit(domain, HookPosTaskStep, Task{
		ID:    id,
		Steps: []TaskStep{{What: what}},
	})
}

// EndTask reports that the domain has finished a task.
func EndTask(id string, domain NamedHookable) {
	if domain.NumHooks() == 0 {
		return
	}

	emit(domain, HookPosTaskEnd, Task{ID: id})
}

func emit(domain NamedHookable, pos *sim.HookPos, task Task) {
	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Pos:    pos,
		Item:   task,
	})
}
