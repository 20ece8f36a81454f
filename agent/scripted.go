package agent

import (
	"github.com/pkg/errors"

	"github.com/komandara/k10fabric/fabric/adapter"
	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/sim"
)

// A Step is one access of a script and the response it expects.
type Step struct {
	Request   adapter.Request
	Status    bus.Status
	CheckData bool
	Data      uint32
}

func (s Step) check(rsp bus.Rsp) error {
	if rsp.Status != s.Status {
		return errors.Errorf("%s returned %s, want %s",
			s.Request, rsp.Status, s.Status)
	}

	if s.CheckData && rsp.Data != s.Data {
		return errors.Errorf("%s returned 0x%08x, want 0x%08x",
			s.Request, rsp.Data, s.Data)
	}

	return nil
}

// A Script is a list of checked steps followed by an epilogue. The OnPass
// steps run after all the checked steps succeed. The first failed check
// jumps to the OnFail steps. Epilogue steps are not checked.
type Script struct {
	Steps  []Step
	OnPass []adapter.Request
	OnFail []adapter.Request
}

// A ScriptedAgent replays a script.
type ScriptedAgent struct {
	name   string
	script Script

	pos      int
	epilogue []adapter.Request
	inEpi    bool
	err      error
}

// NewScriptedAgent creates an agent that replays the script.
func NewScriptedAgent(name string, script Script) *ScriptedAgent {
	sim.NameMustBeValid(name)

	a := &ScriptedAgent{name: name, script: script}
	if len(script.Steps) == 0 {
		a.enterEpilogue(script.OnPass)
	}

	return a
}

// Name returns the name of the agent.
func (a *ScriptedAgent) Name() string {
	return a.name
}

// Failed tells if a checked step has failed.
func (a *ScriptedAgent) Failed() bool {
	return a.err != nil
}

// Next returns the next step of the script.
func (a *ScriptedAgent) Next() (adapter.Request, bool) {
	if a.Done() {
		return adapter.Request{}, false
	}

	if a.inEpi {
		return a.epilogue[a.pos], true
	}

	return a.script.Steps[a.pos].Request, true
}

// Complete checks the response and moves to the next step.
func (a *ScriptedAgent) Complete(_ adapter.Request, rsp bus.Rsp) {
	if a.inEpi {
		a.pos++
		return
	}

	if err := a.script.Steps[a.pos].check(rsp); err != nil {
		a.err = errors.Wrapf(err, "%s step %d", a.name, a.pos)
		a.enterEpilogue(a.script.OnFail)

		return
	}

	a.pos++
	if a.pos == len(a.script.Steps) {
		a.enterEpilogue(a.script.OnPass)
	}
}

func (a *ScriptedAgent) enterEpilogue(reqs []adapter.Request) {
	a.inEpi = true
	a.epilogue = reqs
	a.pos = 0
}

// Done tells if the whole script has been issued.
func (a *ScriptedAgent) Done() bool {
	return a.inEpi && a.pos >= len(a.epilogue)
}

// Err returns the failure of the script, if any.
func (a *ScriptedAgent) Err() error {
	return a.err
}
