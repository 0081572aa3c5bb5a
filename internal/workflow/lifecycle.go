// Package workflow holds the status lifecycles of tasks and change requests
// as statekit statecharts.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
)

// Context is carried through a single transition.
type Context struct {
	From  statekit.StateID
	Event statekit.EventType
	Fired bool
}

// lifecycle runs one transition at a time against a shared machine config.
// Events are named after their target state, so "TO_<state>" moves into
// <state> when the current state defines it.
type lifecycle struct {
	id       string
	config   *statekit.MachineConfig[*Context]
	terminal map[statekit.StateID]bool
}

func eventTo(target statekit.StateID) statekit.EventType {
	return statekit.EventType("TO_" + strings.ToUpper(string(target)))
}

func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).Event = event.Type
	(*ctx).Fired = true
}

func (l *lifecycle) transition(from, to statekit.StateID) (err error) {
	if l.terminal[from] {
		return fmt.Errorf("%w: %s is final", domain.ErrInvalidTransition, from)
	}

	c := &Context{From: from}
	interp := statekit.NewInterpreter(l.config)
	interp.UpdateContext(func(cc **Context) {
		*cc = c
	})
	interp.Start()
	defer interp.Stop()

	snapshot := statekit.Snapshot[*Context]{
		MachineID:    l.id,
		CurrentState: from,
		Context:      c,
		CreatedAt:    time.Now(),
	}
	if err := interp.Restore(snapshot); err != nil {
		return fmt.Errorf("%w: restore %s: %v", domain.ErrInvalidTransition, from, err)
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
		}
	}()
	interp.Send(statekit.Event{Type: eventTo(to)})

	if !c.Fired || !interp.Matches(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	return nil
}
