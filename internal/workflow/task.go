package workflow

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
)

const (
	taskNew           statekit.StateID = "new"
	taskPending       statekit.StateID = "pending"
	taskInProgress    statekit.StateID = "in_progress"
	taskOnHold        statekit.StateID = "on_hold"
	taskNeedsMoreInfo statekit.StateID = "needs_more_info"
	taskReassigned    statekit.StateID = "reassigned"
	taskApproved      statekit.StateID = "approved"
	taskRejected      statekit.StateID = "rejected"
	taskComplete      statekit.StateID = "complete"
	taskCancelled     statekit.StateID = "cancelled"
	taskMinorChange   statekit.StateID = "minor_change"
	taskObsoletion    statekit.StateID = "obsoletion"
)

var taskStates = map[domain.TaskStatus]statekit.StateID{
	domain.TaskStatusNew:                 taskNew,
	domain.TaskStatusPending:             taskPending,
	domain.TaskStatusInProgress:          taskInProgress,
	domain.TaskStatusOnHold:              taskOnHold,
	domain.TaskStatusNeedsMoreInfo:       taskNeedsMoreInfo,
	domain.TaskStatusReassigned:          taskReassigned,
	domain.TaskStatusApproved:            taskApproved,
	domain.TaskStatusRejected:            taskRejected,
	domain.TaskStatusComplete:            taskComplete,
	domain.TaskStatusCancelled:           taskCancelled,
	domain.TaskStatusMarkedMinorChange:   taskMinorChange,
	domain.TaskStatusMarkedForObsoletion: taskObsoletion,
}

// TaskLifecycle decides which status changes a task may go through. Open
// tasks can be approved, rejected, completed, reassigned or sent back for
// more information. Closed tasks never change again.
type TaskLifecycle struct {
	lc *lifecycle
}

func NewTaskLifecycle() (*TaskLifecycle, error) {
	config, err := newTaskMachine()
	if err != nil {
		return nil, fmt.Errorf("build task machine: %w", err)
	}
	return &TaskLifecycle{lc: &lifecycle{
		id:     "task",
		config: config,
		terminal: map[statekit.StateID]bool{
			taskApproved:    true,
			taskRejected:    true,
			taskComplete:    true,
			taskCancelled:   true,
			taskMinorChange: true,
			taskObsoletion:  true,
		},
	}}, nil
}

// Apply checks that a task may move from one status to another.
func (t *TaskLifecycle) Apply(from, to domain.TaskStatus) error {
	f, ok := taskStates[from]
	if !ok {
		return fmt.Errorf("%w: unknown task status %q", domain.ErrInvalidTransition, from)
	}
	s, ok := taskStates[to]
	if !ok {
		return fmt.Errorf("%w: unknown task status %q", domain.ErrInvalidTransition, to)
	}
	return t.lc.transition(f, s)
}

func (t *TaskLifecycle) IsClosed(s domain.TaskStatus) bool {
	id, ok := taskStates[s]
	return !ok || t.lc.terminal[id]
}

func newTaskMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("task").
		WithInitial(taskNew).
		WithContext(&Context{}).
		WithAction("recordTransition", recordTransition).
		State(taskNew).
			On(eventTo(taskApproved)).Target(taskApproved).Do("recordTransition").
			On(eventTo(taskRejected)).Target(taskRejected).Do("recordTransition").
			On(eventTo(taskComplete)).Target(taskComplete).Do("recordTransition").
			On(eventTo(taskReassigned)).Target(taskReassigned).Do("recordTransition").
			On(eventTo(taskNeedsMoreInfo)).Target(taskNeedsMoreInfo).Do("recordTransition").
			Done().
		State(taskPending).
			On(eventTo(taskApproved)).Target(taskApproved).Do("recordTransition").
			On(eventTo(taskRejected)).Target(taskRejected).Do("recordTransition").
			On(eventTo(taskComplete)).Target(taskComplete).Do("recordTransition").
			On(eventTo(taskReassigned)).Target(taskReassigned).Do("recordTransition").
			On(eventTo(taskNeedsMoreInfo)).Target(taskNeedsMoreInfo).Do("recordTransition").
			Done().
		State(taskInProgress).
			On(eventTo(taskApproved)).Target(taskApproved).Do("recordTransition").
			On(eventTo(taskRejected)).Target(taskRejected).Do("recordTransition").
			On(eventTo(taskComplete)).Target(taskComplete).Do("recordTransition").
			On(eventTo(taskReassigned)).Target(taskReassigned).Do("recordTransition").
			On(eventTo(taskNeedsMoreInfo)).Target(taskNeedsMoreInfo).Do("recordTransition").
			Done().
		State(taskOnHold).
			On(eventTo(taskApproved)).Target(taskApproved).Do("recordTransition").
			On(eventTo(taskRejected)).Target(taskRejected).Do("recordTransition").
			On(eventTo(taskComplete)).Target(taskComplete).Do("recordTransition").
			On(eventTo(taskReassigned)).Target(taskReassigned).Do("recordTransition").
			On(eventTo(taskNeedsMoreInfo)).Target(taskNeedsMoreInfo).Do("recordTransition").
			Done().
		State(taskNeedsMoreInfo).
			On(eventTo(taskApproved)).Target(taskApproved).Do("recordTransition").
			On(eventTo(taskRejected)).Target(taskRejected).Do("recordTransition").
			On(eventTo(taskComplete)).Target(taskComplete).Do("recordTransition").
			On(eventTo(taskReassigned)).Target(taskReassigned).Do("recordTransition").
			On(eventTo(taskNeedsMoreInfo)).Target(taskNeedsMoreInfo).Do("recordTransition").
			Done().
		State(taskReassigned).
			On(eventTo(taskApproved)).Target(taskApproved).Do("recordTransition").
			On(eventTo(taskRejected)).Target(taskRejected).Do("recordTransition").
			On(eventTo(taskComplete)).Target(taskComplete).Do("recordTransition").
			On(eventTo(taskReassigned)).Target(taskReassigned).Do("recordTransition").
			On(eventTo(taskNeedsMoreInfo)).Target(taskNeedsMoreInfo).Do("recordTransition").
			Done().
		State(taskApproved).Final().Done().
		State(taskRejected).Final().Done().
		State(taskComplete).Final().Done().
		State(taskCancelled).Final().Done().
		State(taskMinorChange).Final().Done().
		State(taskObsoletion).Final().Done().
		Build()
}
