package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
	"github.com/FahmidKDAU/dcr-solution/internal/loader"
)

type TaskActionRequest struct {
	Action          domain.TaskAction
	Comment         string
	RejectionReason string
	InfoRequest     string
	DepartmentID    *int64
}

// WorkflowView is the resolved action set for a task, as shown next to it.
type WorkflowView struct {
	Kind           domain.WorkflowKind `json:"kind"`
	Actions        []domain.TaskAction `json:"actions"`
	PrimaryAction  domain.TaskAction   `json:"primary_action,omitempty"`
	Required       []string            `json:"required_fields"`
	Missing        []string            `json:"missing_fields"`
	PrimaryEnabled bool                `json:"primary_enabled"`
}

type TaskDetail struct {
	Task          domain.Task           `json:"task"`
	ChangeRequest *domain.ChangeRequest `json:"change_request"`
	Workflow      WorkflowView          `json:"workflow"`
}

// TaskHub is the task list of the current user.
type TaskHub struct {
	User  loader.Snapshot[*domain.Person] `json:"user"`
	Tasks loader.Snapshot[[]domain.Task]  `json:"tasks"`
}

func (s *Service) GetTasks(ctx context.Context, userID int64) ([]domain.Task, error) {
	tasks, err := s.repo.ListTasksByAssignee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

func (s *Service) GetTaskByID(ctx context.Context, id int64) (*domain.Task, error) {
	t, err := s.repo.GetTask(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return &t, nil
}

func (s *Service) UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) error {
	if err := s.repo.UpdateTask(ctx, id, patch); err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return nil
}

// ListTasks loads the caller, then the caller's tasks, and filters them.
func (s *Service) ListTasks(ctx context.Context, email string, filter domain.TaskFilter) TaskHub {
	hub := TaskHub{User: s.CurrentUser(ctx, email)}
	if hub.User.Data == nil {
		hub.Tasks = loader.Snapshot[[]domain.Task]{Data: []domain.Task{}}
		return hub
	}

	userID := hub.User.Data.ID
	tasks := loader.New("tasks", "Failed to load tasks", func(ctx context.Context) ([]domain.Task, error) {
		return s.GetTasks(ctx, userID)
	}, s.log)
	hub.Tasks = tasks.Load(ctx)
	if hub.Tasks.Error == "" {
		hub.Tasks.Data = filter.Apply(hub.Tasks.Data)
	}
	if hub.Tasks.Data == nil {
		hub.Tasks.Data = []domain.Task{}
	}
	return hub
}

// TaskDetail returns the task with its change request and the workflow that
// applies to its type.
func (s *Service) TaskDetail(ctx context.Context, id int64) (TaskDetail, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return TaskDetail{}, fmt.Errorf("getting task: %w", err)
	}
	wf, err := domain.WorkflowFor(t.TaskType)
	if err != nil {
		return TaskDetail{}, err
	}
	cr, err := s.GetChangeRequestByID(ctx, t.ChangeRequestID)
	if err != nil {
		return TaskDetail{}, err
	}
	return TaskDetail{Task: t, ChangeRequest: cr, Workflow: viewOf(wf, cr)}, nil
}

func viewOf(wf domain.TaskWorkflow, cr *domain.ChangeRequest) WorkflowView {
	v := WorkflowView{
		Kind:           wf.Kind,
		Actions:        wf.Actions,
		PrimaryAction:  wf.Primary,
		Required:       make([]string, 0, len(wf.Required)),
		Missing:        wf.MissingFields(cr),
		PrimaryEnabled: wf.PrimaryEnabled(cr),
	}
	if v.Actions == nil {
		v.Actions = []domain.TaskAction{}
	}
	for _, f := range wf.Required {
		v.Required = append(v.Required, f.Label)
	}
	return v
}

// ActionResult is the caller's task list after an action. TasksError is set
// when the action was committed but the list could not be reloaded.
type ActionResult struct {
	Tasks      []domain.Task `json:"tasks"`
	TasksError string        `json:"tasks_error,omitempty"`
}

// ActOnTask performs an action on a task and returns the caller's refreshed
// task list. An error means the action was not applied.
func (s *Service) ActOnTask(ctx context.Context, callerID, taskID int64, req TaskActionRequest) (ActionResult, error) {
	err := s.inTx(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		wf, err := domain.WorkflowFor(t.TaskType)
		if err != nil {
			return err
		}
		if !wf.Allows(req.Action) {
			return fmt.Errorf("%w: %s", domain.ErrActionNotAllowed, req.Action)
		}
		if s.tasks.IsClosed(t.Status) {
			return fmt.Errorf("%w: task is %s", domain.ErrInvalidTransition, t.Status)
		}

		cr, err := s.repo.GetChangeRequest(ctx, t.ChangeRequestID)
		if err != nil {
			return fmt.Errorf("loading change request: %w", err)
		}

		in := domain.ActionInput{
			Comment:         req.Comment,
			RejectionReason: req.RejectionReason,
			InfoRequest:     req.InfoRequest,
			DepartmentID:    req.DepartmentID,
		}
		if req.Action == domain.ActionReassign && req.DepartmentID != nil && *req.DepartmentID > 0 {
			dept, err := s.repo.GetDepartment(ctx, *req.DepartmentID)
			if err != nil {
				return fmt.Errorf("loading department: %w", err)
			}
			in.ReassignTo = dept.ChangeAuthority
		}

		patch, err := wf.Plan(req.Action, &cr, in)
		if err != nil {
			return err
		}
		if err := s.tasks.Apply(t.Status, *patch.Status); err != nil {
			return err
		}
		return s.repo.UpdateTask(ctx, taskID, patch)
	})
	taskActionsTotal.WithLabelValues(string(req.Action), result(err)).Inc()
	if err != nil {
		return ActionResult{}, err
	}
	s.log.Info("task action applied", "task_id", taskID, "action", req.Action, "caller_id", callerID)

	tasks, err := s.GetTasks(ctx, callerID)
	if err != nil {
		s.log.Error("reloading tasks after action", "task_id", taskID, "caller_id", callerID, "error", err)
		return ActionResult{Tasks: []domain.Task{}, TasksError: "Failed to load tasks"}, nil
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return ActionResult{Tasks: tasks}, nil
}
