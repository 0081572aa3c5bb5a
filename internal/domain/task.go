package domain

import (
	"fmt"
	"strings"
)

// TaskAction is something a user can do to an open task.
type TaskAction string

const (
	ActionApprove     TaskAction = "approve"
	ActionReject      TaskAction = "reject"
	ActionReassign    TaskAction = "reassign"
	ActionComplete    TaskAction = "complete"
	ActionRequestInfo TaskAction = "request_info"
)

// WorkflowKind is the closed set of detail views a task can resolve to.
type WorkflowKind string

const (
	KindChangeAuthorityApproval WorkflowKind = "change_authority_approval"
	KindChangeAuthorityReview   WorkflowKind = "change_authority_review"
	KindNoAction                WorkflowKind = "no_action"
)

// RequiredField is a change request field that must be filled before the
// primary action of a workflow is enabled.
type RequiredField struct {
	Key     string                     `json:"key"`
	Label   string                     `json:"label"`
	present func(cr *ChangeRequest) bool
}

func (f RequiredField) Present(cr *ChangeRequest) bool {
	return cr != nil && f.present(cr)
}

var (
	fieldReleaseAuthority = RequiredField{
		Key:     "release_authority_id",
		Label:   "Release Authority",
		present: func(cr *ChangeRequest) bool { return cr.ReleaseAuthority != nil },
	}
	fieldAuthor = RequiredField{
		Key:     "author_id",
		Label:   "Author",
		present: func(cr *ChangeRequest) bool { return cr.Author != nil },
	}
	fieldDocumentAuthor = RequiredField{
		Key:     "author_id",
		Label:   "Document Author",
		present: func(cr *ChangeRequest) bool { return cr.Author != nil },
	}
)

// TaskWorkflow describes what can be done with a task of a given type.
type TaskWorkflow struct {
	Kind     WorkflowKind
	Actions  []TaskAction
	Primary  TaskAction
	Required []RequiredField
}

// WorkflowFor resolves a task type to its workflow. Every known type is
// listed; anything else is an error.
func WorkflowFor(t TaskType) (TaskWorkflow, error) {
	switch t {
	case TaskTypeChangeAuthorityApproval:
		return TaskWorkflow{
			Kind:     KindChangeAuthorityApproval,
			Actions:  []TaskAction{ActionApprove, ActionReject, ActionReassign},
			Primary:  ActionApprove,
			Required: []RequiredField{fieldReleaseAuthority, fieldAuthor},
		}, nil
	case TaskTypeChangeAuthorityReview:
		return TaskWorkflow{
			Kind:     KindChangeAuthorityReview,
			Actions:  []TaskAction{ActionComplete, ActionRequestInfo},
			Primary:  ActionComplete,
			Required: []RequiredField{fieldReleaseAuthority, fieldDocumentAuthor},
		}, nil
	case TaskTypeCAReview,
		TaskTypeDocumentReview,
		TaskTypeFinalApproval,
		TaskTypeCRCompletion,
		TaskTypeCRInfoRequired,
		TaskTypeDocumentControllerReview:
		return TaskWorkflow{Kind: KindNoAction, Actions: []TaskAction{}}, nil
	default:
		return TaskWorkflow{}, fmt.Errorf("%w: %q", ErrUnknownTaskType, t)
	}
}

func (w TaskWorkflow) Allows(a TaskAction) bool {
	for _, x := range w.Actions {
		if x == a {
			return true
		}
	}
	return false
}

// MissingFields returns the labels of required fields not yet set on cr.
func (w TaskWorkflow) MissingFields(cr *ChangeRequest) []string {
	missing := []string{}
	for _, f := range w.Required {
		if !f.Present(cr) {
			missing = append(missing, f.Label)
		}
	}
	return missing
}

func (w TaskWorkflow) PrimaryEnabled(cr *ChangeRequest) bool {
	return w.Primary != "" && len(w.MissingFields(cr)) == 0
}

// ActionInput carries the user input for a task action. ReassignTo is the
// change authority of the chosen department, resolved by the caller.
type ActionInput struct {
	Comment         string
	RejectionReason string
	InfoRequest     string
	DepartmentID    *int64
	ReassignTo      *Person
}

// Plan checks that the action is permitted and returns the task update it
// produces.
func (w TaskWorkflow) Plan(a TaskAction, cr *ChangeRequest, in ActionInput) (TaskPatch, error) {
	if !w.Allows(a) {
		return TaskPatch{}, fmt.Errorf("%w: %s", ErrActionNotAllowed, a)
	}
	if a == w.Primary {
		if missing := w.MissingFields(cr); len(missing) > 0 {
			return TaskPatch{}, &ValidationError{
				Message: "required fields are missing",
				Fields:  missing,
			}
		}
	}

	comment := strings.TrimSpace(in.Comment)
	var patch TaskPatch
	switch a {
	case ActionApprove:
		patch.Status = statusPtr(TaskStatusApproved)
	case ActionComplete:
		patch.Status = statusPtr(TaskStatusComplete)
	case ActionReject:
		reason := strings.TrimSpace(in.RejectionReason)
		if reason == "" {
			return TaskPatch{}, &ValidationError{Message: "rejection reason is required", Fields: []string{"Rejection Reason"}}
		}
		patch.Status = statusPtr(TaskStatusRejected)
		patch.RejectionReason = &reason
	case ActionRequestInfo:
		info := strings.TrimSpace(in.InfoRequest)
		if info == "" {
			return TaskPatch{}, &ValidationError{Message: "information request is required", Fields: []string{"Information Request"}}
		}
		patch.Status = statusPtr(TaskStatusNeedsMoreInfo)
		comment = info
	case ActionReassign:
		if in.DepartmentID == nil || *in.DepartmentID <= 0 {
			return TaskPatch{}, &ValidationError{Message: "department is required", Fields: []string{"Department"}}
		}
		if in.ReassignTo == nil || in.ReassignTo.ID <= 0 {
			return TaskPatch{}, &ValidationError{Message: "department has no change authority", Fields: []string{"Change Authority"}}
		}
		id := in.ReassignTo.ID
		patch.Status = statusPtr(TaskStatusReassigned)
		patch.AssignedToID = &id
	}
	if comment != "" {
		patch.Comment = &comment
	}
	return patch, nil
}

func statusPtr(s TaskStatus) *TaskStatus { return &s }
