package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrConflict            = errors.New("resource already exists or conflict state")
	ErrInvalidItemID       = errors.New("invalid list item id for attachment upload")
	ErrUnknownTaskType     = errors.New("unknown task type")
	ErrActionNotAllowed    = errors.New("action is not available for this task type")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrAttachmentsDisabled = errors.New("attachments are disabled for this list")
)

// ValidationError reports required fields that are missing. It is raised
// before anything is sent to the repository.
type ValidationError struct {
	Message string
	Fields  []string
	Stage   Stage
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}
