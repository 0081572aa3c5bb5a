package repository

import (
	"context"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
)

// ChangeRequestList is the list name attachment settings are kept under.
const ChangeRequestList = "change_requests"

type Repository interface {
	ListDepartments(ctx context.Context) ([]domain.Department, error)
	GetDepartment(ctx context.Context, id int64) (domain.Department, error)
	ListLookup(ctx context.Context, list domain.LookupList) ([]domain.LookupItem, error)

	ListDocumentSummaries(ctx context.Context) ([]domain.DocumentSummary, error)
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	GetDocument(ctx context.Context, id int64) (domain.Document, error)

	CreatePerson(ctx context.Context, p domain.Person) (domain.Person, error)
	GetPersonByEmail(ctx context.Context, email string) (domain.Person, error)
	SearchPeople(ctx context.Context, prefix string, limit int) ([]domain.Person, error)

	CreateChangeRequest(ctx context.Context, p domain.ChangeRequestPayload) (domain.ChangeRequest, error)
	GetChangeRequest(ctx context.Context, id int64) (domain.ChangeRequest, error)
	GetChangeRequestForUpdate(ctx context.Context, id int64) (domain.ChangeRequest, error)
	ListChangeRequests(ctx context.Context) ([]domain.ChangeRequest, error)
	UpdateChangeRequest(ctx context.Context, id int64, patch domain.ChangeRequestPatch) error

	CreateTask(ctx context.Context, t domain.Task) (domain.Task, error)
	GetTask(ctx context.Context, id int64) (domain.Task, error)
	GetTaskForUpdate(ctx context.Context, id int64) (domain.Task, error)
	ListTasksByAssignee(ctx context.Context, personID int64) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) error

	AttachmentsEnabled(ctx context.Context, list string) (bool, error)
	EnableAttachments(ctx context.Context, list string) error
	CreateAttachment(ctx context.Context, a domain.Attachment) (domain.Attachment, error)
	ListAttachments(ctx context.Context, changeRequestID int64) ([]domain.Attachment, error)
}

type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pinger is implemented by repositories that can report whether their
// backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
