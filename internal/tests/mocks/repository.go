// Package mocks holds testify mocks of the repository and blob store.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
)

// Repository is a mock of repository.Repository. RunInTx runs the callback
// directly.
type Repository struct {
	mock.Mock
}

func (m *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *Repository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *Repository) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Department), args.Error(1)
}

func (m *Repository) GetDepartment(ctx context.Context, id int64) (domain.Department, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Department), args.Error(1)
}

func (m *Repository) ListLookup(ctx context.Context, list domain.LookupList) ([]domain.LookupItem, error) {
	args := m.Called(ctx, list)
	return args.Get(0).([]domain.LookupItem), args.Error(1)
}

func (m *Repository) ListDocumentSummaries(ctx context.Context) ([]domain.DocumentSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.DocumentSummary), args.Error(1)
}

func (m *Repository) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *Repository) GetDocument(ctx context.Context, id int64) (domain.Document, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Document), args.Error(1)
}

func (m *Repository) CreatePerson(ctx context.Context, p domain.Person) (domain.Person, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Person), args.Error(1)
}

func (m *Repository) GetPersonByEmail(ctx context.Context, email string) (domain.Person, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.Person), args.Error(1)
}

func (m *Repository) SearchPeople(ctx context.Context, prefix string, limit int) ([]domain.Person, error) {
	args := m.Called(ctx, prefix, limit)
	return args.Get(0).([]domain.Person), args.Error(1)
}

func (m *Repository) CreateChangeRequest(ctx context.Context, p domain.ChangeRequestPayload) (domain.ChangeRequest, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.ChangeRequest), args.Error(1)
}

func (m *Repository) GetChangeRequest(ctx context.Context, id int64) (domain.ChangeRequest, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.ChangeRequest), args.Error(1)
}

func (m *Repository) GetChangeRequestForUpdate(ctx context.Context, id int64) (domain.ChangeRequest, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.ChangeRequest), args.Error(1)
}

func (m *Repository) ListChangeRequests(ctx context.Context) ([]domain.ChangeRequest, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.ChangeRequest), args.Error(1)
}

func (m *Repository) UpdateChangeRequest(ctx context.Context, id int64, patch domain.ChangeRequestPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *Repository) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *Repository) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *Repository) GetTaskForUpdate(ctx context.Context, id int64) (domain.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *Repository) ListTasksByAssignee(ctx context.Context, personID int64) ([]domain.Task, error) {
	args := m.Called(ctx, personID)
	return args.Get(0).([]domain.Task), args.Error(1)
}

func (m *Repository) UpdateTask(ctx context.Context, id int64, patch domain.TaskPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *Repository) AttachmentsEnabled(ctx context.Context, list string) (bool, error) {
	args := m.Called(ctx, list)
	return args.Bool(0), args.Error(1)
}

func (m *Repository) EnableAttachments(ctx context.Context, list string) error {
	args := m.Called(ctx, list)
	return args.Error(0)
}

func (m *Repository) CreateAttachment(ctx context.Context, a domain.Attachment) (domain.Attachment, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(domain.Attachment), args.Error(1)
}

func (m *Repository) ListAttachments(ctx context.Context, changeRequestID int64) ([]domain.Attachment, error) {
	args := m.Called(ctx, changeRequestID)
	return args.Get(0).([]domain.Attachment), args.Error(1)
}

// Blobs is a mock of storage.Blobs.
type Blobs struct {
	mock.Mock
}

func (m *Blobs) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, body, size, contentType)
	return args.Error(0)
}

func (m *Blobs) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *Blobs) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
