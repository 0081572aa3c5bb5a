package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FahmidKDAU/dcr-solution/internal/domain"
)

func approvalTask(status domain.TaskStatus) domain.Task {
	return domain.Task{
		ID:              11,
		Title:           "Approve CR-00001",
		TaskType:        domain.TaskTypeChangeAuthorityApproval,
		Status:          status,
		AssignedTo:      &jane,
		ChangeRequestID: 1,
	}
}

func TestService_TaskDetail(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingReleaseAuthorityDisablesApprove", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetTask", ctx, int64(11)).Return(approvalTask(domain.TaskStatusNew), nil)
		repo.On("GetChangeRequest", ctx, int64(1)).Return(domain.ChangeRequest{ID: 1, Author: &alan}, nil)

		d, err := svc.TaskDetail(ctx, 11)

		require.NoError(t, err)
		assert.Equal(t, domain.KindChangeAuthorityApproval, d.Workflow.Kind)
		assert.Equal(t, []string{"Release Authority"}, d.Workflow.Missing)
		assert.False(t, d.Workflow.PrimaryEnabled)
		assert.Equal(t, []string{"Release Authority", "Author"}, d.Workflow.Required)
		require.NotNil(t, d.ChangeRequest)
	})

	t.Run("UnknownTaskType", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		task := approvalTask(domain.TaskStatusNew)
		task.TaskType = "Mystery"
		repo.On("GetTask", ctx, int64(11)).Return(task, nil)

		_, err := svc.TaskDetail(ctx, 11)
		assert.ErrorIs(t, err, domain.ErrUnknownTaskType)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetTask", ctx, int64(5)).Return(domain.Task{}, domain.ErrNotFound)

		_, err := svc.TaskDetail(ctx, 5)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestService_ActOnTask(t *testing.T) {
	ctx := context.Background()
	complete := domain.ChangeRequest{ID: 1, ReleaseAuthority: &rita, Author: &alan}

	t.Run("ReassignToDepartmentAuthority", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetTaskForUpdate", ctx, int64(11)).Return(approvalTask(domain.TaskStatusNew), nil)
		repo.On("GetChangeRequest", ctx, int64(1)).Return(complete, nil)
		repo.On("GetDepartment", ctx, int64(20)).
			Return(domain.Department{ID: 20, Title: "Finance", ChangeAuthority: &john}, nil)

		var patch domain.TaskPatch
		repo.On("UpdateTask", ctx, int64(11), mock.Anything).
			Run(func(args mock.Arguments) { patch = args.Get(2).(domain.TaskPatch) }).
			Return(nil)
		repo.On("ListTasksByAssignee", ctx, jane.ID).Return([]domain.Task{}, nil)

		res, err := svc.ActOnTask(ctx, jane.ID, 11, TaskActionRequest{
			Action:       domain.ActionReassign,
			DepartmentID: ptr(int64(20)),
		})

		require.NoError(t, err)
		assert.Empty(t, res.Tasks)
		assert.Empty(t, res.TasksError)
		require.NotNil(t, patch.Status)
		assert.Equal(t, domain.TaskStatusReassigned, *patch.Status)
		require.NotNil(t, patch.AssignedToID)
		assert.Equal(t, john.ID, *patch.AssignedToID)
		repo.AssertExpectations(t)
	})

	t.Run("ReassignDepartmentWithoutAuthority", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetTaskForUpdate", ctx, int64(11)).Return(approvalTask(domain.TaskStatusNew), nil)
		repo.On("GetChangeRequest", ctx, int64(1)).Return(complete, nil)
		repo.On("GetDepartment", ctx, int64(30)).Return(domain.Department{ID: 30, Title: "Legal"}, nil)

		_, err := svc.ActOnTask(ctx, jane.ID, 11, TaskActionRequest{
			Action:       domain.ActionReassign,
			DepartmentID: ptr(int64(30)),
		})

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"Change Authority"}, verr.Fields)
		repo.AssertNotCalled(t, "UpdateTask", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ApproveBlockedByMissingFields", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetTaskForUpdate", ctx, int64(11)).Return(approvalTask(domain.TaskStatusNew), nil)
		repo.On("GetChangeRequest", ctx, int64(1)).Return(domain.ChangeRequest{ID: 1, Author: &alan}, nil)

		_, err := svc.ActOnTask(ctx, jane.ID, 11, TaskActionRequest{Action: domain.ActionApprove})

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"Release Authority"}, verr.Fields)
	})

	t.Run("ReloadFailureKeepsAppliedAction", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetTaskForUpdate", ctx, int64(11)).Return(approvalTask(domain.TaskStatusNew), nil)
		repo.On("GetChangeRequest", ctx, int64(1)).Return(complete, nil)
		repo.On("UpdateTask", ctx, int64(11), mock.Anything).Return(nil).Once()
		repo.On("ListTasksByAssignee", ctx, jane.ID).Return([]domain.Task(nil), errors.New("connection reset"))

		res, err := svc.ActOnTask(ctx, jane.ID, 11, TaskActionRequest{Action: domain.ActionApprove})

		require.NoError(t, err)
		assert.Equal(t, "Failed to load tasks", res.TasksError)
		assert.NotNil(t, res.Tasks)
		assert.Empty(t, res.Tasks)
		repo.AssertExpectations(t)
	})

	t.Run("ApproveWithComment", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetTaskForUpdate", ctx, int64(11)).Return(approvalTask(domain.TaskStatusInProgress), nil)
		repo.On("GetChangeRequest", ctx, int64(1)).Return(complete, nil)
		repo.On("UpdateTask", ctx, int64(11), domain.TaskPatch{
			Status:  ptr(domain.TaskStatusApproved),
			Comment: ptr("Looks good"),
		}).Return(nil).Once()
		repo.On("ListTasksByAssignee", ctx, jane.ID).Return([]domain.Task{approvalTask(domain.TaskStatusApproved)}, nil)

		res, err := svc.ActOnTask(ctx, jane.ID, 11, TaskActionRequest{
			Action:  domain.ActionApprove,
			Comment: "  Looks good ",
		})

		require.NoError(t, err)
		require.Len(t, res.Tasks, 1)
		repo.AssertExpectations(t)
	})

	t.Run("ClosedTaskRejected", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetTaskForUpdate", ctx, int64(11)).Return(approvalTask(domain.TaskStatusApproved), nil)

		_, err := svc.ActOnTask(ctx, jane.ID, 11, TaskActionRequest{Action: domain.ActionReject, RejectionReason: "no"})

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		repo.AssertNotCalled(t, "UpdateTask", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ActionNotAllowedForKind", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		task := approvalTask(domain.TaskStatusNew)
		task.TaskType = domain.TaskTypeChangeAuthorityReview
		repo.On("GetTaskForUpdate", ctx, int64(11)).Return(task, nil)

		_, err := svc.ActOnTask(ctx, jane.ID, 11, TaskActionRequest{Action: domain.ActionApprove})
		assert.ErrorIs(t, err, domain.ErrActionNotAllowed)
	})

	t.Run("NoActionTask", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		task := approvalTask(domain.TaskStatusNew)
		task.TaskType = domain.TaskTypeFinalApproval
		repo.On("GetTaskForUpdate", ctx, int64(11)).Return(task, nil)

		_, err := svc.ActOnTask(ctx, jane.ID, 11, TaskActionRequest{Action: domain.ActionComplete})
		assert.ErrorIs(t, err, domain.ErrActionNotAllowed)
	})

	t.Run("RequestInfoBecomesComment", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		task := approvalTask(domain.TaskStatusPending)
		task.TaskType = domain.TaskTypeChangeAuthorityReview
		repo.On("GetTaskForUpdate", ctx, int64(11)).Return(task, nil)
		repo.On("GetChangeRequest", ctx, int64(1)).Return(complete, nil)
		repo.On("UpdateTask", ctx, int64(11), domain.TaskPatch{
			Status:  ptr(domain.TaskStatusNeedsMoreInfo),
			Comment: ptr("Which sites?"),
		}).Return(nil).Once()
		repo.On("ListTasksByAssignee", ctx, jane.ID).Return([]domain.Task{}, nil)

		_, err := svc.ActOnTask(ctx, jane.ID, 11, TaskActionRequest{
			Action:      domain.ActionRequestInfo,
			InfoRequest: "Which sites?",
		})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("UpdateFailurePropagates", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetTaskForUpdate", ctx, int64(11)).Return(approvalTask(domain.TaskStatusNew), nil)
		repo.On("GetChangeRequest", ctx, int64(1)).Return(complete, nil)
		repo.On("UpdateTask", ctx, int64(11), mock.Anything).Return(errors.New("write failed"))

		_, err := svc.ActOnTask(ctx, jane.ID, 11, TaskActionRequest{Action: domain.ActionReject, RejectionReason: "Out of scope"})

		require.Error(t, err)
		repo.AssertNotCalled(t, "ListTasksByAssignee", mock.Anything, mock.Anything)
	})
}

func TestService_ListTasks(t *testing.T) {
	ctx := context.Background()

	t.Run("FiltersCallerTasks", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetPersonByEmail", ctx, jane.Email).Return(jane, nil)
		open := approvalTask(domain.TaskStatusNew)
		done := approvalTask(domain.TaskStatusApproved)
		done.ID = 12
		repo.On("ListTasksByAssignee", ctx, jane.ID).Return([]domain.Task{open, done}, nil)

		hub := svc.ListTasks(ctx, jane.Email, domain.TaskFilter{Tab: domain.TabApproved})

		require.NotNil(t, hub.User.Data)
		assert.Equal(t, jane.ID, hub.User.Data.ID)
		require.Len(t, hub.Tasks.Data, 1)
		assert.Equal(t, int64(12), hub.Tasks.Data[0].ID)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetPersonByEmail", ctx, "ghost@example.com").Return(domain.Person{}, domain.ErrNotFound)

		hub := svc.ListTasks(ctx, "ghost@example.com", domain.TaskFilter{})

		assert.Equal(t, "Failed to load current user", hub.User.Error)
		assert.Empty(t, hub.Tasks.Data)
		repo.AssertNotCalled(t, "ListTasksByAssignee", mock.Anything, mock.Anything)
	})

	t.Run("TaskLoadFailure", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetPersonByEmail", ctx, jane.Email).Return(jane, nil)
		repo.On("ListTasksByAssignee", ctx, jane.ID).Return([]domain.Task(nil), errors.New("boom"))

		hub := svc.ListTasks(ctx, jane.Email, domain.TaskFilter{})

		assert.Equal(t, "Failed to load tasks", hub.Tasks.Error)
		assert.NotNil(t, hub.Tasks.Data)
		assert.False(t, hub.Tasks.Loading)
	})
}

func TestService_PatchChangeRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("BatchAppliesWithLifecycle", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		patch := domain.ChangeRequestPatch{
			Status:             ptr(domain.CRStatusCAReview),
			ReleaseAuthorityID: ptr(rita.ID),
		}
		repo.On("GetChangeRequestForUpdate", ctx, int64(1)).
			Return(domain.ChangeRequest{ID: 1, Status: domain.CRStatusSubmitted}, nil)
		repo.On("UpdateChangeRequest", ctx, int64(1), patch).Return(nil).Once()
		repo.On("GetChangeRequest", ctx, int64(1)).
			Return(domain.ChangeRequest{ID: 1, Status: domain.CRStatusCAReview, ReleaseAuthority: &rita}, nil)

		cr, err := svc.PatchChangeRequest(ctx, 1, patch)

		require.NoError(t, err)
		assert.Equal(t, domain.CRStatusCAReview, cr.Status)
		repo.AssertExpectations(t)
	})

	t.Run("TerminalStatusRejected", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetChangeRequestForUpdate", ctx, int64(1)).
			Return(domain.ChangeRequest{ID: 1, Status: domain.CRStatusPublished}, nil)

		_, err := svc.PatchChangeRequest(ctx, 1, domain.ChangeRequestPatch{Status: ptr(domain.CRStatusSubmitted)})

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		repo.AssertNotCalled(t, "UpdateChangeRequest", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("EmptyPatch", func(t *testing.T) {
		svc, _ := newTestService(t, nil)
		_, err := svc.PatchChangeRequest(ctx, 1, domain.ChangeRequestPatch{})

		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("CommitSingleField", func(t *testing.T) {
		svc, repo := newTestService(t, nil)
		repo.On("GetChangeRequestForUpdate", ctx, int64(1)).
			Return(domain.ChangeRequest{ID: 1, Status: domain.CRStatusSubmitted}, nil)
		repo.On("UpdateChangeRequest", ctx, int64(1), domain.ChangeRequestPatch{Title: ptr("New title")}).Return(nil)
		repo.On("GetChangeRequest", ctx, int64(1)).Return(domain.ChangeRequest{ID: 1, Title: "New title"}, nil)

		cr, err := svc.CommitField(ctx, 1, "title", []byte(`"New title"`))

		require.NoError(t, err)
		assert.Equal(t, "New title", cr.Title)
	})

	t.Run("CommitUnknownField", func(t *testing.T) {
		svc, _ := newTestService(t, nil)
		_, err := svc.CommitField(ctx, 1, "colour", []byte(`"red"`))

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"colour"}, verr.Fields)
	})
}
