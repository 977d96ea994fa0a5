package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

type workflowFixture struct {
	svc        *WorkflowService
	users      *fakeUserRepository
	workflows  *fakeWorkflowRepository
	dispatcher *recordingDispatcher

	admin   *domain.User
	manager *domain.User
	staff   *domain.User
	other   *domain.User
}

func newWorkflowFixture() *workflowFixture {
	users := newFakeUserRepository()
	workflows := newFakeWorkflowRepository()
	dispatcher := &recordingDispatcher{}
	return &workflowFixture{
		svc:        NewWorkflowService(workflows, users, dispatcher),
		users:      users,
		workflows:  workflows,
		dispatcher: dispatcher,
		admin:      users.seed("Ada", "ada@example.com", domain.RoleAdmin),
		manager:    users.seed("Mia", "mia@example.com", domain.RoleManager),
		staff:      users.seed("Sam", "sam@example.com", domain.RoleStaff),
		other:      users.seed("Olu", "olu@example.com", domain.RoleStaff),
	}
}

func (f *workflowFixture) create(t *testing.T, creator *domain.User, assignee *domain.User) *domain.Workflow {
	t.Helper()
	workflow, err := f.svc.Create(context.Background(), creator, WorkflowCreateInput{
		Title:          "Quarterly report",
		Description:    "Compile the quarterly numbers",
		AssignedTo:     assignee.ID,
		AssignedToRole: assignee.Role,
	})
	require.NoError(t, err)
	return workflow
}

func TestCreateWorkflow(t *testing.T) {
	f := newWorkflowFixture()

	due := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	workflow, err := f.svc.Create(context.Background(), f.manager, WorkflowCreateInput{
		Title:          "  Onboarding  ",
		Description:    " Prepare accounts ",
		AssignedTo:     f.staff.ID,
		AssignedToRole: domain.RoleStaff,
		DueDate:        &due,
	})
	require.NoError(t, err)

	assert.Equal(t, "Onboarding", workflow.Title)
	assert.Equal(t, "Prepare accounts", workflow.Description)
	assert.Equal(t, domain.WorkflowStatusPending, workflow.Status)
	assert.Equal(t, f.manager.ID, workflow.CreatedBy)
	assert.Equal(t, workflow.CreatedAt, workflow.UpdatedAt)
	require.NotNil(t, workflow.DueDate)
	assert.True(t, workflow.DueDate.Equal(due))

	created := f.dispatcher.byType(events.EventWorkflowCreated)
	require.Len(t, created, 1)
	assert.Equal(t, workflow.ID, created[0].WorkflowID)
	assert.Equal(t, f.manager.ID, created[0].ActorID)
}

func TestCreateWorkflow_AssigneeValidation(t *testing.T) {
	f := newWorkflowFixture()

	t.Run("missing assignee", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), f.manager, WorkflowCreateInput{
			Title:          "X",
			AssignedTo:     "missing",
			AssignedToRole: domain.RoleStaff,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})

	t.Run("role mismatch", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), f.manager, WorkflowCreateInput{
			Title:          "X",
			AssignedTo:     f.staff.ID,
			AssignedToRole: domain.RoleManager,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))
	})
}

func TestListWorkflows_RoleScoping(t *testing.T) {
	f := newWorkflowFixture()
	f.create(t, f.admin, f.admin)
	f.create(t, f.admin, f.manager)
	f.create(t, f.manager, f.staff)
	f.create(t, f.manager, f.other)

	t.Run("admin sees everything", func(t *testing.T) {
		result, err := f.svc.List(context.Background(), f.admin, WorkflowListQuery{})
		require.NoError(t, err)
		assert.Len(t, result, 4)
	})

	t.Run("manager never sees admin assignments", func(t *testing.T) {
		result, err := f.svc.List(context.Background(), f.manager, WorkflowListQuery{})
		require.NoError(t, err)
		assert.Len(t, result, 3)
		for _, workflow := range result {
			assert.NotEqual(t, domain.RoleAdmin, workflow.AssignedToRole)
		}
	})

	t.Run("manager role filter outside scope yields empty", func(t *testing.T) {
		role := domain.RoleAdmin
		result, err := f.svc.List(context.Background(), f.manager, WorkflowListQuery{AssignedToRole: &role})
		require.NoError(t, err)
		assert.Empty(t, result)
	})

	t.Run("staff only sees own assignments", func(t *testing.T) {
		result, err := f.svc.List(context.Background(), f.staff, WorkflowListQuery{})
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, f.staff.ID, result[0].AssignedTo)
	})

	t.Run("staff assignee filter is ignored", func(t *testing.T) {
		result, err := f.svc.List(context.Background(), f.staff, WorkflowListQuery{AssigneeID: &f.other.ID})
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, f.staff.ID, result[0].AssignedTo)
	})

	t.Run("status filter", func(t *testing.T) {
		status := domain.WorkflowStatusCompleted
		result, err := f.svc.List(context.Background(), f.admin, WorkflowListQuery{Status: &status})
		require.NoError(t, err)
		assert.Empty(t, result)
	})
}

func TestGetWorkflow_AccessGate(t *testing.T) {
	f := newWorkflowFixture()
	workflow := f.create(t, f.manager, f.staff)

	t.Run("assignee", func(t *testing.T) {
		got, err := f.svc.GetByID(context.Background(), f.staff, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, workflow.ID, got.ID)
	})

	t.Run("creator", func(t *testing.T) {
		_, err := f.svc.GetByID(context.Background(), f.manager, workflow.ID)
		require.NoError(t, err)
	})

	t.Run("admin", func(t *testing.T) {
		_, err := f.svc.GetByID(context.Background(), f.admin, workflow.ID)
		require.NoError(t, err)
	})

	t.Run("unrelated user", func(t *testing.T) {
		_, err := f.svc.GetByID(context.Background(), f.other, workflow.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("missing workflow", func(t *testing.T) {
		_, err := f.svc.GetByID(context.Background(), f.admin, "missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})
}

func TestUpdateWorkflow_FieldRules(t *testing.T) {
	t.Run("assignee can change status but not reassign", func(t *testing.T) {
		f := newWorkflowFixture()
		workflow := f.create(t, f.manager, f.staff)

		updated, err := f.svc.Update(context.Background(), f.staff, workflow.ID, WorkflowUpdateInput{
			Title:          "Renamed",
			Description:    "New description",
			Status:         domain.WorkflowStatusInProgress,
			AssignedTo:     f.other.ID,
			AssignedToRole: domain.RoleStaff,
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, domain.WorkflowStatusInProgress, updated.Status)
		assert.Equal(t, f.staff.ID, updated.AssignedTo)
		assert.Len(t, f.dispatcher.byType(events.EventWorkflowStatusChanged), 1)
		assert.Empty(t, f.dispatcher.byType(events.EventWorkflowAssigned))
	})

	t.Run("creator can reassign but not change status", func(t *testing.T) {
		f := newWorkflowFixture()
		workflow := f.create(t, f.manager, f.staff)

		updated, err := f.svc.Update(context.Background(), f.manager, workflow.ID, WorkflowUpdateInput{
			Title:          workflow.Title,
			Description:    workflow.Description,
			Status:         domain.WorkflowStatusCompleted,
			AssignedTo:     f.other.ID,
			AssignedToRole: domain.RoleStaff,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.WorkflowStatusPending, updated.Status)
		assert.Equal(t, f.other.ID, updated.AssignedTo)
		assert.Len(t, f.dispatcher.byType(events.EventWorkflowAssigned), 1)
		assert.Empty(t, f.dispatcher.byType(events.EventWorkflowStatusChanged))
	})

	t.Run("admin can reassign anyone's workflow", func(t *testing.T) {
		f := newWorkflowFixture()
		workflow := f.create(t, f.manager, f.staff)

		updated, err := f.svc.Update(context.Background(), f.admin, workflow.ID, WorkflowUpdateInput{
			Title:          workflow.Title,
			Description:    workflow.Description,
			AssignedTo:     f.manager.ID,
			AssignedToRole: domain.RoleManager,
		})
		require.NoError(t, err)
		assert.Equal(t, f.manager.ID, updated.AssignedTo)
		assert.Equal(t, domain.RoleManager, updated.AssignedToRole)
	})

	t.Run("unrelated user is denied access", func(t *testing.T) {
		f := newWorkflowFixture()
		workflow := f.create(t, f.manager, f.staff)

		_, err := f.svc.Update(context.Background(), f.other, workflow.ID, WorkflowUpdateInput{Title: "X"})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})
}

func TestDeleteWorkflow(t *testing.T) {
	f := newWorkflowFixture()

	t.Run("assignee alone cannot delete", func(t *testing.T) {
		workflow := f.create(t, f.manager, f.staff)
		err := f.svc.Delete(context.Background(), f.staff, workflow.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("creator deletes", func(t *testing.T) {
		workflow := f.create(t, f.manager, f.staff)
		require.NoError(t, f.svc.Delete(context.Background(), f.manager, workflow.ID))
		_, err := f.svc.GetByID(context.Background(), f.admin, workflow.ID)
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})

	t.Run("admin deletes", func(t *testing.T) {
		workflow := f.create(t, f.manager, f.staff)
		require.NoError(t, f.svc.Delete(context.Background(), f.admin, workflow.ID))
	})
}

func TestUpdateWorkflowStatus(t *testing.T) {
	f := newWorkflowFixture()
	workflow := f.create(t, f.manager, f.staff)

	t.Run("creator cannot change status", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(context.Background(), f.manager, workflow.ID, "IN_PROGRESS")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("admin cannot change status unless assignee", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(context.Background(), f.admin, workflow.ID, "IN_PROGRESS")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(context.Background(), f.staff, workflow.ID, "DONE")
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "INVALID_ARGUMENT"))
	})

	t.Run("assignee moves status", func(t *testing.T) {
		updated, err := f.svc.UpdateStatus(context.Background(), f.staff, workflow.ID, "in_progress")
		require.NoError(t, err)
		assert.Equal(t, domain.WorkflowStatusInProgress, updated.Status)
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

		changed := f.dispatcher.byType(events.EventWorkflowStatusChanged)
		require.Len(t, changed, 1)
		payload, ok := changed[0].Payload.(events.WorkflowStatusChangedPayload)
		require.True(t, ok)
		assert.Equal(t, domain.WorkflowStatusPending, payload.OldStatus)
		assert.Equal(t, domain.WorkflowStatusInProgress, payload.NewStatus)
	})
}

func TestListByAssignee(t *testing.T) {
	f := newWorkflowFixture()
	f.create(t, f.admin, f.admin)
	f.create(t, f.manager, f.staff)

	t.Run("manager filters out admin assignees", func(t *testing.T) {
		result, err := f.svc.ListByAssignee(context.Background(), f.manager, f.admin.ID)
		require.NoError(t, err)
		assert.Empty(t, result)
	})

	t.Run("staff may only ask about themselves", func(t *testing.T) {
		_, err := f.svc.ListByAssignee(context.Background(), f.staff, f.other.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

		result, err := f.svc.ListByAssignee(context.Background(), f.staff, f.staff.ID)
		require.NoError(t, err)
		assert.Len(t, result, 1)
	})

	t.Run("admin is unrestricted", func(t *testing.T) {
		result, err := f.svc.ListByAssignee(context.Background(), f.admin, f.admin.ID)
		require.NoError(t, err)
		assert.Len(t, result, 1)
	})
}

func TestListByCreator(t *testing.T) {
	f := newWorkflowFixture()
	f.create(t, f.manager, f.staff)
	f.create(t, f.manager, f.other)
	f.create(t, f.admin, f.staff)

	result, err := f.svc.ListByCreator(context.Background(), f.staff, f.manager.ID)
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestListByAssignedRole(t *testing.T) {
	f := newWorkflowFixture()
	f.create(t, f.admin, f.manager)
	f.create(t, f.manager, f.staff)

	t.Run("manager cannot ask for admin workflows", func(t *testing.T) {
		_, err := f.svc.ListByAssignedRole(context.Background(), f.manager, domain.RoleAdmin)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("staff may only ask for staff workflows", func(t *testing.T) {
		_, err := f.svc.ListByAssignedRole(context.Background(), f.staff, domain.RoleManager)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

		result, err := f.svc.ListByAssignedRole(context.Background(), f.staff, domain.RoleStaff)
		require.NoError(t, err)
		assert.Len(t, result, 1)
	})

	t.Run("manager asks within scope", func(t *testing.T) {
		result, err := f.svc.ListByAssignedRole(context.Background(), f.manager, domain.RoleManager)
		require.NoError(t, err)
		assert.Len(t, result, 1)
	})
}
