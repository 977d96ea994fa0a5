package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/events"
	"github.com/spec-kit/workflow-service/internal/repository"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// WorkflowService coordinates workflow creation, role-scoped listing and the
// gated mutation paths.
type WorkflowService struct {
	workflows  repository.WorkflowRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// WorkflowCreateInput describes workflow creation payload.
type WorkflowCreateInput struct {
	Title          string
	Description    string
	AssignedTo     string
	AssignedToRole domain.Role
	DueDate        *time.Time
}

// WorkflowUpdateInput carries the full-update payload. Which fields actually
// land depends on the actor: title and description always do, status only
// for the assignee, assignee fields only for ADMIN or the creator.
type WorkflowUpdateInput struct {
	Title          string
	Description    string
	Status         domain.WorkflowStatus
	AssignedTo     string
	AssignedToRole domain.Role
}

// WorkflowListQuery describes optional listing filters. How much of it is
// honored depends on the actor's role.
type WorkflowListQuery struct {
	Status         *domain.WorkflowStatus
	AssigneeID     *string
	AssignedToRole *domain.Role
}

// NewWorkflowService constructs the service.
func NewWorkflowService(workflows repository.WorkflowRepository, users repository.UserRepository, dispatcher events.Dispatcher) *WorkflowService {
	return &WorkflowService{workflows: workflows, users: users, dispatcher: dispatcher}
}

// Create makes a new workflow. Any authenticated actor may create one; the
// assignee must exist and actually hold the declared role. New workflows
// always start PENDING.
func (s *WorkflowService) Create(ctx context.Context, actor *domain.User, input WorkflowCreateInput) (*domain.Workflow, error) {
	if err := s.validateAssignee(ctx, input.AssignedTo, input.AssignedToRole); err != nil {
		return nil, err
	}

	workflow := &domain.Workflow{
		Title:          strings.TrimSpace(input.Title),
		Description:    strings.TrimSpace(input.Description),
		Status:         domain.WorkflowStatusPending,
		AssignedTo:     input.AssignedTo,
		AssignedToRole: input.AssignedToRole,
		CreatedBy:      actor.ID,
		DueDate:        input.DueDate,
	}
	if err := s.workflows.Create(ctx, workflow); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       events.EventWorkflowCreated,
		WorkflowID: workflow.ID,
		ActorID:    actor.ID,
		Payload: events.WorkflowCreatedPayload{
			Title:          workflow.Title,
			AssignedTo:     workflow.AssignedTo,
			AssignedToRole: workflow.AssignedToRole,
		},
	})
	return workflow, nil
}

// List returns workflows visible to the actor. ADMIN sees everything and may
// combine any filters; MANAGER is confined to workflows assigned to MANAGER
// or STAFF roles, and asking for a role outside that set yields an empty
// result rather than an error; STAFF only ever sees their own assignments,
// filtered by status at most.
func (s *WorkflowService) List(ctx context.Context, actor *domain.User, query WorkflowListQuery) ([]domain.Workflow, error) {
	filter := repository.WorkflowFilter{Status: query.Status}

	switch actor.Role {
	case domain.RoleAdmin:
		filter.AssignedTo = query.AssigneeID
		filter.AssignedToRole = query.AssignedToRole
	case domain.RoleManager:
		filter.AssignedTo = query.AssigneeID
		if query.AssignedToRole != nil {
			if !managerVisibleRole(*query.AssignedToRole) {
				return []domain.Workflow{}, nil
			}
			filter.AssignedToRole = query.AssignedToRole
		} else {
			filter.AssignedToRoleIn = []domain.Role{domain.RoleManager, domain.RoleStaff}
		}
	default:
		filter.AssignedTo = &actor.ID
	}

	result, err := s.workflows.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// GetByID fetches a workflow for an actor who is ADMIN, the assignee or the
// creator.
func (s *WorkflowService) GetByID(ctx context.Context, actor *domain.User, id string) (*domain.Workflow, error) {
	workflow, err := s.getWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateWorkflowAccess(workflow, actor); err != nil {
		return nil, err
	}
	return workflow, nil
}

// Update applies a full update. Access and edit eligibility are verified as
// two separate gates so each denial surfaces its own failure, even though
// the two rules currently admit the same actors.
func (s *WorkflowService) Update(ctx context.Context, actor *domain.User, id string, input WorkflowUpdateInput) (*domain.Workflow, error) {
	workflow, err := s.getWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validateWorkflowAccess(workflow, actor); err != nil {
		return nil, err
	}
	if !s.canEditWorkflow(workflow, actor) {
		return nil, apperrors.NewForbidden("not authorized to edit this workflow")
	}

	oldAssignee := workflow.AssignedTo
	oldStatus := workflow.Status
	s.applyUpdateFields(workflow, input, actor)

	if err := s.workflows.Update(ctx, workflow); err != nil {
		return nil, apperrors.MapError(err)
	}

	if workflow.AssignedTo != oldAssignee {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:       events.EventWorkflowAssigned,
			WorkflowID: workflow.ID,
			ActorID:    actor.ID,
			Payload: events.WorkflowAssignedPayload{
				OldAssignee:    oldAssignee,
				NewAssignee:    workflow.AssignedTo,
				AssignedToRole: workflow.AssignedToRole,
			},
		})
	}
	if workflow.Status != oldStatus {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:       events.EventWorkflowStatusChanged,
			WorkflowID: workflow.ID,
			ActorID:    actor.ID,
			Payload:    events.WorkflowStatusChangedPayload{OldStatus: oldStatus, NewStatus: workflow.Status},
		})
	}
	return workflow, nil
}

// Delete removes a workflow. Only the creator or an ADMIN may delete; the
// assignee alone has no say.
func (s *WorkflowService) Delete(ctx context.Context, actor *domain.User, id string) error {
	workflow, err := s.getWorkflow(ctx, id)
	if err != nil {
		return err
	}

	if workflow.CreatedBy != actor.ID && actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("only admins or workflow creators can delete workflows")
	}

	if err := s.workflows.Delete(ctx, workflow.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// UpdateStatus moves a workflow to a new status. Only the current assignee
// may use this path; there is no transition graph, any status can follow
// any other.
func (s *WorkflowService) UpdateStatus(ctx context.Context, actor *domain.User, id, newStatus string) (*domain.Workflow, error) {
	workflow, err := s.getWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow.AssignedTo != actor.ID {
		return nil, apperrors.NewForbidden("only the assignee can update workflow status")
	}

	status, err := domain.ParseWorkflowStatus(newStatus)
	if err != nil {
		return nil, apperrors.NewInvalidArgument(err.Error())
	}

	oldStatus := workflow.Status
	workflow.Status = status
	if err := s.workflows.Update(ctx, workflow); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:       events.EventWorkflowStatusChanged,
		WorkflowID: workflow.ID,
		ActorID:    actor.ID,
		Payload:    events.WorkflowStatusChangedPayload{OldStatus: oldStatus, NewStatus: status},
	})
	return workflow, nil
}

// ListByAssignee returns workflows assigned to the given user. ADMIN is
// unrestricted; MANAGER results are narrowed after the query to assignee
// roles they can see; STAFF may only ask about themselves.
func (s *WorkflowService) ListByAssignee(ctx context.Context, actor *domain.User, assigneeID string) ([]domain.Workflow, error) {
	switch actor.Role {
	case domain.RoleAdmin:
		return s.listWithFilter(ctx, repository.WorkflowFilter{AssignedTo: &assigneeID})
	case domain.RoleManager:
		workflows, err := s.listWithFilter(ctx, repository.WorkflowFilter{AssignedTo: &assigneeID})
		if err != nil {
			return nil, err
		}
		visible := make([]domain.Workflow, 0, len(workflows))
		for _, workflow := range workflows {
			if managerVisibleRole(workflow.AssignedToRole) {
				visible = append(visible, workflow)
			}
		}
		return visible, nil
	default:
		if assigneeID != actor.ID {
			return nil, apperrors.NewForbidden("you can only view your own assigned workflows")
		}
		return s.listWithFilter(ctx, repository.WorkflowFilter{AssignedTo: &assigneeID})
	}
}

// ListByCreator returns workflows created by the given user.
func (s *WorkflowService) ListByCreator(ctx context.Context, _ *domain.User, creatorID string) ([]domain.Workflow, error) {
	return s.listWithFilter(ctx, repository.WorkflowFilter{CreatedBy: &creatorID})
}

// ListByAssignedRole returns workflows whose assignee holds the given role.
// MANAGER may only ask about MANAGER or STAFF, STAFF only about STAFF.
func (s *WorkflowService) ListByAssignedRole(ctx context.Context, actor *domain.User, role domain.Role) ([]domain.Workflow, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleManager:
		if !managerVisibleRole(role) {
			return nil, apperrors.NewForbidden("you can only filter by MANAGER or STAFF roles")
		}
	default:
		if role != domain.RoleStaff {
			return nil, apperrors.NewForbidden("you can only view STAFF workflows")
		}
	}
	return s.listWithFilter(ctx, repository.WorkflowFilter{AssignedToRole: &role})
}

func (s *WorkflowService) listWithFilter(ctx context.Context, filter repository.WorkflowFilter) ([]domain.Workflow, error) {
	result, err := s.workflows.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

func (s *WorkflowService) getWorkflow(ctx context.Context, id string) (*domain.Workflow, error) {
	workflow, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("workflow", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return workflow, nil
}

// validateAssignee checks that the assignee exists and that the declared
// role matches the role they hold right now. The stored role is a snapshot;
// later role changes leave it stale on purpose.
func (s *WorkflowService) validateAssignee(ctx context.Context, assigneeID string, declaredRole domain.Role) error {
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("assignee", map[string]any{"id": assigneeID})
		}
		return apperrors.MapError(err)
	}
	if assignee.Role != declaredRole {
		return apperrors.NewInvalidArgument("assignee role doesn't match the required role")
	}
	return nil
}

func (s *WorkflowService) hasAccessToWorkflow(workflow *domain.Workflow, actor *domain.User) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	if workflow.AssignedTo == actor.ID {
		return true
	}
	return workflow.CreatedBy == actor.ID
}

func (s *WorkflowService) canEditWorkflow(workflow *domain.Workflow, actor *domain.User) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	if workflow.CreatedBy == actor.ID {
		return true
	}
	return workflow.AssignedTo == actor.ID
}

func (s *WorkflowService) validateWorkflowAccess(workflow *domain.Workflow, actor *domain.User) error {
	if !s.hasAccessToWorkflow(workflow, actor) {
		return apperrors.NewForbidden("not authorized to access this workflow")
	}
	return nil
}

func (s *WorkflowService) applyUpdateFields(workflow *domain.Workflow, input WorkflowUpdateInput, actor *domain.User) {
	workflow.Title = input.Title
	workflow.Description = input.Description

	if input.Status != "" && workflow.AssignedTo == actor.ID {
		workflow.Status = input.Status
	}

	if input.AssignedTo != "" && (actor.Role == domain.RoleAdmin || workflow.CreatedBy == actor.ID) {
		workflow.AssignedTo = input.AssignedTo
		workflow.AssignedToRole = input.AssignedToRole
	}
}

func managerVisibleRole(role domain.Role) bool {
	return role == domain.RoleManager || role == domain.RoleStaff
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
