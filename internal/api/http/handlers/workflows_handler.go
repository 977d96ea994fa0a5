package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workflow-service/internal/api/dto"
	"github.com/spec-kit/workflow-service/internal/auth"
	"github.com/spec-kit/workflow-service/internal/domain"
	"github.com/spec-kit/workflow-service/internal/service"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// WorkflowsHandler exposes workflow endpoints.
type WorkflowsHandler struct {
	workflows *service.WorkflowService
}

// NewWorkflowsHandler constructs handler.
func NewWorkflowsHandler(workflowService *service.WorkflowService) *WorkflowsHandler {
	return &WorkflowsHandler{workflows: workflowService}
}

// Create handles POST /api/workflows.
func (h *WorkflowsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateWorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.AssignedTo == "" || req.AssignedToRole == "" {
		return apperrors.NewValidationError("title, assigned_to, assigned_to_role required", nil)
	}
	role, err := domain.ParseRole(req.AssignedToRole)
	if err != nil {
		return apperrors.NewInvalidArgument(err.Error())
	}

	input := service.WorkflowCreateInput{
		Title:          req.Title,
		Description:    req.Description,
		AssignedTo:     req.AssignedTo,
		AssignedToRole: role,
	}
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return apperrors.NewInvalidArgument("due_date must be YYYY-MM-DD")
		}
		input.DueDate = &due
	}

	workflow, err := h.workflows.Create(c.Context(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromWorkflow(workflow)})
}

// List handles GET /api/workflows with optional status, assigneeId and
// assignedToRole query params.
func (h *WorkflowsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var query service.WorkflowListQuery
	if statusStr := c.Query("status"); statusStr != "" {
		status, err := domain.ParseWorkflowStatus(statusStr)
		if err != nil {
			return apperrors.NewInvalidArgument(err.Error())
		}
		query.Status = &status
	}
	if assigneeID := c.Query("assigneeId"); assigneeID != "" {
		query.AssigneeID = &assigneeID
	}
	if roleStr := c.Query("assignedToRole"); roleStr != "" {
		role, err := domain.ParseRole(roleStr)
		if err != nil {
			return apperrors.NewInvalidArgument(err.Error())
		}
		query.AssignedToRole = &role
	}

	workflows, err := h.workflows.List(c.Context(), actor, query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromWorkflows(workflows)})
}

// Get handles GET /api/workflows/:id.
func (h *WorkflowsHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	workflow, err := h.workflows.GetByID(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromWorkflow(workflow)})
}

// Update handles PUT /api/workflows/:id.
func (h *WorkflowsHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateWorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" {
		return apperrors.NewValidationError("title required", nil)
	}

	input := service.WorkflowUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
	}
	if req.Status != "" {
		status, err := domain.ParseWorkflowStatus(req.Status)
		if err != nil {
			return apperrors.NewInvalidArgument(err.Error())
		}
		input.Status = status
	}
	if req.AssignedToRole != "" {
		role, err := domain.ParseRole(req.AssignedToRole)
		if err != nil {
			return apperrors.NewInvalidArgument(err.Error())
		}
		input.AssignedToRole = role
	}

	workflow, err := h.workflows.Update(c.Context(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromWorkflow(workflow)})
}

// Delete handles DELETE /api/workflows/:id.
func (h *WorkflowsHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.workflows.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UpdateStatus handles PATCH /api/workflows/:id/status?newStatus=...
func (h *WorkflowsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	newStatus := c.Query("newStatus")
	if newStatus == "" {
		return apperrors.NewValidationError("newStatus required", nil)
	}

	workflow, err := h.workflows.UpdateStatus(c.Context(), actor, c.Params("id"), newStatus)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromWorkflow(workflow)})
}

// ListMyAssigned handles GET /api/workflows/me/assigned.
func (h *WorkflowsHandler) ListMyAssigned(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	workflows, err := h.workflows.ListByAssignee(c.Context(), actor, actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromWorkflows(workflows)})
}

// ListMyCreated handles GET /api/workflows/me/created.
func (h *WorkflowsHandler) ListMyCreated(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	workflows, err := h.workflows.ListByCreator(c.Context(), actor, actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromWorkflows(workflows)})
}

// ListByAssignee handles GET /api/workflows/assignee/:id.
func (h *WorkflowsHandler) ListByAssignee(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	workflows, err := h.workflows.ListByAssignee(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromWorkflows(workflows)})
}

// ListByAssignedRole handles GET /api/workflows/role/:role.
func (h *WorkflowsHandler) ListByAssignedRole(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	role, err := domain.ParseRole(c.Params("role"))
	if err != nil {
		return apperrors.NewInvalidArgument(err.Error())
	}
	workflows, err := h.workflows.ListByAssignedRole(c.Context(), actor, role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromWorkflows(workflows)})
}
