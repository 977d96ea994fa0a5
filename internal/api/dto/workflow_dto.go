package dto

import (
	"time"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// CreateWorkflowRequest payload for workflow creation.
type CreateWorkflowRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	AssignedTo     string `json:"assigned_to"`
	AssignedToRole string `json:"assigned_to_role"`
	DueDate        string `json:"due_date,omitempty"`
}

// UpdateWorkflowRequest payload for full workflow updates. Which fields take
// effect depends on the actor's relationship to the workflow.
type UpdateWorkflowRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Status         string `json:"status,omitempty"`
	AssignedTo     string `json:"assigned_to,omitempty"`
	AssignedToRole string `json:"assigned_to_role,omitempty"`
}

// WorkflowResponse is the outward shape of a workflow record.
type WorkflowResponse struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Status         domain.WorkflowStatus `json:"status"`
	AssignedTo     string                `json:"assigned_to"`
	AssignedToRole domain.Role           `json:"assigned_to_role"`
	CreatedBy      string                `json:"created_by"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	DueDate        string                `json:"due_date,omitempty"`
}

// FromWorkflow maps a domain workflow to its response shape.
func FromWorkflow(workflow *domain.Workflow) WorkflowResponse {
	response := WorkflowResponse{
		ID:             workflow.ID,
		Title:          workflow.Title,
		Description:    workflow.Description,
		Status:         workflow.Status,
		AssignedTo:     workflow.AssignedTo,
		AssignedToRole: workflow.AssignedToRole,
		CreatedBy:      workflow.CreatedBy,
		CreatedAt:      workflow.CreatedAt,
		UpdatedAt:      workflow.UpdatedAt,
	}
	if workflow.DueDate != nil {
		response.DueDate = workflow.DueDate.Format("2006-01-02")
	}
	return response
}

// FromWorkflows maps a slice of domain workflows.
func FromWorkflows(workflows []domain.Workflow) []WorkflowResponse {
	result := make([]WorkflowResponse, 0, len(workflows))
	for i := range workflows {
		result = append(result, FromWorkflow(&workflows[i]))
	}
	return result
}
