package events

import (
	"time"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventWorkflowCreated       EventType = "workflow_created"
	EventWorkflowAssigned      EventType = "workflow_assigned"
	EventWorkflowStatusChanged EventType = "workflow_status_changed"
	EventUserCreated           EventType = "user_created"
)

// Event represents a domain event emitted by services. ActorID names the
// authenticated user who performed the operation; it is empty for system
// actions such as the seed bootstrap.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	WorkflowID string      `json:"workflow_id,omitempty"`
	UserID     string      `json:"user_id,omitempty"`
	ActorID    string      `json:"actor_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// WorkflowCreatedPayload payload.
type WorkflowCreatedPayload struct {
	Title          string      `json:"title"`
	AssignedTo     string      `json:"assigned_to"`
	AssignedToRole domain.Role `json:"assigned_to_role"`
}

// WorkflowAssignedPayload payload.
type WorkflowAssignedPayload struct {
	OldAssignee    string      `json:"old_assignee"`
	NewAssignee    string      `json:"new_assignee"`
	AssignedToRole domain.Role `json:"assigned_to_role"`
}

// WorkflowStatusChangedPayload payload.
type WorkflowStatusChangedPayload struct {
	OldStatus domain.WorkflowStatus `json:"old_status"`
	NewStatus domain.WorkflowStatus `json:"new_status"`
}

// UserCreatedPayload payload.
type UserCreatedPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}
