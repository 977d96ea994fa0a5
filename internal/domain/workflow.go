package domain

import (
	"fmt"
	"strings"
	"time"
)

// WorkflowStatus enumerates lifecycle states for workflows.
type WorkflowStatus string

const (
	WorkflowStatusPending    WorkflowStatus = "PENDING"
	WorkflowStatusInProgress WorkflowStatus = "IN_PROGRESS"
	WorkflowStatusCompleted  WorkflowStatus = "COMPLETED"
	WorkflowStatusRejected   WorkflowStatus = "REJECTED"
	WorkflowStatusCancelled  WorkflowStatus = "CANCELLED"
)

var workflowStatuses = map[WorkflowStatus]struct{}{
	WorkflowStatusPending:    {},
	WorkflowStatusInProgress: {},
	WorkflowStatusCompleted:  {},
	WorkflowStatusRejected:   {},
	WorkflowStatusCancelled:  {},
}

// Valid reports whether s is a known status.
func (s WorkflowStatus) Valid() bool {
	_, ok := workflowStatuses[s]
	return ok
}

// ParseWorkflowStatus converts a case-insensitive string into a status.
func ParseWorkflowStatus(value string) (WorkflowStatus, error) {
	status := WorkflowStatus(strings.ToUpper(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", fmt.Errorf("invalid workflow status: %s", value)
	}
	return status, nil
}

// Workflow is the tracked task record. AssignedToRole is a snapshot of the
// assignee's role taken at assignment time; it is not re-synced if the
// assignee's role changes later.
type Workflow struct {
	ID             string
	Title          string
	Description    string
	Status         WorkflowStatus
	AssignedTo     string
	AssignedToRole Role
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DueDate        *time.Time
}
