package dto

import (
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/workflow"
	"github.com/google/uuid"
)

// TaskResponse is the API representation of a workflow task
type TaskResponse struct {
	ID          uuid.UUID             `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Type        workflow.TaskType     `json:"type"`
	Priority    workflow.TaskPriority `json:"priority"`
	Status      workflow.TaskStatus   `json:"status"`
	EntityType  string                `json:"entity_type"`
	EntityID    uuid.UUID             `json:"entity_id"`
	DueDate     *time.Time            `json:"due_date,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
	CompletedBy *uuid.UUID            `json:"completed_by,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// NewTaskResponse converts a task
func NewTaskResponse(t *workflow.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Type:        t.Type,
		Priority:    t.Priority,
		Status:      t.Status,
		EntityType:  t.EntityType,
		EntityID:    t.EntityID,
		DueDate:     t.DueDate,
		CompletedAt: t.CompletedAt,
		CompletedBy: t.CompletedBy,
		CreatedAt:   t.CreatedAt,
	}
}

// NewTaskResponses converts a list of tasks
func NewTaskResponses(items []*workflow.Task) []TaskResponse {
	return mapAll(items, NewTaskResponse)
}

// AuditQuery filters the audit trail
type AuditQuery struct {
	EntityType string    `form:"entity_type"`
	EntityID   string    `form:"entity_id" binding:"omitempty,uuid"`
	ActorID    string    `form:"actor_id" binding:"omitempty,uuid"`
	Action     string    `form:"action"`
	Since      time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit      int       `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// SweepResultResponse reports one tenant's overdue sweep
type SweepResultResponse struct {
	Flagged int `json:"flagged"`
}
