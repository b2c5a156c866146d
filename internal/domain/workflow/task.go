package workflow

import (
	"strings"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// TaskType classifies follow-up work
type TaskType string

const (
	TaskTypeAssignDriver      TaskType = "assign_driver"
	TaskTypeRateConfirmation  TaskType = "rate_confirmation"
	TaskTypeProofOfDelivery   TaskType = "proof_of_delivery"
	TaskTypePaymentFollowUp   TaskType = "payment_follow_up"
	TaskTypeCancellationCheck TaskType = "cancellation_check"
)

// TaskPriority orders tasks in a work queue
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityNormal TaskPriority = "normal"
	TaskPriorityHigh   TaskPriority = "high"
)

// TaskStatus is open until someone completes the task
type TaskStatus string

const (
	TaskStatusOpen TaskStatus = "open"
	TaskStatusDone TaskStatus = "done"
)

// Task is a unit of follow-up work raised by a domain event
type Task struct {
	shared.TenantAggregateRoot
	Title       string
	Description string
	Type        TaskType
	Priority    TaskPriority
	Status      TaskStatus
	EntityType  string
	EntityID    uuid.UUID
	DueDate     *time.Time
	CompletedAt *time.Time
	CompletedBy *uuid.UUID
}

// NewTask creates an open task about an entity
func NewTask(tenantID uuid.UUID, taskType TaskType, title, entityType string, entityID uuid.UUID) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewValidationError("Task title is required")
	}
	return &Task{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Title:               title,
		Type:                taskType,
		Priority:            TaskPriorityNormal,
		Status:              TaskStatusOpen,
		EntityType:          entityType,
		EntityID:            entityID,
	}, nil
}

// Complete marks the task done
func (t *Task) Complete(by uuid.UUID, at time.Time) error {
	if t.Status == TaskStatusDone {
		return shared.NewPreconditionFailedError("Task is already completed")
	}
	t.Status = TaskStatusDone
	t.CompletedAt = &at
	t.CompletedBy = &by
	t.IncrementVersion()
	return nil
}

// Clone returns a deep copy
func (t *Task) Clone() *Task {
	cp := *t
	cp.ClearDomainEvents()
	cp.CreatedBy = shared.CloneID(t.CreatedBy)
	cp.CompletedBy = shared.CloneID(t.CompletedBy)
	if t.DueDate != nil {
		d := *t.DueDate
		cp.DueDate = &d
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		cp.CompletedAt = &c
	}
	return &cp
}
