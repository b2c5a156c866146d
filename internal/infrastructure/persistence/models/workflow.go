package models

import (
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/workflow"
	"github.com/google/uuid"
)

// TaskModel is the persistence model for the workflow Task entity.
type TaskModel struct {
	TenantAggregateModel
	Title       string                `gorm:"type:varchar(200);not null"`
	Description string                `gorm:"type:text"`
	Type        workflow.TaskType     `gorm:"type:varchar(30);not null;index"`
	Priority    workflow.TaskPriority `gorm:"type:varchar(10);not null;default:'normal'"`
	Status      workflow.TaskStatus   `gorm:"type:varchar(10);not null;default:'open';index"`
	EntityType  string                `gorm:"type:varchar(30);not null"`
	EntityID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	DueDate     *time.Time            `gorm:"index"`
	CompletedAt *time.Time            `gorm:"type:timestamptz"`
	CompletedBy *uuid.UUID            `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (TaskModel) TableName() string {
	return "workflow_tasks"
}

// ToDomain converts the persistence model to a domain Task entity.
func (m *TaskModel) ToDomain() *workflow.Task {
	return &workflow.Task{
		TenantAggregateRoot: m.root(),
		Title:               m.Title,
		Description:         m.Description,
		Type:                m.Type,
		Priority:            m.Priority,
		Status:              m.Status,
		EntityType:          m.EntityType,
		EntityID:            m.EntityID,
		DueDate:             cloneTime(m.DueDate),
		CompletedAt:         cloneTime(m.CompletedAt),
		CompletedBy:         shared.CloneID(m.CompletedBy),
	}
}

// FromDomain populates the persistence model from a domain Task entity.
func (m *TaskModel) FromDomain(t *workflow.Task) {
	m.setRoot(t.TenantAggregateRoot)
	m.Title = t.Title
	m.Description = t.Description
	m.Type = t.Type
	m.Priority = t.Priority
	m.Status = t.Status
	m.EntityType = t.EntityType
	m.EntityID = t.EntityID
	m.DueDate = cloneTime(t.DueDate)
	m.CompletedAt = cloneTime(t.CompletedAt)
	m.CompletedBy = shared.CloneID(t.CompletedBy)
}
