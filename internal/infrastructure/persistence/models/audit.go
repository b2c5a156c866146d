package models

import (
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditLogModel is one row of the append-only audit log.
// It has no UpdatedAt; rows are never modified.
type AuditLogModel struct {
	ID         uuid.UUID     `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID     `gorm:"type:uuid;not null;index:idx_audit_tenant_entity,priority:1;index:idx_audit_tenant_time,priority:1"`
	ActorID    uuid.UUID     `gorm:"type:uuid;not null;index"`
	ActorRole  shared.Role   `gorm:"type:varchar(20);not null"`
	Action     audit.Action  `gorm:"type:varchar(20);not null"`
	EntityType string        `gorm:"type:varchar(30);not null;index:idx_audit_tenant_entity,priority:2"`
	EntityID   uuid.UUID     `gorm:"type:uuid;not null;index:idx_audit_tenant_entity,priority:3"`
	Before     audit.Payload `gorm:"type:jsonb"`
	After      audit.Payload `gorm:"type:jsonb"`
	Metadata   audit.Payload `gorm:"type:jsonb"`
	Message    string        `gorm:"type:text"`
	Timestamp  time.Time     `gorm:"column:occurred_at;not null;index:idx_audit_tenant_time,priority:2"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the row to an audit entry.
func (m *AuditLogModel) ToDomain() *audit.Entry {
	return &audit.Entry{
		ID:         m.ID,
		TenantID:   m.TenantID,
		ActorID:    m.ActorID,
		ActorRole:  m.ActorRole,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Before:     m.Before,
		After:      m.After,
		Metadata:   m.Metadata,
		Message:    m.Message,
		Timestamp:  m.Timestamp,
	}
}

// AuditLogModelFromDomain creates a row from an audit entry.
func AuditLogModelFromDomain(e *audit.Entry) *AuditLogModel {
	return &AuditLogModel{
		ID:         e.ID,
		TenantID:   e.TenantID,
		ActorID:    e.ActorID,
		ActorRole:  e.ActorRole,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Before:     e.Before,
		After:      e.After,
		Metadata:   e.Metadata,
		Message:    e.Message,
		Timestamp:  e.Timestamp,
	}
}
