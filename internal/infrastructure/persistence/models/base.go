package models

import (
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantAggregateModel holds the columns shared by every tenant-owned table:
// identity, owning tenant, optimistic-lock version and creator
type TenantAggregateModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Version   int        `gorm:"not null;default:1"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// GetID returns the primary key
func (m *TenantAggregateModel) GetID() uuid.UUID {
	return m.ID
}

// GetTenantID returns the owning tenant
func (m *TenantAggregateModel) GetTenantID() uuid.UUID {
	return m.TenantID
}

func (m *TenantAggregateModel) setRoot(t shared.TenantAggregateRoot) {
	m.ID = t.ID
	m.TenantID = t.TenantID
	m.Version = t.Version
	m.CreatedBy = shared.CloneID(t.CreatedBy)
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
}

func (m *TenantAggregateModel) root() shared.TenantAggregateRoot {
	var t shared.TenantAggregateRoot
	t.ID = m.ID
	t.CreatedAt = m.CreatedAt
	t.UpdatedAt = m.UpdatedAt
	t.Version = m.Version
	t.TenantID = m.TenantID
	t.CreatedBy = shared.CloneID(m.CreatedBy)
	return t
}
