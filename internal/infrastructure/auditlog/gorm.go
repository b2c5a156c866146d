// Package auditlog stores audit entries. Both sinks are append-only.
package auditlog

import (
	"context"
	"fmt"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/audit"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSink writes audit entries to the audit_logs table
type GormSink struct {
	db *gorm.DB
}

// NewGormSink creates a database-backed audit sink
func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

// Append inserts the entry
func (s *GormSink) Append(ctx context.Context, entry *audit.Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(models.AuditLogModelFromDomain(entry)).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// List returns the tenant's entries matching the filter, newest first
func (s *GormSink) List(ctx context.Context, tenantID uuid.UUID, filter audit.Filter) ([]*audit.Entry, error) {
	query := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != uuid.Nil {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.ActorID != uuid.Nil {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if !filter.Since.IsZero() {
		query = query.Where("occurred_at >= ?", filter.Since)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []models.AuditLogModel
	if err := query.Order("occurred_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	entries := make([]*audit.Entry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

var _ audit.Sink = (*GormSink)(nil)
