package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/changefeed"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordModel is the persistence model of a tenant-scoped domain record
type RecordModel[T any, M any] interface {
	*M
	ToDomain() *T
	FromDomain(*T)
	GetID() uuid.UUID
	GetTenantID() uuid.UUID
}

// GormStore implements shared.EntityStore for one table. Writes announce
// themselves on the change feed; subscribers re-read the tenant's rows.
type GormStore[T any, M any, MP RecordModel[T, M]] struct {
	db         *gorm.DB
	entityType string
	feed       changefeed.Feed
	logger     *zap.Logger
}

// NewGormStore creates a store for entityType. A nil feed disables Subscribe
// deliveries.
func NewGormStore[T any, M any, MP RecordModel[T, M]](db *gorm.DB, entityType string, feed changefeed.Feed, logger *zap.Logger) *GormStore[T, M, MP] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormStore[T, M, MP]{
		db:         db,
		entityType: entityType,
		feed:       feed,
		logger:     logger.With(zap.String("entity_type", entityType)),
	}
}

// Get finds a record by ID within the tenant
func (s *GormStore[T, M, MP]) Get(ctx context.Context, tenantID, id uuid.UUID) (*T, error) {
	var model M
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError(s.entityType, id)
		}
		return nil, err
	}
	return MP(&model).ToDomain(), nil
}

// List returns every record of the tenant, oldest first
func (s *GormStore[T, M, MP]) List(ctx context.Context, tenantID uuid.UUID) ([]*T, error) {
	var rows []M
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*T, len(rows))
	for i := range rows {
		out[i] = MP(&rows[i]).ToDomain()
	}
	return out, nil
}

// Save inserts the record or overwrites the stored row with the same ID
func (s *GormStore[T, M, MP]) Save(ctx context.Context, entity *T) error {
	model := MP(new(M))
	model.FromDomain(entity)

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", s.entityType, err)
	}
	s.announce(ctx, model.GetTenantID(), model.GetID(), changefeed.ActionSaved)
	return nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (s *GormStore[T, M, MP]) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(MP(new(M)))
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s: %w", s.entityType, result.Error)
	}
	if result.RowsAffected > 0 {
		s.announce(ctx, tenantID, id, changefeed.ActionDeleted)
	}
	return nil
}

// Subscribe re-lists the tenant's rows whenever the change feed reports a
// write to this table
func (s *GormStore[T, M, MP]) Subscribe(ctx context.Context, tenantID uuid.UUID, onChange func([]*T), onError func(error)) (func(), error) {
	if s.feed == nil {
		return func() {}, nil
	}
	listCtx := context.WithoutCancel(ctx)
	return s.feed.Subscribe(s.entityType, tenantID, func(changefeed.Notice) {
		items, err := s.List(listCtx, tenantID)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(items)
	}), nil
}

func (s *GormStore[T, M, MP]) announce(ctx context.Context, tenantID, id uuid.UUID, action changefeed.Action) {
	if s.feed == nil {
		return
	}
	err := s.feed.Publish(ctx, changefeed.Notice{
		Topic:     s.entityType,
		TenantID:  tenantID,
		EntityID:  id,
		Action:    action,
		Timestamp: time.Now().UnixNano(),
	})
	if err != nil {
		s.logger.Warn("Failed to announce change",
			zap.String("entity_id", id.String()),
			zap.Error(err),
		)
	}
}
