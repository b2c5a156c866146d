package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm keeps counters in the sequence_counters table. Each allocation is a
// single upsert that increments and returns the counter.
type Gorm struct {
	db *gorm.DB
}

// NewGorm creates a database-backed generator
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// Next returns the next number for the tenant and sequence name
func (g *Gorm) Next(ctx context.Context, tenantID uuid.UUID, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("sequence name is required")
	}
	row := models.SequenceCounterModel{
		TenantID:  tenantID,
		Name:      name,
		Value:     1,
		UpdatedAt: time.Now(),
	}
	err := g.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "tenant_id"}, {Name: "name"}},
				DoUpdates: clause.Assignments(map[string]any{
					"value":      gorm.Expr("sequence_counters.value + 1"),
					"updated_at": row.UpdatedAt,
				}),
			},
			clause.Returning{Columns: []clause.Column{{Name: "value"}}},
		).
		Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s number: %w", name, err)
	}
	return row.Value, nil
}

var _ shared.SequenceGenerator = (*Gorm)(nil)
