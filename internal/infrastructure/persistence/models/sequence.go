package models

import (
	"time"

	"github.com/google/uuid"
)

// SequenceCounterModel holds the last number handed out for one tenant and
// sequence name.
type SequenceCounterModel struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(50);primaryKey"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceCounterModel) TableName() string {
	return "sequence_counters"
}
