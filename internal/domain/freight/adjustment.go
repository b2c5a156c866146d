package freight

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// AdjustmentEntry records one field edited after the load was locked
type AdjustmentEntry struct {
	ID        uuid.UUID   `json:"id"`
	Field     LoadField   `json:"field"`
	OldValue  string      `json:"old_value"`
	NewValue  string      `json:"new_value"`
	Reason    string      `json:"reason"`
	ActorID   uuid.UUID   `json:"actor_id"`
	ActorRole shared.Role `json:"actor_role"`
	At        time.Time   `json:"at"`
}

// AdjustmentLog is the append-only adjustment history, stored as JSONB
type AdjustmentLog []AdjustmentEntry

// Value implements driver.Valuer interface for GORM to store as JSONB
func (a AdjustmentLog) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (a *AdjustmentLog) Scan(value interface{}) error {
	if value == nil {
		*a = AdjustmentLog{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan AdjustmentLog: unsupported type")
	}

	if len(bytes) == 0 {
		*a = AdjustmentLog{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}
