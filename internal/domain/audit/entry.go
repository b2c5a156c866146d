package audit

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// Action is the kind of change an audit entry records
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionStatusChange Action = "status_change"
	ActionAdjustment   Action = "adjustment"
)

// IsValid checks if the action is known
func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionStatusChange, ActionAdjustment:
		return true
	}
	return false
}

// Payload is an arbitrary JSON document attached to an entry
type Payload map[string]any

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *Payload) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan audit Payload: unsupported type")
	}

	if len(bytes) == 0 || string(bytes) == "null" {
		*p = nil
		return nil
	}
	return json.Unmarshal(bytes, p)
}

// Entry is one immutable audit record
type Entry struct {
	ID         uuid.UUID   `json:"id"`
	TenantID   uuid.UUID   `json:"tenant_id"`
	ActorID    uuid.UUID   `json:"actor_id"`
	ActorRole  shared.Role `json:"actor_role"`
	Action     Action      `json:"action"`
	EntityType string      `json:"entity_type"`
	EntityID   uuid.UUID   `json:"entity_id"`
	Before     Payload     `json:"before,omitempty"`
	After      Payload     `json:"after,omitempty"`
	Metadata   Payload     `json:"metadata,omitempty"`
	Message    string      `json:"message"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Filter narrows an audit query. Zero values match everything.
type Filter struct {
	EntityType string
	EntityID   uuid.UUID
	ActorID    uuid.UUID
	Action     Action
	Since      time.Time
	Limit      int
}

// Matches reports whether the entry passes the filter
func (f Filter) Matches(e *Entry) bool {
	if f.EntityType != "" && f.EntityType != e.EntityType {
		return false
	}
	if f.EntityID != uuid.Nil && f.EntityID != e.EntityID {
		return false
	}
	if f.ActorID != uuid.Nil && f.ActorID != e.ActorID {
		return false
	}
	if f.Action != "" && f.Action != e.Action {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

// Sink is an append-only audit store; it exposes no update or delete.
type Sink interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Entry, error)
}
