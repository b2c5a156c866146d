package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by a tenant aggregate. Events drive the
// workflow rules and business metrics; they never carry mutable state.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// EventSource identifies the aggregate that raised an event
type EventSource struct {
	Type string    `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// BaseDomainEvent is the envelope embedded by every concrete event
type BaseDomainEvent struct {
	ID     uuid.UUID   `json:"id"`
	Type   string      `json:"type"`
	At     time.Time   `json:"at"`
	Tenant uuid.UUID   `json:"tenant_id"`
	Source EventSource `json:"source"`
}

// NewBaseDomainEvent stamps a new envelope for an event of eventType raised by
// the aggregate (aggType, aggID) of tenantID
func NewBaseDomainEvent(eventType, aggType string, aggID, tenantID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:     uuid.New(),
		Type:   eventType,
		At:     time.Now().UTC(),
		Tenant: tenantID,
		Source: EventSource{Type: aggType, ID: aggID},
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.At }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Source.ID }
func (e *BaseDomainEvent) AggregateType() string  { return e.Source.Type }
func (e *BaseDomainEvent) TenantID() uuid.UUID    { return e.Tenant }

// EventHandler reacts to published events. An empty EventTypes subscribes the
// handler to everything.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher publishes events raised by a committed mutation
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus routes published events to subscribed handlers. Handler failures
// stay inside the bus.
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
