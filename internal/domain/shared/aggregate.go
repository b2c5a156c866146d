package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity holds identity and timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID satisfies Record
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// BaseAggregateRoot adds the optimistic-lock version and the events raised by
// the last mutation. Version starts at 1 and grows by one per applied change.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	events  []DomainEvent
}

// IncrementVersion marks a change as applied
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
	a.UpdatedAt = time.Now().UTC()
}

// AddDomainEvent queues an event for publication after persistence succeeds
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// GetDomainEvents returns the queued events without clearing them
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.events
}

// ClearDomainEvents drops queued events. Clones call it so a snapshot never
// republishes its source's events.
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.events = nil
}

// PullDomainEvents returns the queued events and clears them
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	events := a.events
	a.events = nil
	return events
}

// TenantAggregateRoot is the root of every tenant-owned record: loads, fleet,
// partners, invoices, settlements, expenses and tasks
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
}

// NewTenantAggregateRoot returns a version 1 root with a fresh id
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	now := time.Now().UTC()
	return TenantAggregateRoot{
		BaseAggregateRoot: BaseAggregateRoot{
			BaseEntity: BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			Version:    1,
		},
		TenantID: tenantID,
	}
}

// GetTenantID returns the owning tenant
func (t *TenantAggregateRoot) GetTenantID() uuid.UUID {
	return t.TenantID
}
