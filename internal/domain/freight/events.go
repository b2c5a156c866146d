package freight

import (
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeLoadCreated       = "LoadCreated"
	EventTypeLoadStatusChanged = "LoadStatusChanged"
	EventTypeLoadDelivered     = "LoadDelivered"
)

// LoadCreatedEvent is raised when a load is created
type LoadCreatedEvent struct {
	shared.BaseDomainEvent
	LoadNumber   string          `json:"load_number"`
	Status       LoadStatus      `json:"status"`
	CustomerName string          `json:"customer_name"`
	DriverID     *uuid.UUID      `json:"driver_id,omitempty"`
	PickupDate   *time.Time      `json:"pickup_date,omitempty"`
	Rate         decimal.Decimal `json:"rate"`
}

// NewLoadCreatedEvent creates a new LoadCreatedEvent
func NewLoadCreatedEvent(l *Load) *LoadCreatedEvent {
	return &LoadCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoadCreated, AggregateTypeLoad, l.ID, l.TenantID),
		LoadNumber:      l.LoadNumber,
		Status:          l.Status,
		CustomerName:    l.CustomerName,
		DriverID:        shared.CloneID(l.DriverID),
		PickupDate:      cloneTime(l.PickupDate),
		Rate:            l.Rate,
	}
}

// LoadStatusChangedEvent is raised on every status transition
type LoadStatusChangedEvent struct {
	shared.BaseDomainEvent
	LoadNumber string     `json:"load_number"`
	FromStatus LoadStatus `json:"from_status"`
	ToStatus   LoadStatus `json:"to_status"`
	DriverID   *uuid.UUID `json:"driver_id,omitempty"`
}

// NewLoadStatusChangedEvent creates a new LoadStatusChangedEvent
func NewLoadStatusChangedEvent(l *Load, from LoadStatus) *LoadStatusChangedEvent {
	return &LoadStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoadStatusChanged, AggregateTypeLoad, l.ID, l.TenantID),
		LoadNumber:      l.LoadNumber,
		FromStatus:      from,
		ToStatus:        l.Status,
		DriverID:        shared.CloneID(l.DriverID),
	}
}

// LoadDeliveredEvent is raised when a load enters delivered or completed.
// It drives invoice and settlement generation.
type LoadDeliveredEvent struct {
	shared.BaseDomainEvent
	LoadNumber   string     `json:"load_number"`
	FromStatus   LoadStatus `json:"from_status"`
	Status       LoadStatus `json:"status"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
}

// NewLoadDeliveredEvent creates a new LoadDeliveredEvent
func NewLoadDeliveredEvent(l *Load, from LoadStatus) *LoadDeliveredEvent {
	return &LoadDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoadDelivered, AggregateTypeLoad, l.ID, l.TenantID),
		LoadNumber:      l.LoadNumber,
		FromStatus:      from,
		Status:          l.Status,
		DeliveryDate:    cloneTime(l.DeliveryDate),
	}
}
