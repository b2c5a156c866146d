package finance

import (
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeInvoiceCreated    = "InvoiceCreated"
	EventTypeSettlementCreated = "SettlementCreated"
)

// InvoiceCreatedEvent is raised when an invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	CustomerName  string          `json:"customer_name"`
	Amount        decimal.Decimal `json:"amount"`
	Status        InvoiceStatus   `json:"status"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	LoadIDs       []uuid.UUID     `json:"load_ids"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	var due *time.Time
	if inv.DueDate != nil {
		t := *inv.DueDate
		due = &t
	}
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerName:    inv.CustomerName,
		Amount:          inv.Amount,
		Status:          inv.Status,
		DueDate:         due,
		LoadIDs:         inv.LoadIDs.Clone(),
	}
}

// SettlementCreatedEvent is raised when a settlement is created
type SettlementCreatedEvent struct {
	shared.BaseDomainEvent
	SettlementNumber string          `json:"settlement_number"`
	DriverID         uuid.UUID       `json:"driver_id"`
	GrossPay         decimal.Decimal `json:"gross_pay"`
}

// NewSettlementCreatedEvent creates a new SettlementCreatedEvent
func NewSettlementCreatedEvent(s *Settlement) *SettlementCreatedEvent {
	var driverID uuid.UUID
	if s.DriverID != nil {
		driverID = *s.DriverID
	}
	return &SettlementCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeSettlementCreated, AggregateTypeSettlement, s.ID, s.TenantID),
		SettlementNumber: s.SettlementNumber,
		DriverID:         driverID,
		GrossPay:         s.GrossPay,
	}
}
