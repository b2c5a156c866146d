package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeInvoice is the aggregate type name used in events and audit entries
const AggregateTypeInvoice = "Invoice"

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsOpen reports whether payment is still expected
func (s InvoiceStatus) IsOpen() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusOverdue
}

// FormatInvoiceNumber renders INV-{year}-{seq}
func FormatInvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("INV-%d-%04d", year, seq)
}

// Invoice bills one or more loads to a customer or broker
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber      string
	LoadIDs            shared.IDList
	CustomerName       string
	BrokerID           *uuid.UUID
	Amount             decimal.Decimal
	Status             InvoiceStatus
	DueDate            *time.Time
	PaidAt             *time.Time
	IsFactored         bool
	FactoringCompanyID *uuid.UUID
	FactoringFee       decimal.Decimal
	FactoredAmount     decimal.Decimal
	Notes              string
}

// NewInvoice creates an invoice covering loadIDs with the given terms
func NewInvoice(tenantID uuid.UUID, invoiceNumber string, loadIDs []uuid.UUID, customerName string, terms InvoiceTerms) (*Invoice, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return nil, shared.NewValidationError("Invoice number is required")
	}
	if len(loadIDs) == 0 {
		return nil, shared.NewValidationError("Invoice must cover at least one load")
	}
	if !terms.Status.IsValid() {
		return nil, shared.NewValidationError("Invalid invoice status: " + string(terms.Status))
	}
	if terms.Amount.IsNegative() {
		return nil, shared.NewValidationError("Invoice amount cannot be negative")
	}

	ids := make(shared.IDList, 0, len(loadIDs))
	for _, id := range loadIDs {
		ids = ids.With(id)
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		LoadIDs:             ids,
		CustomerName:        strings.TrimSpace(customerName),
		Amount:              terms.Amount,
		Status:              terms.Status,
		DueDate:             terms.DueDate,
		PaidAt:              terms.PaidAt,
		FactoredAmount:      terms.Amount,
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// SetFactoring records that the invoice was sold to a factoring company
func (i *Invoice) SetFactoring(companyID *uuid.UUID, fee, factoredAmount decimal.Decimal) {
	i.IsFactored = true
	i.FactoringCompanyID = shared.CloneID(companyID)
	i.FactoringFee = fee
	i.FactoredAmount = factoredAmount
}

// Covers reports whether the invoice bills the load
func (i *Invoice) Covers(loadID uuid.UUID) bool {
	return i.LoadIDs.Contains(loadID)
}

// InvoiceSync holds the values an invoice is recomputed from. An empty
// CustomerName keeps the current bill-to name.
type InvoiceSync struct {
	Amount             decimal.Decimal
	CustomerName       string
	IsFactored         bool
	FactoringCompanyID *uuid.UUID
	FactoringFee       decimal.Decimal
}

// Resync applies the recomputed amount, factoring fee and bill-to name; it
// reports whether anything changed
func (i *Invoice) Resync(in InvoiceSync) bool {
	fee := decimal.Zero
	var companyID *uuid.UUID
	if in.IsFactored {
		fee = in.FactoringFee
		companyID = shared.CloneID(in.FactoringCompanyID)
	}
	factoredAmount := in.Amount.Sub(fee)

	changed := !i.Amount.Equal(in.Amount) ||
		i.IsFactored != in.IsFactored ||
		!i.FactoringFee.Equal(fee) ||
		!i.FactoredAmount.Equal(factoredAmount) ||
		!shared.SameID(i.FactoringCompanyID, companyID)
	i.Amount = in.Amount
	i.IsFactored = in.IsFactored
	i.FactoringCompanyID = companyID
	i.FactoringFee = fee
	i.FactoredAmount = factoredAmount

	if in.CustomerName != "" && in.CustomerName != i.CustomerName {
		i.CustomerName = in.CustomerName
		changed = true
	}
	if changed {
		i.IncrementVersion()
	}
	return changed
}

// RemoveLoad drops a load from the invoice
func (i *Invoice) RemoveLoad(loadID uuid.UUID) bool {
	if !i.Covers(loadID) {
		return false
	}
	i.LoadIDs = i.LoadIDs.Without(loadID)
	i.IncrementVersion()
	return true
}

// MarkOverdue flags a pending invoice whose due date has passed
func (i *Invoice) MarkOverdue(now time.Time) bool {
	if i.Status != InvoiceStatusPending || i.DueDate == nil || !now.After(*i.DueDate) {
		return false
	}
	i.Status = InvoiceStatusOverdue
	i.IncrementVersion()
	return true
}

// ClearReferencesTo empties every reference to id and returns the cleared fields
func (i *Invoice) ClearReferencesTo(id uuid.UUID) []string {
	var cleared []string
	if shared.RefersTo(i.BrokerID, id) {
		i.BrokerID = nil
		cleared = append(cleared, "broker_id")
	}
	if shared.RefersTo(i.FactoringCompanyID, id) {
		i.FactoringCompanyID = nil
		cleared = append(cleared, "factoring_company_id")
	}
	if i.LoadIDs.Contains(id) {
		i.LoadIDs = i.LoadIDs.Without(id)
		cleared = append(cleared, "load_ids")
	}
	if len(cleared) > 0 {
		i.IncrementVersion()
	}
	return cleared
}

// InvoiceUpdate is a partial update; nil fields are left untouched
type InvoiceUpdate struct {
	Status       *InvoiceStatus
	DueDate      *time.Time
	PaidAt       *time.Time
	CustomerName *string
	Notes        *string
}

// Apply mutates the invoice and returns the names of changed fields.
// Marking an invoice paid without a paid date stamps it with now.
func (i *Invoice) Apply(u InvoiceUpdate, now time.Time) ([]string, error) {
	var changed []string
	if u.Status != nil && *u.Status != i.Status {
		if !u.Status.IsValid() {
			return nil, shared.NewValidationError("Invalid invoice status: " + string(*u.Status))
		}
		i.Status = *u.Status
		changed = append(changed, "status")
		if i.Status == InvoiceStatusPaid && i.PaidAt == nil && u.PaidAt == nil {
			t := now
			i.PaidAt = &t
			changed = append(changed, "paid_at")
		}
	}
	if u.DueDate != nil {
		t := *u.DueDate
		i.DueDate = &t
		changed = append(changed, "due_date")
	}
	if u.PaidAt != nil {
		t := *u.PaidAt
		i.PaidAt = &t
		changed = append(changed, "paid_at")
	}
	if u.CustomerName != nil && *u.CustomerName != i.CustomerName {
		i.CustomerName = *u.CustomerName
		changed = append(changed, "customer_name")
	}
	if u.Notes != nil && *u.Notes != i.Notes {
		i.Notes = *u.Notes
		changed = append(changed, "notes")
	}
	if len(changed) > 0 {
		i.IncrementVersion()
	}
	return changed, nil
}

// Clone returns a deep copy without pending events
func (i *Invoice) Clone() *Invoice {
	cp := *i
	cp.ClearDomainEvents()
	cp.CreatedBy = shared.CloneID(i.CreatedBy)
	cp.LoadIDs = i.LoadIDs.Clone()
	cp.BrokerID = shared.CloneID(i.BrokerID)
	cp.FactoringCompanyID = shared.CloneID(i.FactoringCompanyID)
	if i.DueDate != nil {
		t := *i.DueDate
		cp.DueDate = &t
	}
	if i.PaidAt != nil {
		t := *i.PaidAt
		cp.PaidAt = &t
	}
	return &cp
}
