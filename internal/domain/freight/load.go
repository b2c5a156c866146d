package freight

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeLoad is the aggregate type name used in events and audit entries
const AggregateTypeLoad = "Load"

// Load is a single freight shipment and the money attached to it
type Load struct {
	shared.TenantAggregateRoot
	LoadNumber          string
	Status              LoadStatus
	CustomerName        string
	BrokerID            *uuid.UUID
	BrokerName          string
	Origin              valueobject.Location
	Destination         valueobject.Location
	PickupDate          *time.Time
	DeliveryDate        *time.Time
	Rate                decimal.Decimal
	GrandTotal          decimal.Decimal
	Miles               decimal.Decimal
	DriverID            *uuid.UUID
	DispatcherID        *uuid.UUID
	TruckID             *uuid.UUID
	TrailerID           *uuid.UUID
	FactoringCompanyID  *uuid.UUID
	IsFactored          bool
	FactoredDate        *time.Time
	FactoringFeePercent *decimal.Decimal // per-load override of the factoring company fee
	InvoiceID           *uuid.UUID
	SettlementID        *uuid.UUID
	IsLocked            bool
	LockedAt            *time.Time
	Adjustments         AdjustmentLog
	Notes               string
}

// FieldChange is one field's before and after value, rendered for humans
type FieldChange struct {
	Field    LoadField `json:"field"`
	OldValue string    `json:"old_value"`
	NewValue string    `json:"new_value"`
}

// NewLoad creates a load in the available status and applies the initial
// field values. Creating a load directly in delivered or completed locks it.
func NewLoad(tenantID uuid.UUID, loadNumber string, initial LoadUpdate, now time.Time) (*Load, error) {
	loadNumber = strings.TrimSpace(loadNumber)
	if loadNumber == "" {
		return nil, shared.NewValidationError("Load number is required")
	}

	l := &Load{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		LoadNumber:          loadNumber,
		Status:              LoadStatusAvailable,
		Adjustments:         AdjustmentLog{},
	}
	if _, err := l.apply(initial, now); err != nil {
		return nil, err
	}

	l.AddDomainEvent(NewLoadCreatedEvent(l))
	if l.Status.Locks() {
		l.AddDomainEvent(NewLoadDeliveredEvent(l, LoadStatusAvailable))
	}
	return l, nil
}

// Apply writes the update and returns the fields whose value actually changed.
// A status change into delivered or completed locks the load; nothing unlocks it.
func (l *Load) Apply(u LoadUpdate, now time.Time) ([]FieldChange, error) {
	from := l.Status
	changes, err := l.apply(u, now)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, nil
	}

	l.IncrementVersion()
	if l.Status != from {
		l.AddDomainEvent(NewLoadStatusChangedEvent(l, from))
		if l.Status.Locks() {
			l.AddDomainEvent(NewLoadDeliveredEvent(l, from))
		}
	}
	return changes, nil
}

func (l *Load) apply(u LoadUpdate, now time.Time) ([]FieldChange, error) {
	if u.Status != nil && !u.Status.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Invalid load status: %s", *u.Status))
	}
	if u.Miles != nil && u.Miles.IsNegative() {
		return nil, shared.NewValidationError("Miles cannot be negative")
	}
	if u.FactoringFeePercent != nil &&
		(u.FactoringFeePercent.IsNegative() || u.FactoringFeePercent.GreaterThan(decimal.NewFromInt(100))) {
		return nil, shared.NewValidationError("Factoring fee must be between 0 and 100 percent")
	}

	var changes []FieldChange
	record := func(f LoadField, oldV, newV string) {
		if oldV != newV {
			changes = append(changes, FieldChange{Field: f, OldValue: oldV, NewValue: newV})
		}
	}

	if u.Status != nil {
		record(FieldStatus, string(l.Status), string(*u.Status))
		l.Status = *u.Status
	}
	if u.CustomerName != nil {
		v := strings.TrimSpace(*u.CustomerName)
		record(FieldCustomerName, l.CustomerName, v)
		l.CustomerName = v
	}
	setRef(&changes, FieldBrokerID, &l.BrokerID, u.BrokerID)
	if u.BrokerName != nil {
		v := strings.TrimSpace(*u.BrokerName)
		record(FieldBrokerName, l.BrokerName, v)
		l.BrokerName = v
	}
	if u.Origin != nil {
		record(FieldOrigin, l.Origin.String(), u.Origin.String())
		l.Origin = *u.Origin
	}
	if u.Destination != nil {
		record(FieldDestination, l.Destination.String(), u.Destination.String())
		l.Destination = *u.Destination
	}
	setDate(&changes, FieldPickupDate, &l.PickupDate, u.PickupDate)
	setDate(&changes, FieldDeliveryDate, &l.DeliveryDate, u.DeliveryDate)
	setAmount(&changes, FieldRate, &l.Rate, u.Rate)
	setAmount(&changes, FieldGrandTotal, &l.GrandTotal, u.GrandTotal)
	setAmount(&changes, FieldMiles, &l.Miles, u.Miles)
	setRef(&changes, FieldDriverID, &l.DriverID, u.DriverID)
	setRef(&changes, FieldDispatcherID, &l.DispatcherID, u.DispatcherID)
	setRef(&changes, FieldTruckID, &l.TruckID, u.TruckID)
	setRef(&changes, FieldTrailerID, &l.TrailerID, u.TrailerID)
	setRef(&changes, FieldFactoringCompanyID, &l.FactoringCompanyID, u.FactoringCompanyID)
	if u.IsFactored != nil {
		record(FieldIsFactored, strconv.FormatBool(l.IsFactored), strconv.FormatBool(*u.IsFactored))
		l.IsFactored = *u.IsFactored
	}
	setDate(&changes, FieldFactoredDate, &l.FactoredDate, u.FactoredDate)
	if u.ClearFactoringFeePercent {
		record(FieldFactoringFeePercent, formatOptAmount(l.FactoringFeePercent), "")
		l.FactoringFeePercent = nil
	} else if u.FactoringFeePercent != nil {
		v := *u.FactoringFeePercent
		record(FieldFactoringFeePercent, formatOptAmount(l.FactoringFeePercent), v.String())
		l.FactoringFeePercent = &v
	}
	if u.Notes != nil {
		record(FieldNotes, l.Notes, *u.Notes)
		l.Notes = *u.Notes
	}

	if l.Status.Locks() && !l.IsLocked {
		l.IsLocked = true
		t := now
		l.LockedAt = &t
	}
	return changes, nil
}

func setRef(changes *[]FieldChange, f LoadField, dst **uuid.UUID, v *uuid.UUID) {
	if v == nil {
		return
	}
	var next *uuid.UUID
	if *v != uuid.Nil {
		id := *v
		next = &id
	}
	if shared.SameID(*dst, next) {
		return
	}
	*changes = append(*changes, FieldChange{Field: f, OldValue: formatRef(*dst), NewValue: formatRef(next)})
	*dst = next
}

func setDate(changes *[]FieldChange, f LoadField, dst **time.Time, v *time.Time) {
	if v == nil {
		return
	}
	var next *time.Time
	if !v.IsZero() {
		t := *v
		next = &t
	}
	oldV, newV := formatDate(*dst), formatDate(next)
	if oldV == newV {
		return
	}
	*changes = append(*changes, FieldChange{Field: f, OldValue: oldV, NewValue: newV})
	*dst = next
}

func setAmount(changes *[]FieldChange, f LoadField, dst *decimal.Decimal, v *decimal.Decimal) {
	if v == nil || dst.Equal(*v) {
		return
	}
	*changes = append(*changes, FieldChange{Field: f, OldValue: dst.String(), NewValue: v.String()})
	*dst = *v
}

func formatRef(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatOptAmount(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// NeedsReason reports whether applying the changes to a load in its current
// state requires a justification: the load is already locked and at least one
// changed field is not exempt. Call it before Apply.
func (l *Load) NeedsReason(changes []FieldChange) bool {
	if !l.IsLocked {
		return false
	}
	for _, c := range changes {
		if c.Field.RequiresReason() {
			return true
		}
	}
	return false
}

// RecordAdjustments appends one adjustment entry per change
func (l *Load) RecordAdjustments(changes []FieldChange, reason string, actor shared.Actor, at time.Time) []AdjustmentEntry {
	reason = strings.TrimSpace(reason)
	entries := make([]AdjustmentEntry, 0, len(changes))
	for _, c := range changes {
		entries = append(entries, AdjustmentEntry{
			ID:        uuid.New(),
			Field:     c.Field,
			OldValue:  c.OldValue,
			NewValue:  c.NewValue,
			Reason:    reason,
			ActorID:   actor.UserID,
			ActorRole: actor.Role,
			At:        at,
		})
	}
	l.Adjustments = append(l.Adjustments, entries...)
	return entries
}

// Amount is the billable amount: the grand total when present, otherwise the rate
func (l *Load) Amount() decimal.Decimal {
	if l.GrandTotal.IsPositive() {
		return l.GrandTotal
	}
	return l.Rate
}

// Lane renders "Origin -> Destination"
func (l *Load) Lane() string {
	return l.Origin.String() + " -> " + l.Destination.String()
}

// BillTo is the name invoices are addressed to
func (l *Load) BillTo() string {
	if l.CustomerName != "" {
		return l.CustomerName
	}
	return l.BrokerName
}

// LinkInvoice sets the invoice back-reference
func (l *Load) LinkInvoice(invoiceID uuid.UUID) {
	l.InvoiceID = &invoiceID
	l.IncrementVersion()
}

// LinkSettlement sets the settlement back-reference
func (l *Load) LinkSettlement(settlementID uuid.UUID) {
	l.SettlementID = &settlementID
	l.IncrementVersion()
}

// ClearReferencesTo empties every reference to id and returns the cleared fields.
// Used when the referenced entity is deleted.
func (l *Load) ClearReferencesTo(id uuid.UUID) []string {
	var cleared []string
	drop := func(name string, ref **uuid.UUID) {
		if shared.RefersTo(*ref, id) {
			*ref = nil
			cleared = append(cleared, name)
		}
	}
	drop(string(FieldDriverID), &l.DriverID)
	drop(string(FieldDispatcherID), &l.DispatcherID)
	drop(string(FieldTruckID), &l.TruckID)
	drop(string(FieldTrailerID), &l.TrailerID)
	drop(string(FieldBrokerID), &l.BrokerID)
	drop(string(FieldFactoringCompanyID), &l.FactoringCompanyID)
	drop("invoice_id", &l.InvoiceID)
	drop("settlement_id", &l.SettlementID)
	if len(cleared) > 0 {
		l.IncrementVersion()
	}
	return cleared
}

// Clone returns a deep copy without pending events
func (l *Load) Clone() *Load {
	cp := *l
	cp.ClearDomainEvents()
	cp.CreatedBy = shared.CloneID(l.CreatedBy)
	cp.BrokerID = shared.CloneID(l.BrokerID)
	cp.DriverID = shared.CloneID(l.DriverID)
	cp.DispatcherID = shared.CloneID(l.DispatcherID)
	cp.TruckID = shared.CloneID(l.TruckID)
	cp.TrailerID = shared.CloneID(l.TrailerID)
	cp.FactoringCompanyID = shared.CloneID(l.FactoringCompanyID)
	cp.InvoiceID = shared.CloneID(l.InvoiceID)
	cp.SettlementID = shared.CloneID(l.SettlementID)
	cp.PickupDate = cloneTime(l.PickupDate)
	cp.DeliveryDate = cloneTime(l.DeliveryDate)
	cp.FactoredDate = cloneTime(l.FactoredDate)
	cp.LockedAt = cloneTime(l.LockedAt)
	if l.FactoringFeePercent != nil {
		v := *l.FactoringFeePercent
		cp.FactoringFeePercent = &v
	}
	cp.Adjustments = append(AdjustmentLog(nil), l.Adjustments...)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
