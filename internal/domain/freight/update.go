package freight

import (
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoadField names a user-editable field of a load
type LoadField string

const (
	FieldStatus              LoadField = "status"
	FieldCustomerName        LoadField = "customer_name"
	FieldBrokerID            LoadField = "broker_id"
	FieldBrokerName          LoadField = "broker_name"
	FieldOrigin              LoadField = "origin"
	FieldDestination         LoadField = "destination"
	FieldPickupDate          LoadField = "pickup_date"
	FieldDeliveryDate        LoadField = "delivery_date"
	FieldRate                LoadField = "rate"
	FieldGrandTotal          LoadField = "grand_total"
	FieldMiles               LoadField = "miles"
	FieldDriverID            LoadField = "driver_id"
	FieldDispatcherID        LoadField = "dispatcher_id"
	FieldTruckID             LoadField = "truck_id"
	FieldTrailerID           LoadField = "trailer_id"
	FieldFactoringCompanyID  LoadField = "factoring_company_id"
	FieldIsFactored          LoadField = "is_factored"
	FieldFactoredDate        LoadField = "factored_date"
	FieldFactoringFeePercent LoadField = "factoring_fee_percent"
	FieldNotes               LoadField = "notes"
)

// RequiresReason reports whether editing this field on a locked load needs a
// justification. Status and notes stay freely editable.
func (f LoadField) RequiresReason() bool {
	return f != FieldStatus && f != FieldNotes
}

// AffectsInvoice reports whether a change must be reflected on the load's invoice
func (f LoadField) AffectsInvoice() bool {
	switch f {
	case FieldRate, FieldGrandTotal, FieldCustomerName, FieldBrokerID, FieldBrokerName,
		FieldFactoringCompanyID, FieldIsFactored, FieldFactoringFeePercent:
		return true
	}
	return false
}

// AffectsDriverPay reports whether a change alters the computed driver pay
func (f LoadField) AffectsDriverPay() bool {
	switch f {
	case FieldRate, FieldMiles, FieldDriverID:
		return true
	}
	return false
}

// LoadUpdate is an explicit partial update. Nil fields are left untouched.
// A reference set to uuid.Nil and a date set to the zero time clear the value.
type LoadUpdate struct {
	Status                   *LoadStatus
	CustomerName             *string
	BrokerID                 *uuid.UUID
	BrokerName               *string
	Origin                   *valueobject.Location
	Destination              *valueobject.Location
	PickupDate               *time.Time
	DeliveryDate             *time.Time
	Rate                     *decimal.Decimal
	GrandTotal               *decimal.Decimal
	Miles                    *decimal.Decimal
	DriverID                 *uuid.UUID
	DispatcherID             *uuid.UUID
	TruckID                  *uuid.UUID
	TrailerID                *uuid.UUID
	FactoringCompanyID       *uuid.UUID
	IsFactored               *bool
	FactoredDate             *time.Time
	FactoringFeePercent      *decimal.Decimal
	ClearFactoringFeePercent bool
	Notes                    *string
}

// Fields lists the fields the update sets
func (u LoadUpdate) Fields() []LoadField {
	var fields []LoadField
	add := func(set bool, f LoadField) {
		if set {
			fields = append(fields, f)
		}
	}
	add(u.Status != nil, FieldStatus)
	add(u.CustomerName != nil, FieldCustomerName)
	add(u.BrokerID != nil, FieldBrokerID)
	add(u.BrokerName != nil, FieldBrokerName)
	add(u.Origin != nil, FieldOrigin)
	add(u.Destination != nil, FieldDestination)
	add(u.PickupDate != nil, FieldPickupDate)
	add(u.DeliveryDate != nil, FieldDeliveryDate)
	add(u.Rate != nil, FieldRate)
	add(u.GrandTotal != nil, FieldGrandTotal)
	add(u.Miles != nil, FieldMiles)
	add(u.DriverID != nil, FieldDriverID)
	add(u.DispatcherID != nil, FieldDispatcherID)
	add(u.TruckID != nil, FieldTruckID)
	add(u.TrailerID != nil, FieldTrailerID)
	add(u.FactoringCompanyID != nil, FieldFactoringCompanyID)
	add(u.IsFactored != nil, FieldIsFactored)
	add(u.FactoredDate != nil, FieldFactoredDate)
	add(u.FactoringFeePercent != nil || u.ClearFactoringFeePercent, FieldFactoringFeePercent)
	add(u.Notes != nil, FieldNotes)
	return fields
}

// IsEmpty reports whether the update sets nothing
func (u LoadUpdate) IsEmpty() bool {
	return len(u.Fields()) == 0
}

// Without returns a copy of the update with the field unset
func (u LoadUpdate) Without(f LoadField) LoadUpdate {
	switch f {
	case FieldStatus:
		u.Status = nil
	case FieldCustomerName:
		u.CustomerName = nil
	case FieldBrokerID:
		u.BrokerID = nil
	case FieldBrokerName:
		u.BrokerName = nil
	case FieldOrigin:
		u.Origin = nil
	case FieldDestination:
		u.Destination = nil
	case FieldPickupDate:
		u.PickupDate = nil
	case FieldDeliveryDate:
		u.DeliveryDate = nil
	case FieldRate:
		u.Rate = nil
	case FieldGrandTotal:
		u.GrandTotal = nil
	case FieldMiles:
		u.Miles = nil
	case FieldDriverID:
		u.DriverID = nil
	case FieldDispatcherID:
		u.DispatcherID = nil
	case FieldTruckID:
		u.TruckID = nil
	case FieldTrailerID:
		u.TrailerID = nil
	case FieldFactoringCompanyID:
		u.FactoringCompanyID = nil
	case FieldIsFactored:
		u.IsFactored = nil
	case FieldFactoredDate:
		u.FactoredDate = nil
	case FieldFactoringFeePercent:
		u.FactoringFeePercent = nil
		u.ClearFactoringFeePercent = false
	case FieldNotes:
		u.Notes = nil
	}
	return u
}

var financialFields = []LoadField{
	FieldRate, FieldGrandTotal, FieldFactoringCompanyID, FieldIsFactored,
	FieldFactoredDate, FieldFactoringFeePercent,
}

var roleFieldPolicy = map[shared.Role]map[LoadField]bool{
	shared.RoleDispatcher: fieldSet(
		FieldStatus, FieldCustomerName, FieldBrokerID, FieldBrokerName, FieldOrigin,
		FieldDestination, FieldPickupDate, FieldDeliveryDate, FieldRate, FieldGrandTotal,
		FieldMiles, FieldDriverID, FieldDispatcherID, FieldTruckID, FieldTrailerID, FieldNotes,
	),
	shared.RoleAccounting: fieldSet(append([]LoadField{
		FieldStatus, FieldCustomerName, FieldBrokerID, FieldBrokerName, FieldNotes,
	}, financialFields...)...),
	shared.RoleDriver: fieldSet(FieldStatus, FieldNotes),
}

func fieldSet(fields ...LoadField) map[LoadField]bool {
	m := make(map[LoadField]bool, len(fields))
	for _, f := range fields {
		m[f] = true
	}
	return m
}

// CanEdit reports whether the role may write the field. Admins may write everything.
func CanEdit(role shared.Role, f LoadField) bool {
	if role == shared.RoleAdmin {
		return true
	}
	return roleFieldPolicy[role][f]
}

// Restrict drops the fields the role may not write and returns them
func (u LoadUpdate) Restrict(role shared.Role) (LoadUpdate, []LoadField) {
	var dropped []LoadField
	for _, f := range u.Fields() {
		if !CanEdit(role, f) {
			u = u.Without(f)
			dropped = append(dropped, f)
		}
	}
	return u, dropped
}
