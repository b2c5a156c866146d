package dto

import (
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoadFieldsRequest carries the editable load fields. Omitted fields are left
// untouched; a nil UUID or a zero date clears the value.
type LoadFieldsRequest struct {
	Status              *freight.LoadStatus   `json:"status"`
	CustomerName        *string               `json:"customer_name" binding:"omitempty,max=200"`
	BrokerID            *uuid.UUID            `json:"broker_id"`
	BrokerName          *string               `json:"broker_name" binding:"omitempty,max=200"`
	Origin              *valueobject.Location `json:"origin"`
	Destination         *valueobject.Location `json:"destination"`
	PickupDate          *time.Time            `json:"pickup_date"`
	DeliveryDate        *time.Time            `json:"delivery_date"`
	Rate                *decimal.Decimal      `json:"rate"`
	GrandTotal          *decimal.Decimal      `json:"grand_total"`
	Miles               *decimal.Decimal      `json:"miles"`
	DriverID            *uuid.UUID            `json:"driver_id"`
	DispatcherID        *uuid.UUID            `json:"dispatcher_id"`
	TruckID             *uuid.UUID            `json:"truck_id"`
	TrailerID           *uuid.UUID            `json:"trailer_id"`
	FactoringCompanyID  *uuid.UUID            `json:"factoring_company_id"`
	IsFactored          *bool                 `json:"is_factored"`
	FactoredDate        *time.Time            `json:"factored_date"`
	FactoringFeePercent *decimal.Decimal      `json:"factoring_fee_percent" binding:"omitempty,gte=0,lte=100"`
	ClearFactoringFee   bool                  `json:"clear_factoring_fee_percent"`
	Notes               *string               `json:"notes" binding:"omitempty,max=2000"`
}

// ToUpdate converts the request into a domain partial update
func (r LoadFieldsRequest) ToUpdate() freight.LoadUpdate {
	return freight.LoadUpdate{
		Status:                   r.Status,
		CustomerName:             r.CustomerName,
		BrokerID:                 r.BrokerID,
		BrokerName:               r.BrokerName,
		Origin:                   r.Origin,
		Destination:              r.Destination,
		PickupDate:               r.PickupDate,
		DeliveryDate:             r.DeliveryDate,
		Rate:                     r.Rate,
		GrandTotal:               r.GrandTotal,
		Miles:                    r.Miles,
		DriverID:                 r.DriverID,
		DispatcherID:             r.DispatcherID,
		TruckID:                  r.TruckID,
		TrailerID:                r.TrailerID,
		FactoringCompanyID:       r.FactoringCompanyID,
		IsFactored:               r.IsFactored,
		FactoredDate:             r.FactoredDate,
		FactoringFeePercent:      r.FactoringFeePercent,
		ClearFactoringFeePercent: r.ClearFactoringFee,
		Notes:                    r.Notes,
	}
}

// CreateLoadRequest creates a load. An empty load number is generated.
type CreateLoadRequest struct {
	LoadNumber string `json:"load_number" binding:"omitempty,max=50"`
	LoadFieldsRequest
}

// UpdateLoadRequest edits a load. Reason is required to change a locked load.
type UpdateLoadRequest struct {
	Reason string `json:"reason" binding:"max=500"`
	LoadFieldsRequest
}

// LoadListQuery filters the load list
type LoadListQuery struct {
	Status   string `form:"status"`
	DriverID string `form:"driver_id" binding:"omitempty,uuid"`
	Customer string `form:"customer"`
	Locked   *bool  `form:"locked"`
}

// LoadResponse is the API representation of a load
type LoadResponse struct {
	ID                  uuid.UUID            `json:"id"`
	LoadNumber          string               `json:"load_number"`
	Status              freight.LoadStatus   `json:"status"`
	CustomerName        string               `json:"customer_name"`
	BrokerID            *uuid.UUID           `json:"broker_id,omitempty"`
	BrokerName          string               `json:"broker_name,omitempty"`
	Origin              valueobject.Location `json:"origin"`
	Destination         valueobject.Location `json:"destination"`
	PickupDate          *time.Time           `json:"pickup_date,omitempty"`
	DeliveryDate        *time.Time           `json:"delivery_date,omitempty"`
	Rate                decimal.Decimal      `json:"rate"`
	GrandTotal          decimal.Decimal      `json:"grand_total"`
	Miles               decimal.Decimal      `json:"miles"`
	DriverID            *uuid.UUID           `json:"driver_id,omitempty"`
	DispatcherID        *uuid.UUID           `json:"dispatcher_id,omitempty"`
	TruckID             *uuid.UUID           `json:"truck_id,omitempty"`
	TrailerID           *uuid.UUID           `json:"trailer_id,omitempty"`
	FactoringCompanyID  *uuid.UUID           `json:"factoring_company_id,omitempty"`
	IsFactored          bool                 `json:"is_factored"`
	FactoredDate        *time.Time           `json:"factored_date,omitempty"`
	FactoringFeePercent *decimal.Decimal     `json:"factoring_fee_percent,omitempty"`
	InvoiceID           *uuid.UUID           `json:"invoice_id,omitempty"`
	SettlementID        *uuid.UUID           `json:"settlement_id,omitempty"`
	IsLocked            bool                 `json:"is_locked"`
	LockedAt            *time.Time           `json:"locked_at,omitempty"`
	Adjustments         int                  `json:"adjustment_count"`
	Notes               string               `json:"notes,omitempty"`
	Version             int                  `json:"version"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// NewLoadResponse converts a load
func NewLoadResponse(l *freight.Load) LoadResponse {
	return LoadResponse{
		ID:                  l.ID,
		LoadNumber:          l.LoadNumber,
		Status:              l.Status,
		CustomerName:        l.CustomerName,
		BrokerID:            l.BrokerID,
		BrokerName:          l.BrokerName,
		Origin:              l.Origin,
		Destination:         l.Destination,
		PickupDate:          l.PickupDate,
		DeliveryDate:        l.DeliveryDate,
		Rate:                l.Rate,
		GrandTotal:          l.GrandTotal,
		Miles:               l.Miles,
		DriverID:            l.DriverID,
		DispatcherID:        l.DispatcherID,
		TruckID:             l.TruckID,
		TrailerID:           l.TrailerID,
		FactoringCompanyID:  l.FactoringCompanyID,
		IsFactored:          l.IsFactored,
		FactoredDate:        l.FactoredDate,
		FactoringFeePercent: l.FactoringFeePercent,
		InvoiceID:           l.InvoiceID,
		SettlementID:        l.SettlementID,
		IsLocked:            l.IsLocked,
		LockedAt:            l.LockedAt,
		Adjustments:         len(l.Adjustments),
		Notes:               l.Notes,
		Version:             l.Version,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
}

// NewLoadResponses converts a list of loads
func NewLoadResponses(loads []*freight.Load) []LoadResponse {
	return mapAll(loads, NewLoadResponse)
}

func mapAll[T any, R any](items []*T, fn func(*T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
