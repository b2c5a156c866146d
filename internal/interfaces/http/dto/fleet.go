package dto

import (
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/application/tms"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/fleet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateEmployeeRequest is bound straight into the session input
type CreateEmployeeRequest = tms.CreateEmployeeInput

// UpdateEmployeeRequest edits a driver or dispatcher
type UpdateEmployeeRequest struct {
	FirstName     *string               `json:"first_name" binding:"omitempty,max=100"`
	LastName      *string               `json:"last_name" binding:"omitempty,max=100"`
	Email         *string               `json:"email" binding:"omitempty,max=200"`
	Phone         *string               `json:"phone" binding:"omitempty,max=30"`
	DriverType    *fleet.DriverType     `json:"driver_type"`
	Split         *decimal.Decimal      `json:"split" binding:"omitempty,gte=0,lte=100"`
	PerMileRate   *decimal.Decimal      `json:"per_mile_rate"`
	Profile       *fleet.PaymentProfile `json:"payment_profile"`
	ClearProfile  bool                  `json:"clear_payment_profile"`
	LicenseNumber *string               `json:"license_number" binding:"omitempty,max=50"`
	Status        *fleet.EmployeeStatus `json:"status"`
}

// ToUpdate converts the request into a domain partial update
func (r UpdateEmployeeRequest) ToUpdate() fleet.EmployeeUpdate {
	return fleet.EmployeeUpdate{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Phone:         r.Phone,
		DriverType:    r.DriverType,
		Split:         r.Split,
		PerMileRate:   r.PerMileRate,
		Profile:       r.Profile,
		ClearProfile:  r.ClearProfile,
		LicenseNumber: r.LicenseNumber,
		Status:        r.Status,
	}
}

// EmployeeResponse is the API representation of an employee
type EmployeeResponse struct {
	ID            uuid.UUID             `json:"id"`
	FirstName     string                `json:"first_name"`
	LastName      string                `json:"last_name"`
	Email         string                `json:"email,omitempty"`
	Phone         string                `json:"phone,omitempty"`
	Type          fleet.EmployeeType    `json:"type"`
	DriverType    fleet.DriverType      `json:"driver_type,omitempty"`
	Split         decimal.Decimal       `json:"split"`
	PerMileRate   decimal.Decimal       `json:"per_mile_rate"`
	Profile       *fleet.PaymentProfile `json:"payment_profile,omitempty"`
	LicenseNumber string                `json:"license_number,omitempty"`
	Status        fleet.EmployeeStatus  `json:"status"`
	Version       int                   `json:"version"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// NewEmployeeResponse converts an employee
func NewEmployeeResponse(e *fleet.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:            e.ID,
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		Email:         e.Email,
		Phone:         e.Phone,
		Type:          e.Type,
		DriverType:    e.DriverType,
		Split:         e.Split,
		PerMileRate:   e.PerMileRate,
		Profile:       e.Profile,
		LicenseNumber: e.LicenseNumber,
		Status:        e.Status,
		Version:       e.Version,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// NewEmployeeResponses converts a list of employees
func NewEmployeeResponses(items []*fleet.Employee) []EmployeeResponse {
	return mapAll(items, NewEmployeeResponse)
}

// CreateTruckRequest is bound straight into the session input
type CreateTruckRequest = tms.CreateTruckInput

// UpdateTruckRequest edits a truck
type UpdateTruckRequest struct {
	UnitNumber *string                `json:"unit_number" binding:"omitempty,max=20"`
	VIN        *string                `json:"vin" binding:"omitempty,len=17"`
	Make       *string                `json:"make" binding:"omitempty,max=50"`
	Model      *string                `json:"model" binding:"omitempty,max=50"`
	Year       *int                   `json:"year" binding:"omitempty,gte=1950,lte=2100"`
	Status     *fleet.EquipmentStatus `json:"status"`
}

// ToUpdate converts the request into a domain partial update
func (r UpdateTruckRequest) ToUpdate() fleet.TruckUpdate {
	return fleet.TruckUpdate{
		UnitNumber: r.UnitNumber,
		VIN:        r.VIN,
		Make:       r.Make,
		Model:      r.Model,
		Year:       r.Year,
		Status:     r.Status,
	}
}

// TruckResponse is the API representation of a truck
type TruckResponse struct {
	ID         uuid.UUID             `json:"id"`
	UnitNumber string                `json:"unit_number"`
	VIN        string                `json:"vin,omitempty"`
	Make       string                `json:"make,omitempty"`
	Model      string                `json:"model,omitempty"`
	Year       int                   `json:"year,omitempty"`
	Status     fleet.EquipmentStatus `json:"status"`
	Version    int                   `json:"version"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// NewTruckResponse converts a truck
func NewTruckResponse(t *fleet.Truck) TruckResponse {
	return TruckResponse{
		ID:         t.ID,
		UnitNumber: t.UnitNumber,
		VIN:        t.VIN,
		Make:       t.Make,
		Model:      t.Model,
		Year:       t.Year,
		Status:     t.Status,
		Version:    t.Version,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// NewTruckResponses converts a list of trucks
func NewTruckResponses(items []*fleet.Truck) []TruckResponse {
	return mapAll(items, NewTruckResponse)
}

// CreateTrailerRequest is bound straight into the session input
type CreateTrailerRequest = tms.CreateTrailerInput

// UpdateTrailerRequest edits a trailer
type UpdateTrailerRequest struct {
	UnitNumber *string                `json:"unit_number" binding:"omitempty,max=20"`
	Type       *fleet.TrailerType     `json:"type"`
	Status     *fleet.EquipmentStatus `json:"status"`
}

// ToUpdate converts the request into a domain partial update
func (r UpdateTrailerRequest) ToUpdate() fleet.TrailerUpdate {
	return fleet.TrailerUpdate{
		UnitNumber: r.UnitNumber,
		Type:       r.Type,
		Status:     r.Status,
	}
}

// TrailerResponse is the API representation of a trailer
type TrailerResponse struct {
	ID         uuid.UUID             `json:"id"`
	UnitNumber string                `json:"unit_number"`
	Type       fleet.TrailerType     `json:"type"`
	Status     fleet.EquipmentStatus `json:"status"`
	Version    int                   `json:"version"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// NewTrailerResponse converts a trailer
func NewTrailerResponse(t *fleet.Trailer) TrailerResponse {
	return TrailerResponse{
		ID:         t.ID,
		UnitNumber: t.UnitNumber,
		Type:       t.Type,
		Status:     t.Status,
		Version:    t.Version,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// NewTrailerResponses converts a list of trailers
func NewTrailerResponses(items []*fleet.Trailer) []TrailerResponse {
	return mapAll(items, NewTrailerResponse)
}
