package fleet

import (
	"strings"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
)

// EquipmentStatus is shared by trucks and trailers
type EquipmentStatus string

const (
	EquipmentStatusActive      EquipmentStatus = "active"
	EquipmentStatusMaintenance EquipmentStatus = "maintenance"
	EquipmentStatusInactive    EquipmentStatus = "inactive"
)

// IsValid checks if the status is known
func (s EquipmentStatus) IsValid() bool {
	switch s {
	case EquipmentStatusActive, EquipmentStatusMaintenance, EquipmentStatusInactive:
		return true
	}
	return false
}

// TrailerType is the body type of a trailer
type TrailerType string

const (
	TrailerTypeDryVan  TrailerType = "dry_van"
	TrailerTypeReefer  TrailerType = "reefer"
	TrailerTypeFlatbed TrailerType = "flatbed"
)

// IsValid checks if the trailer type is known
func (t TrailerType) IsValid() bool {
	switch t {
	case TrailerTypeDryVan, TrailerTypeReefer, TrailerTypeFlatbed:
		return true
	}
	return false
}

// Truck is a power unit
type Truck struct {
	shared.TenantAggregateRoot
	UnitNumber string
	VIN        string
	Make       string
	Model      string
	Year       int
	Status     EquipmentStatus
}

// NewTruck creates a new truck
func NewTruck(tenantID uuid.UUID, unitNumber string) (*Truck, error) {
	unitNumber = strings.TrimSpace(unitNumber)
	if unitNumber == "" {
		return nil, shared.NewValidationError("Truck unit number is required")
	}
	return &Truck{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UnitNumber:          unitNumber,
		Status:              EquipmentStatusActive,
	}, nil
}

// DisplayName is used in user-facing messages
func (t *Truck) DisplayName() string {
	return "#" + t.UnitNumber
}

// Clone returns a deep copy
func (t *Truck) Clone() *Truck {
	cp := *t
	cp.ClearDomainEvents()
	cp.CreatedBy = shared.CloneID(t.CreatedBy)
	return &cp
}

// TruckUpdate is a partial update; nil fields are left untouched
type TruckUpdate struct {
	UnitNumber *string
	VIN        *string
	Make       *string
	Model      *string
	Year       *int
	Status     *EquipmentStatus
}

// Apply mutates the truck and returns the names of changed fields
func (t *Truck) Apply(u TruckUpdate) ([]string, error) {
	var changed []string
	if u.UnitNumber != nil && strings.TrimSpace(*u.UnitNumber) != t.UnitNumber {
		if strings.TrimSpace(*u.UnitNumber) == "" {
			return nil, shared.NewValidationError("Truck unit number is required")
		}
		t.UnitNumber = strings.TrimSpace(*u.UnitNumber)
		changed = append(changed, "unit_number")
	}
	if u.VIN != nil && *u.VIN != t.VIN {
		t.VIN = *u.VIN
		changed = append(changed, "vin")
	}
	if u.Make != nil && *u.Make != t.Make {
		t.Make = *u.Make
		changed = append(changed, "make")
	}
	if u.Model != nil && *u.Model != t.Model {
		t.Model = *u.Model
		changed = append(changed, "model")
	}
	if u.Year != nil && *u.Year != t.Year {
		t.Year = *u.Year
		changed = append(changed, "year")
	}
	if u.Status != nil && *u.Status != t.Status {
		if !u.Status.IsValid() {
			return nil, shared.NewValidationError("Invalid equipment status: " + string(*u.Status))
		}
		t.Status = *u.Status
		changed = append(changed, "status")
	}
	if len(changed) > 0 {
		t.IncrementVersion()
	}
	return changed, nil
}

// Trailer is a towed unit
type Trailer struct {
	shared.TenantAggregateRoot
	UnitNumber string
	Type       TrailerType
	Status     EquipmentStatus
}

// NewTrailer creates a new trailer
func NewTrailer(tenantID uuid.UUID, unitNumber string, trailerType TrailerType) (*Trailer, error) {
	unitNumber = strings.TrimSpace(unitNumber)
	if unitNumber == "" {
		return nil, shared.NewValidationError("Trailer unit number is required")
	}
	if trailerType == "" {
		trailerType = TrailerTypeDryVan
	}
	if !trailerType.IsValid() {
		return nil, shared.NewValidationError("Invalid trailer type: " + string(trailerType))
	}
	return &Trailer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UnitNumber:          unitNumber,
		Type:                trailerType,
		Status:              EquipmentStatusActive,
	}, nil
}

// DisplayName is used in user-facing messages
func (t *Trailer) DisplayName() string {
	return "#" + t.UnitNumber
}

// Clone returns a deep copy
func (t *Trailer) Clone() *Trailer {
	cp := *t
	cp.ClearDomainEvents()
	cp.CreatedBy = shared.CloneID(t.CreatedBy)
	return &cp
}

// TrailerUpdate is a partial update; nil fields are left untouched
type TrailerUpdate struct {
	UnitNumber *string
	Type       *TrailerType
	Status     *EquipmentStatus
}

// Apply mutates the trailer and returns the names of changed fields
func (t *Trailer) Apply(u TrailerUpdate) ([]string, error) {
	var changed []string
	if u.UnitNumber != nil && strings.TrimSpace(*u.UnitNumber) != t.UnitNumber {
		if strings.TrimSpace(*u.UnitNumber) == "" {
			return nil, shared.NewValidationError("Trailer unit number is required")
		}
		t.UnitNumber = strings.TrimSpace(*u.UnitNumber)
		changed = append(changed, "unit_number")
	}
	if u.Type != nil && *u.Type != t.Type {
		if !u.Type.IsValid() {
			return nil, shared.NewValidationError("Invalid trailer type: " + string(*u.Type))
		}
		t.Type = *u.Type
		changed = append(changed, "type")
	}
	if u.Status != nil && *u.Status != t.Status {
		if !u.Status.IsValid() {
			return nil, shared.NewValidationError("Invalid equipment status: " + string(*u.Status))
		}
		t.Status = *u.Status
		changed = append(changed, "status")
	}
	if len(changed) > 0 {
		t.IncrementVersion()
	}
	return changed, nil
}
