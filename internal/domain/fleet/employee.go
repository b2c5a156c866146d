package fleet

import (
	"strings"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmployeeType distinguishes drivers from office staff
type EmployeeType string

const (
	EmployeeTypeDriver     EmployeeType = "driver"
	EmployeeTypeDispatcher EmployeeType = "dispatcher"
)

// IsValid checks if the employee type is known
func (t EmployeeType) IsValid() bool {
	return t == EmployeeTypeDriver || t == EmployeeTypeDispatcher
}

// DriverType is the employment arrangement of a driver
type DriverType string

const (
	DriverTypeCompany       DriverType = "company"
	DriverTypeOwnerOperator DriverType = "owner_operator"
)

// IsValid checks if the driver type is known
func (t DriverType) IsValid() bool {
	return t == DriverTypeCompany || t == DriverTypeOwnerOperator
}

// EmployeeStatus is the employment status
type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "active"
	EmployeeStatusInactive EmployeeStatus = "inactive"
)

// IsValid checks if the status is known
func (s EmployeeStatus) IsValid() bool {
	return s == EmployeeStatusActive || s == EmployeeStatusInactive
}

// Employee is a driver or dispatcher of a carrier
type Employee struct {
	shared.TenantAggregateRoot
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Type          EmployeeType
	DriverType    DriverType
	Split         decimal.Decimal // owner-operator share of the rate, 0-100
	PerMileRate   decimal.Decimal
	Profile       *PaymentProfile // explicit pay arrangement; derived from DriverType when nil
	LicenseNumber string
	Status        EmployeeStatus
}

// NewEmployee creates a new employee
func NewEmployee(tenantID uuid.UUID, firstName, lastName string, empType EmployeeType) (*Employee, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" && lastName == "" {
		return nil, shared.NewValidationError("Employee name is required")
	}
	if !empType.IsValid() {
		return nil, shared.NewValidationError("Invalid employee type: " + string(empType))
	}

	e := &Employee{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		FirstName:           firstName,
		LastName:            lastName,
		Type:                empType,
		Status:              EmployeeStatusActive,
	}
	if empType == EmployeeTypeDriver {
		e.DriverType = DriverTypeCompany
	}
	return e, nil
}

// SetPay configures the driver's employment arrangement
func (e *Employee) SetPay(driverType DriverType, split, perMileRate decimal.Decimal) error {
	if !driverType.IsValid() {
		return shared.NewValidationError("Invalid driver type: " + string(driverType))
	}
	if split.IsNegative() || split.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("Split must be between 0 and 100")
	}
	if perMileRate.IsNegative() {
		return shared.NewValidationError("Per-mile rate cannot be negative")
	}
	e.DriverType = driverType
	e.Split = split
	e.PerMileRate = perMileRate
	return nil
}

// SetProfile overrides the derived pay arrangement; nil clears the override
func (e *Employee) SetProfile(p *PaymentProfile) error {
	if p != nil {
		if err := p.Validate(); err != nil {
			return shared.NewValidationError(err.Error())
		}
		cp := *p
		p = &cp
	}
	e.Profile = p
	return nil
}

// FullName returns "First Last"
func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// IsDriver reports whether the employee drives
func (e *Employee) IsDriver() bool {
	return e.Type == EmployeeTypeDriver
}

// IsOwnerOperator reports whether the employee is an owner-operator driver
func (e *Employee) IsOwnerOperator() bool {
	return e.IsDriver() && e.DriverType == DriverTypeOwnerOperator
}

// PaymentProfile returns the effective pay arrangement: the explicit profile
// when set, otherwise a percentage of the split for owner-operators and a
// per-mile rate for company drivers.
func (e *Employee) PaymentProfile() PaymentProfile {
	if e.Profile != nil {
		return *e.Profile
	}
	if e.IsOwnerOperator() {
		return PercentageProfile(e.Split)
	}
	return PerMileProfile(e.PerMileRate)
}

// Clone returns a deep copy
func (e *Employee) Clone() *Employee {
	cp := *e
	cp.ClearDomainEvents()
	cp.CreatedBy = shared.CloneID(e.CreatedBy)
	if e.Profile != nil {
		p := *e.Profile
		cp.Profile = &p
	}
	return &cp
}

// EmployeeUpdate is a partial update; nil fields are left untouched
type EmployeeUpdate struct {
	FirstName     *string
	LastName      *string
	Email         *string
	Phone         *string
	DriverType    *DriverType
	Split         *decimal.Decimal
	PerMileRate   *decimal.Decimal
	Profile       *PaymentProfile
	ClearProfile  bool
	LicenseNumber *string
	Status        *EmployeeStatus
}

// Apply mutates the employee and returns the names of changed fields
func (e *Employee) Apply(u EmployeeUpdate) ([]string, error) {
	var changed []string
	setString := func(name string, dst *string, v *string) {
		if v != nil && *dst != strings.TrimSpace(*v) {
			*dst = strings.TrimSpace(*v)
			changed = append(changed, name)
		}
	}
	setString("first_name", &e.FirstName, u.FirstName)
	setString("last_name", &e.LastName, u.LastName)
	setString("email", &e.Email, u.Email)
	setString("phone", &e.Phone, u.Phone)
	setString("license_number", &e.LicenseNumber, u.LicenseNumber)
	if e.FullName() == "" {
		return nil, shared.NewValidationError("Employee name is required")
	}

	if u.DriverType != nil || u.Split != nil || u.PerMileRate != nil {
		driverType, split, rate := e.DriverType, e.Split, e.PerMileRate
		if u.DriverType != nil {
			driverType = *u.DriverType
		}
		if u.Split != nil {
			split = *u.Split
		}
		if u.PerMileRate != nil {
			rate = *u.PerMileRate
		}
		if driverType != e.DriverType || !split.Equal(e.Split) || !rate.Equal(e.PerMileRate) {
			if err := e.SetPay(driverType, split, rate); err != nil {
				return nil, err
			}
			changed = append(changed, "pay")
		}
	}

	if u.ClearProfile && e.Profile != nil {
		e.Profile = nil
		changed = append(changed, "profile")
	} else if u.Profile != nil {
		if err := e.SetProfile(u.Profile); err != nil {
			return nil, err
		}
		changed = append(changed, "profile")
	}

	if u.Status != nil && *u.Status != e.Status {
		if !u.Status.IsValid() {
			return nil, shared.NewValidationError("Invalid employee status: " + string(*u.Status))
		}
		e.Status = *u.Status
		changed = append(changed, "status")
	}

	if len(changed) > 0 {
		e.IncrementVersion()
	}
	return changed, nil
}
