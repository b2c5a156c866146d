package models

import (
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/fleet"
	"github.com/shopspring/decimal"
)

// EmployeeModel is the persistence model for the Employee domain entity.
type EmployeeModel struct {
	TenantAggregateModel
	FirstName     string                `gorm:"type:varchar(100)"`
	LastName      string                `gorm:"type:varchar(100)"`
	Email         string                `gorm:"type:varchar(200);index"`
	Phone         string                `gorm:"type:varchar(50)"`
	Type          fleet.EmployeeType    `gorm:"type:varchar(20);not null;index"`
	DriverType    fleet.DriverType      `gorm:"type:varchar(30)"`
	Split         decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	PerMileRate   decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Profile       *fleet.PaymentProfile `gorm:"type:jsonb"`
	LicenseNumber string                `gorm:"type:varchar(50)"`
	Status        fleet.EmployeeStatus  `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (EmployeeModel) TableName() string {
	return "employees"
}

// ToDomain converts the persistence model to a domain Employee entity.
func (m *EmployeeModel) ToDomain() *fleet.Employee {
	e := &fleet.Employee{
		TenantAggregateRoot: m.root(),
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		Email:               m.Email,
		Phone:               m.Phone,
		Type:                m.Type,
		DriverType:          m.DriverType,
		Split:               m.Split,
		PerMileRate:         m.PerMileRate,
		LicenseNumber:       m.LicenseNumber,
		Status:              m.Status,
	}
	if m.Profile != nil {
		p := *m.Profile
		e.Profile = &p
	}
	return e
}

// FromDomain populates the persistence model from a domain Employee entity.
func (m *EmployeeModel) FromDomain(e *fleet.Employee) {
	m.setRoot(e.TenantAggregateRoot)
	m.FirstName = e.FirstName
	m.LastName = e.LastName
	m.Email = e.Email
	m.Phone = e.Phone
	m.Type = e.Type
	m.DriverType = e.DriverType
	m.Split = e.Split
	m.PerMileRate = e.PerMileRate
	m.Profile = nil
	if e.Profile != nil {
		p := *e.Profile
		m.Profile = &p
	}
	m.LicenseNumber = e.LicenseNumber
	m.Status = e.Status
}

// TruckModel is the persistence model for the Truck domain entity.
type TruckModel struct {
	TenantAggregateModel
	UnitNumber string                `gorm:"type:varchar(20);not null;index"`
	VIN        string                `gorm:"column:vin;type:varchar(17)"`
	Make       string                `gorm:"type:varchar(50)"`
	Model      string                `gorm:"type:varchar(50)"`
	Year       int                   `gorm:"not null;default:0"`
	Status     fleet.EquipmentStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (TruckModel) TableName() string {
	return "trucks"
}

// ToDomain converts the persistence model to a domain Truck entity.
func (m *TruckModel) ToDomain() *fleet.Truck {
	return &fleet.Truck{
		TenantAggregateRoot: m.root(),
		UnitNumber:          m.UnitNumber,
		VIN:                 m.VIN,
		Make:                m.Make,
		Model:               m.Model,
		Year:                m.Year,
		Status:              m.Status,
	}
}

// FromDomain populates the persistence model from a domain Truck entity.
func (m *TruckModel) FromDomain(t *fleet.Truck) {
	m.setRoot(t.TenantAggregateRoot)
	m.UnitNumber = t.UnitNumber
	m.VIN = t.VIN
	m.Make = t.Make
	m.Model = t.Model
	m.Year = t.Year
	m.Status = t.Status
}

// TrailerModel is the persistence model for the Trailer domain entity.
type TrailerModel struct {
	TenantAggregateModel
	UnitNumber string                `gorm:"type:varchar(20);not null;index"`
	Type       fleet.TrailerType     `gorm:"type:varchar(20);not null"`
	Status     fleet.EquipmentStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (TrailerModel) TableName() string {
	return "trailers"
}

// ToDomain converts the persistence model to a domain Trailer entity.
func (m *TrailerModel) ToDomain() *fleet.Trailer {
	return &fleet.Trailer{
		TenantAggregateRoot: m.root(),
		UnitNumber:          m.UnitNumber,
		Type:                m.Type,
		Status:              m.Status,
	}
}

// FromDomain populates the persistence model from a domain Trailer entity.
func (m *TrailerModel) FromDomain(t *fleet.Trailer) {
	m.setRoot(t.TenantAggregateRoot)
	m.UnitNumber = t.UnitNumber
	m.Type = t.Type
	m.Status = t.Status
}
