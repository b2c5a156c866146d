package models

import (
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber      string                `gorm:"type:varchar(50);not null;index"`
	LoadIDs            shared.IDList         `gorm:"column:load_ids;type:jsonb"`
	CustomerName       string                `gorm:"type:varchar(200)"`
	BrokerID           *uuid.UUID            `gorm:"type:uuid;index"`
	Amount             decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Status             finance.InvoiceStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	DueDate            *time.Time            `gorm:"index"`
	PaidAt             *time.Time            `gorm:"type:timestamptz"`
	IsFactored         bool                  `gorm:"not null;default:false"`
	FactoringCompanyID *uuid.UUID            `gorm:"type:uuid;index"`
	FactoringFee       decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	FactoredAmount     decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Notes              string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice aggregate.
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	return &finance.Invoice{
		TenantAggregateRoot: m.root(),
		InvoiceNumber:       m.InvoiceNumber,
		LoadIDs:             m.LoadIDs.Clone(),
		CustomerName:        m.CustomerName,
		BrokerID:            shared.CloneID(m.BrokerID),
		Amount:              m.Amount,
		Status:              m.Status,
		DueDate:             cloneTime(m.DueDate),
		PaidAt:              cloneTime(m.PaidAt),
		IsFactored:          m.IsFactored,
		FactoringCompanyID:  shared.CloneID(m.FactoringCompanyID),
		FactoringFee:        m.FactoringFee,
		FactoredAmount:      m.FactoredAmount,
		Notes:               m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Invoice aggregate.
func (m *InvoiceModel) FromDomain(i *finance.Invoice) {
	m.setRoot(i.TenantAggregateRoot)
	m.InvoiceNumber = i.InvoiceNumber
	m.LoadIDs = i.LoadIDs.Clone()
	m.CustomerName = i.CustomerName
	m.BrokerID = shared.CloneID(i.BrokerID)
	m.Amount = i.Amount
	m.Status = i.Status
	m.DueDate = cloneTime(i.DueDate)
	m.PaidAt = cloneTime(i.PaidAt)
	m.IsFactored = i.IsFactored
	m.FactoringCompanyID = shared.CloneID(i.FactoringCompanyID)
	m.FactoringFee = i.FactoringFee
	m.FactoredAmount = i.FactoredAmount
	m.Notes = i.Notes
}

// SettlementModel is the persistence model for the Settlement aggregate root.
type SettlementModel struct {
	TenantAggregateModel
	SettlementNumber string                   `gorm:"type:varchar(50);not null;index"`
	DriverID         *uuid.UUID               `gorm:"type:uuid;index"`
	DriverName       string                   `gorm:"type:varchar(200)"`
	LoadIDs          shared.IDList            `gorm:"column:load_ids;type:jsonb"`
	GrossPay         decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Deductions       finance.Deductions       `gorm:"type:jsonb"`
	TotalDeductions  decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	NetPay           decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Status           finance.SettlementStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	PaidAt           *time.Time               `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (SettlementModel) TableName() string {
	return "settlements"
}

// ToDomain converts the persistence model to a domain Settlement aggregate.
func (m *SettlementModel) ToDomain() *finance.Settlement {
	return &finance.Settlement{
		TenantAggregateRoot: m.root(),
		SettlementNumber:    m.SettlementNumber,
		DriverID:            shared.CloneID(m.DriverID),
		DriverName:          m.DriverName,
		LoadIDs:             m.LoadIDs.Clone(),
		GrossPay:            m.GrossPay,
		Deductions:          append(finance.Deductions{}, m.Deductions...),
		TotalDeductions:     m.TotalDeductions,
		NetPay:              m.NetPay,
		Status:              m.Status,
		PaidAt:              cloneTime(m.PaidAt),
	}
}

// FromDomain populates the persistence model from a domain Settlement aggregate.
func (m *SettlementModel) FromDomain(s *finance.Settlement) {
	m.setRoot(s.TenantAggregateRoot)
	m.SettlementNumber = s.SettlementNumber
	m.DriverID = shared.CloneID(s.DriverID)
	m.DriverName = s.DriverName
	m.LoadIDs = s.LoadIDs.Clone()
	m.GrossPay = s.GrossPay
	m.Deductions = append(finance.Deductions{}, s.Deductions...)
	m.TotalDeductions = s.TotalDeductions
	m.NetPay = s.NetPay
	m.Status = s.Status
	m.PaidAt = cloneTime(s.PaidAt)
}

// ExpenseModel is the persistence model for the Expense domain entity.
type ExpenseModel struct {
	TenantAggregateModel
	Category    finance.ExpenseCategory `gorm:"type:varchar(20);not null;index"`
	Amount      decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	Date        time.Time               `gorm:"not null;index"`
	Description string                  `gorm:"type:text"`
	LoadID      *uuid.UUID              `gorm:"type:uuid;index"`
	DriverID    *uuid.UUID              `gorm:"type:uuid;index"`
	TruckID     *uuid.UUID              `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense entity.
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		TenantAggregateRoot: m.root(),
		Category:            m.Category,
		Amount:              m.Amount,
		Date:                m.Date,
		Description:         m.Description,
		LoadID:              shared.CloneID(m.LoadID),
		DriverID:            shared.CloneID(m.DriverID),
		TruckID:             shared.CloneID(m.TruckID),
	}
}

// FromDomain populates the persistence model from a domain Expense entity.
func (m *ExpenseModel) FromDomain(e *finance.Expense) {
	m.setRoot(e.TenantAggregateRoot)
	m.Category = e.Category
	m.Amount = e.Amount
	m.Date = e.Date
	m.Description = e.Description
	m.LoadID = shared.CloneID(e.LoadID)
	m.DriverID = shared.CloneID(e.DriverID)
	m.TruckID = shared.CloneID(e.TruckID)
}
