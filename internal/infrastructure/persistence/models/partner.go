package models

import (
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// BrokerModel is the persistence model for the Broker domain entity.
type BrokerModel struct {
	TenantAggregateModel
	Name     string `gorm:"type:varchar(200);not null;index"`
	MCNumber string `gorm:"column:mc_number;type:varchar(20)"`
	Email    string `gorm:"type:varchar(200)"`
	Phone    string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (BrokerModel) TableName() string {
	return "brokers"
}

// ToDomain converts the persistence model to a domain Broker entity.
func (m *BrokerModel) ToDomain() *partner.Broker {
	return &partner.Broker{
		TenantAggregateRoot: m.root(),
		Name:                m.Name,
		MCNumber:            m.MCNumber,
		Email:               m.Email,
		Phone:               m.Phone,
	}
}

// FromDomain populates the persistence model from a domain Broker entity.
func (m *BrokerModel) FromDomain(b *partner.Broker) {
	m.setRoot(b.TenantAggregateRoot)
	m.Name = b.Name
	m.MCNumber = b.MCNumber
	m.Email = b.Email
	m.Phone = b.Phone
}

// FactoringCompanyModel is the persistence model for the FactoringCompany domain entity.
type FactoringCompanyModel struct {
	TenantAggregateModel
	Name          string          `gorm:"type:varchar(200);not null"`
	FeePercentage decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Email         string          `gorm:"type:varchar(200)"`
	Phone         string          `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (FactoringCompanyModel) TableName() string {
	return "factoring_companies"
}

// ToDomain converts the persistence model to a domain FactoringCompany entity.
func (m *FactoringCompanyModel) ToDomain() *partner.FactoringCompany {
	return &partner.FactoringCompany{
		TenantAggregateRoot: m.root(),
		Name:                m.Name,
		FeePercentage:       m.FeePercentage,
		Email:               m.Email,
		Phone:               m.Phone,
	}
}

// FromDomain populates the persistence model from a domain FactoringCompany entity.
func (m *FactoringCompanyModel) FromDomain(f *partner.FactoringCompany) {
	m.setRoot(f.TenantAggregateRoot)
	m.Name = f.Name
	m.FeePercentage = f.FeePercentage
	m.Email = f.Email
	m.Phone = f.Phone
}
