package models

import (
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoadModel is the persistence model for the Load domain entity.
type LoadModel struct {
	TenantAggregateModel
	LoadNumber          string                `gorm:"type:varchar(50);not null;index"`
	Status              freight.LoadStatus    `gorm:"type:varchar(20);not null;default:'available';index"`
	CustomerName        string                `gorm:"type:varchar(200)"`
	BrokerID            *uuid.UUID            `gorm:"type:uuid;index"`
	BrokerName          string                `gorm:"type:varchar(200)"`
	Origin              valueobject.Location  `gorm:"type:jsonb"`
	Destination         valueobject.Location  `gorm:"type:jsonb"`
	PickupDate          *time.Time            `gorm:"index"`
	DeliveryDate        *time.Time            `gorm:"index"`
	Rate                decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	GrandTotal          decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Miles               decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	DriverID            *uuid.UUID            `gorm:"type:uuid;index"`
	DispatcherID        *uuid.UUID            `gorm:"type:uuid;index"`
	TruckID             *uuid.UUID            `gorm:"type:uuid;index"`
	TrailerID           *uuid.UUID            `gorm:"type:uuid;index"`
	FactoringCompanyID  *uuid.UUID            `gorm:"type:uuid;index"`
	IsFactored          bool                  `gorm:"not null;default:false"`
	FactoredDate        *time.Time            `gorm:"type:timestamp"`
	FactoringFeePercent *decimal.Decimal      `gorm:"type:decimal(18,4)"`
	InvoiceID           *uuid.UUID            `gorm:"type:uuid;index"`
	SettlementID        *uuid.UUID            `gorm:"type:uuid;index"`
	IsLocked            bool                  `gorm:"not null;default:false"`
	LockedAt            *time.Time            `gorm:"type:timestamp"`
	Adjustments         freight.AdjustmentLog `gorm:"type:jsonb"`
	Notes               string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (LoadModel) TableName() string {
	return "loads"
}

// ToDomain converts the persistence model to a domain Load entity.
func (m *LoadModel) ToDomain() *freight.Load {
	l := &freight.Load{
		TenantAggregateRoot: m.root(),
		LoadNumber:          m.LoadNumber,
		Status:              m.Status,
		CustomerName:        m.CustomerName,
		BrokerID:            shared.CloneID(m.BrokerID),
		BrokerName:          m.BrokerName,
		Origin:              m.Origin,
		Destination:         m.Destination,
		PickupDate:          cloneTime(m.PickupDate),
		DeliveryDate:        cloneTime(m.DeliveryDate),
		Rate:                m.Rate,
		GrandTotal:          m.GrandTotal,
		Miles:               m.Miles,
		DriverID:            shared.CloneID(m.DriverID),
		DispatcherID:        shared.CloneID(m.DispatcherID),
		TruckID:             shared.CloneID(m.TruckID),
		TrailerID:           shared.CloneID(m.TrailerID),
		FactoringCompanyID:  shared.CloneID(m.FactoringCompanyID),
		IsFactored:          m.IsFactored,
		FactoredDate:        cloneTime(m.FactoredDate),
		InvoiceID:           shared.CloneID(m.InvoiceID),
		SettlementID:        shared.CloneID(m.SettlementID),
		IsLocked:            m.IsLocked,
		LockedAt:            cloneTime(m.LockedAt),
		Adjustments:         append(freight.AdjustmentLog{}, m.Adjustments...),
		Notes:               m.Notes,
	}
	if m.FactoringFeePercent != nil {
		fee := *m.FactoringFeePercent
		l.FactoringFeePercent = &fee
	}
	return l
}

// FromDomain populates the persistence model from a domain Load entity.
func (m *LoadModel) FromDomain(l *freight.Load) {
	m.setRoot(l.TenantAggregateRoot)
	m.LoadNumber = l.LoadNumber
	m.Status = l.Status
	m.CustomerName = l.CustomerName
	m.BrokerID = shared.CloneID(l.BrokerID)
	m.BrokerName = l.BrokerName
	m.Origin = l.Origin
	m.Destination = l.Destination
	m.PickupDate = cloneTime(l.PickupDate)
	m.DeliveryDate = cloneTime(l.DeliveryDate)
	m.Rate = l.Rate
	m.GrandTotal = l.GrandTotal
	m.Miles = l.Miles
	m.DriverID = shared.CloneID(l.DriverID)
	m.DispatcherID = shared.CloneID(l.DispatcherID)
	m.TruckID = shared.CloneID(l.TruckID)
	m.TrailerID = shared.CloneID(l.TrailerID)
	m.FactoringCompanyID = shared.CloneID(l.FactoringCompanyID)
	m.IsFactored = l.IsFactored
	m.FactoredDate = cloneTime(l.FactoredDate)
	m.FactoringFeePercent = nil
	if l.FactoringFeePercent != nil {
		fee := *l.FactoringFeePercent
		m.FactoringFeePercent = &fee
	}
	m.InvoiceID = shared.CloneID(l.InvoiceID)
	m.SettlementID = shared.CloneID(l.SettlementID)
	m.IsLocked = l.IsLocked
	m.LockedAt = cloneTime(l.LockedAt)
	m.Adjustments = append(freight.AdjustmentLog{}, l.Adjustments...)
	m.Notes = l.Notes
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
