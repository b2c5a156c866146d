package dto

import (
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/application/tms"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateBrokerRequest is bound straight into the session input
type CreateBrokerRequest = tms.CreateBrokerInput

// UpdateBrokerRequest edits a broker
type UpdateBrokerRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=200"`
	MCNumber *string `json:"mc_number" binding:"omitempty,max=20"`
	Email    *string `json:"email" binding:"omitempty,max=200"`
	Phone    *string `json:"phone" binding:"omitempty,max=30"`
}

// ToUpdate converts the request into a domain partial update
func (r UpdateBrokerRequest) ToUpdate() partner.BrokerUpdate {
	return partner.BrokerUpdate{
		Name:     r.Name,
		MCNumber: r.MCNumber,
		Email:    r.Email,
		Phone:    r.Phone,
	}
}

// BrokerResponse is the API representation of a broker
type BrokerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	MCNumber  string    `json:"mc_number,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBrokerResponse converts a broker
func NewBrokerResponse(b *partner.Broker) BrokerResponse {
	return BrokerResponse{
		ID:        b.ID,
		Name:      b.Name,
		MCNumber:  b.MCNumber,
		Email:     b.Email,
		Phone:     b.Phone,
		Version:   b.Version,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// NewBrokerResponses converts a list of brokers
func NewBrokerResponses(items []*partner.Broker) []BrokerResponse {
	return mapAll(items, NewBrokerResponse)
}

// CreateFactoringCompanyRequest is bound straight into the session input
type CreateFactoringCompanyRequest = tms.CreateFactoringCompanyInput

// UpdateFactoringCompanyRequest edits a factoring company
type UpdateFactoringCompanyRequest struct {
	Name          *string          `json:"name" binding:"omitempty,max=200"`
	FeePercentage *decimal.Decimal `json:"fee_percentage" binding:"omitempty,gte=0,lte=100"`
	Email         *string          `json:"email" binding:"omitempty,max=200"`
	Phone         *string          `json:"phone" binding:"omitempty,max=30"`
}

// ToUpdate converts the request into a domain partial update
func (r UpdateFactoringCompanyRequest) ToUpdate() partner.FactoringCompanyUpdate {
	return partner.FactoringCompanyUpdate{
		Name:          r.Name,
		FeePercentage: r.FeePercentage,
		Email:         r.Email,
		Phone:         r.Phone,
	}
}

// FactoringCompanyResponse is the API representation of a factoring company
type FactoringCompanyResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	FeePercentage decimal.Decimal `json:"fee_percentage"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewFactoringCompanyResponse converts a factoring company
func NewFactoringCompanyResponse(f *partner.FactoringCompany) FactoringCompanyResponse {
	return FactoringCompanyResponse{
		ID:            f.ID,
		Name:          f.Name,
		FeePercentage: f.FeePercentage,
		Email:         f.Email,
		Phone:         f.Phone,
		Version:       f.Version,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// NewFactoringCompanyResponses converts a list of factoring companies
func NewFactoringCompanyResponses(items []*partner.FactoringCompany) []FactoringCompanyResponse {
	return mapAll(items, NewFactoringCompanyResponse)
}
