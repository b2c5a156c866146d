package dto

import (
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/application/tms"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest is bound straight into the session input
type CreateInvoiceRequest = tms.CreateInvoiceInput

// UpdateInvoiceRequest edits an invoice
type UpdateInvoiceRequest struct {
	Status       *finance.InvoiceStatus `json:"status"`
	DueDate      *time.Time             `json:"due_date"`
	PaidAt       *time.Time             `json:"paid_at"`
	CustomerName *string                `json:"customer_name" binding:"omitempty,max=200"`
	Notes        *string                `json:"notes" binding:"omitempty,max=1000"`
}

// ToUpdate converts the request into a domain partial update
func (r UpdateInvoiceRequest) ToUpdate() finance.InvoiceUpdate {
	return finance.InvoiceUpdate{
		Status:       r.Status,
		DueDate:      r.DueDate,
		PaidAt:       r.PaidAt,
		CustomerName: r.CustomerName,
		Notes:        r.Notes,
	}
}

// InvoiceListQuery filters the invoice list
type InvoiceListQuery struct {
	Status string `form:"status"`
	LoadID string `form:"load_id" binding:"omitempty,uuid"`
}

// InvoiceResponse is the API representation of an invoice
type InvoiceResponse struct {
	ID                 uuid.UUID             `json:"id"`
	InvoiceNumber      string                `json:"invoice_number"`
	LoadIDs            []uuid.UUID           `json:"load_ids"`
	CustomerName       string                `json:"customer_name"`
	BrokerID           *uuid.UUID            `json:"broker_id,omitempty"`
	Amount             decimal.Decimal       `json:"amount"`
	Status             finance.InvoiceStatus `json:"status"`
	DueDate            *time.Time            `json:"due_date,omitempty"`
	PaidAt             *time.Time            `json:"paid_at,omitempty"`
	IsFactored         bool                  `json:"is_factored"`
	FactoringCompanyID *uuid.UUID            `json:"factoring_company_id,omitempty"`
	FactoringFee       decimal.Decimal       `json:"factoring_fee"`
	FactoredAmount     decimal.Decimal       `json:"factored_amount"`
	Notes              string                `json:"notes,omitempty"`
	Version            int                   `json:"version"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// NewInvoiceResponse converts an invoice
func NewInvoiceResponse(i *finance.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:                 i.ID,
		InvoiceNumber:      i.InvoiceNumber,
		LoadIDs:            append([]uuid.UUID{}, i.LoadIDs...),
		CustomerName:       i.CustomerName,
		BrokerID:           i.BrokerID,
		Amount:             i.Amount,
		Status:             i.Status,
		DueDate:            i.DueDate,
		PaidAt:             i.PaidAt,
		IsFactored:         i.IsFactored,
		FactoringCompanyID: i.FactoringCompanyID,
		FactoringFee:       i.FactoringFee,
		FactoredAmount:     i.FactoredAmount,
		Notes:              i.Notes,
		Version:            i.Version,
		CreatedAt:          i.CreatedAt,
		UpdatedAt:          i.UpdatedAt,
	}
}

// NewInvoiceResponses converts a list of invoices
func NewInvoiceResponses(items []*finance.Invoice) []InvoiceResponse {
	return mapAll(items, NewInvoiceResponse)
}

// ArchiveLinkResponse is a time-limited download link for an archived invoice
type ArchiveLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateSettlementRequest is bound straight into the session input
type CreateSettlementRequest = tms.CreateSettlementInput

// UpdateSettlementRequest edits a settlement
type UpdateSettlementRequest struct {
	Status     *finance.SettlementStatus `json:"status"`
	Deductions *finance.Deductions       `json:"deductions"`
	PaidAt     *time.Time                `json:"paid_at"`
}

// ToUpdate converts the request into a domain partial update
func (r UpdateSettlementRequest) ToUpdate() finance.SettlementUpdate {
	return finance.SettlementUpdate{
		Status:     r.Status,
		Deductions: r.Deductions,
		PaidAt:     r.PaidAt,
	}
}

// SettlementResponse is the API representation of a driver settlement
type SettlementResponse struct {
	ID               uuid.UUID                `json:"id"`
	SettlementNumber string                   `json:"settlement_number"`
	DriverID         *uuid.UUID               `json:"driver_id,omitempty"`
	DriverName       string                   `json:"driver_name"`
	LoadIDs          []uuid.UUID              `json:"load_ids"`
	GrossPay         decimal.Decimal          `json:"gross_pay"`
	Deductions       finance.Deductions       `json:"deductions"`
	TotalDeductions  decimal.Decimal          `json:"total_deductions"`
	NetPay           decimal.Decimal          `json:"net_pay"`
	Status           finance.SettlementStatus `json:"status"`
	PaidAt           *time.Time               `json:"paid_at,omitempty"`
	Version          int                      `json:"version"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// NewSettlementResponse converts a settlement
func NewSettlementResponse(s *finance.Settlement) SettlementResponse {
	deductions := s.Deductions
	if deductions == nil {
		deductions = finance.Deductions{}
	}
	return SettlementResponse{
		ID:               s.ID,
		SettlementNumber: s.SettlementNumber,
		DriverID:         s.DriverID,
		DriverName:       s.DriverName,
		LoadIDs:          append([]uuid.UUID{}, s.LoadIDs...),
		GrossPay:         s.GrossPay,
		Deductions:       deductions,
		TotalDeductions:  s.TotalDeductions,
		NetPay:           s.NetPay,
		Status:           s.Status,
		PaidAt:           s.PaidAt,
		Version:          s.Version,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// NewSettlementResponses converts a list of settlements
func NewSettlementResponses(items []*finance.Settlement) []SettlementResponse {
	return mapAll(items, NewSettlementResponse)
}

// CreateExpenseRequest is bound straight into the session input
type CreateExpenseRequest = tms.CreateExpenseInput

// UpdateExpenseRequest edits an expense
type UpdateExpenseRequest struct {
	Category    *finance.ExpenseCategory `json:"category"`
	Amount      *decimal.Decimal         `json:"amount"`
	Date        *time.Time               `json:"date"`
	Description *string                  `json:"description" binding:"omitempty,max=500"`
	LoadID      *uuid.UUID               `json:"load_id"`
	DriverID    *uuid.UUID               `json:"driver_id"`
	TruckID     *uuid.UUID               `json:"truck_id"`
}

// ToUpdate converts the request into a domain partial update
func (r UpdateExpenseRequest) ToUpdate() finance.ExpenseUpdate {
	return finance.ExpenseUpdate{
		Category:    r.Category,
		Amount:      r.Amount,
		Date:        r.Date,
		Description: r.Description,
		LoadID:      r.LoadID,
		DriverID:    r.DriverID,
		TruckID:     r.TruckID,
	}
}

// ExpenseResponse is the API representation of an expense
type ExpenseResponse struct {
	ID          uuid.UUID               `json:"id"`
	Category    finance.ExpenseCategory `json:"category"`
	Amount      decimal.Decimal         `json:"amount"`
	Date        time.Time               `json:"date"`
	Description string                  `json:"description,omitempty"`
	LoadID      *uuid.UUID              `json:"load_id,omitempty"`
	DriverID    *uuid.UUID              `json:"driver_id,omitempty"`
	TruckID     *uuid.UUID              `json:"truck_id,omitempty"`
	Version     int                     `json:"version"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// NewExpenseResponse converts an expense
func NewExpenseResponse(e *finance.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID,
		Category:    e.Category,
		Amount:      e.Amount,
		Date:        e.Date,
		Description: e.Description,
		LoadID:      e.LoadID,
		DriverID:    e.DriverID,
		TruckID:     e.TruckID,
		Version:     e.Version,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// NewExpenseResponses converts a list of expenses
func NewExpenseResponses(items []*finance.Expense) []ExpenseResponse {
	return mapAll(items, NewExpenseResponse)
}
