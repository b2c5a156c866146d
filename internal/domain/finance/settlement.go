package finance

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeSettlement is the aggregate type name used in events and audit entries
const AggregateTypeSettlement = "Settlement"

// SettlementStatus represents the payroll state of a settlement
type SettlementStatus string

const (
	SettlementStatusDraft    SettlementStatus = "draft"
	SettlementStatusApproved SettlementStatus = "approved"
	SettlementStatusPaid     SettlementStatus = "paid"
)

// IsValid checks if the status is a valid SettlementStatus
func (s SettlementStatus) IsValid() bool {
	switch s {
	case SettlementStatusDraft, SettlementStatusApproved, SettlementStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of SettlementStatus
func (s SettlementStatus) String() string {
	return string(s)
}

// FormatSettlementNumber renders STL-{year}-{seq}
func FormatSettlementNumber(year int, seq int64) string {
	return fmt.Sprintf("STL-%d-%04d", year, seq)
}

// Deduction is a line item withheld from driver pay
type Deduction struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Deductions is a slice of Deduction stored as JSONB
type Deductions []Deduction

// Total sums the deduction amounts
func (d Deductions) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d {
		total = total.Add(item.Amount)
	}
	return total
}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (d Deductions) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (d *Deductions) Scan(value interface{}) error {
	if value == nil {
		*d = Deductions{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Deductions: unsupported type")
	}

	if len(bytes) == 0 {
		*d = Deductions{}
		return nil
	}
	return json.Unmarshal(bytes, d)
}

// Settlement is a driver pay statement covering one or more loads
type Settlement struct {
	shared.TenantAggregateRoot
	SettlementNumber string
	DriverID         *uuid.UUID
	DriverName       string
	LoadIDs          shared.IDList
	GrossPay         decimal.Decimal
	Deductions       Deductions
	TotalDeductions  decimal.Decimal
	NetPay           decimal.Decimal
	Status           SettlementStatus
	PaidAt           *time.Time
}

// NewSettlement creates a draft settlement with no deductions
func NewSettlement(tenantID uuid.UUID, number string, driverID uuid.UUID, driverName string, loadIDs []uuid.UUID, grossPay decimal.Decimal) (*Settlement, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewValidationError("Settlement number is required")
	}
	if driverID == uuid.Nil {
		return nil, shared.NewValidationError("Settlement requires a driver")
	}
	if len(loadIDs) == 0 {
		return nil, shared.NewValidationError("Settlement must cover at least one load")
	}
	if grossPay.IsNegative() {
		return nil, shared.NewValidationError("Gross pay cannot be negative")
	}

	ids := make(shared.IDList, 0, len(loadIDs))
	for _, id := range loadIDs {
		ids = ids.With(id)
	}

	s := &Settlement{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SettlementNumber:    number,
		DriverID:            &driverID,
		DriverName:          driverName,
		LoadIDs:             ids,
		GrossPay:            grossPay,
		Deductions:          Deductions{},
		TotalDeductions:     decimal.Zero,
		NetPay:              grossPay,
		Status:              SettlementStatusDraft,
	}
	s.AddDomainEvent(NewSettlementCreatedEvent(s))
	return s, nil
}

// Covers reports whether the settlement pays for the load
func (s *Settlement) Covers(loadID uuid.UUID) bool {
	return s.LoadIDs.Contains(loadID)
}

// SetDeductions replaces the deduction lines and recomputes net pay
func (s *Settlement) SetDeductions(items Deductions) error {
	for _, item := range items {
		if item.Amount.IsNegative() {
			return shared.NewValidationError("Deduction amounts cannot be negative")
		}
	}
	s.Deductions = append(Deductions{}, items...)
	s.recompute()
	return nil
}

// SetGrossPay replaces the gross pay and recomputes net pay
func (s *Settlement) SetGrossPay(gross decimal.Decimal) bool {
	if s.GrossPay.Equal(gross) {
		return false
	}
	s.GrossPay = gross
	s.recompute()
	s.IncrementVersion()
	return true
}

func (s *Settlement) recompute() {
	s.TotalDeductions = s.Deductions.Total()
	s.NetPay = s.GrossPay.Sub(s.TotalDeductions)
}

// RemoveLoad drops a load from the settlement
func (s *Settlement) RemoveLoad(loadID uuid.UUID) bool {
	if !s.Covers(loadID) {
		return false
	}
	s.LoadIDs = s.LoadIDs.Without(loadID)
	s.IncrementVersion()
	return true
}

// ClearReferencesTo empties every reference to id and returns the cleared fields
func (s *Settlement) ClearReferencesTo(id uuid.UUID) []string {
	var cleared []string
	if shared.RefersTo(s.DriverID, id) {
		s.DriverID = nil
		cleared = append(cleared, "driver_id")
	}
	if s.LoadIDs.Contains(id) {
		s.LoadIDs = s.LoadIDs.Without(id)
		cleared = append(cleared, "load_ids")
	}
	if len(cleared) > 0 {
		s.IncrementVersion()
	}
	return cleared
}

// SettlementUpdate is a partial update; nil fields are left untouched
type SettlementUpdate struct {
	Status     *SettlementStatus
	Deductions *Deductions
	PaidAt     *time.Time
}

// Apply mutates the settlement and returns the names of changed fields
func (s *Settlement) Apply(u SettlementUpdate, now time.Time) ([]string, error) {
	var changed []string
	if u.Deductions != nil {
		if err := s.SetDeductions(*u.Deductions); err != nil {
			return nil, err
		}
		changed = append(changed, "deductions")
	}
	if u.Status != nil && *u.Status != s.Status {
		if !u.Status.IsValid() {
			return nil, shared.NewValidationError("Invalid settlement status: " + string(*u.Status))
		}
		s.Status = *u.Status
		changed = append(changed, "status")
		if s.Status == SettlementStatusPaid && s.PaidAt == nil && u.PaidAt == nil {
			t := now
			s.PaidAt = &t
		}
	}
	if u.PaidAt != nil {
		t := *u.PaidAt
		s.PaidAt = &t
		changed = append(changed, "paid_at")
	}
	if len(changed) > 0 {
		s.IncrementVersion()
	}
	return changed, nil
}

// Clone returns a deep copy without pending events
func (s *Settlement) Clone() *Settlement {
	cp := *s
	cp.ClearDomainEvents()
	cp.CreatedBy = shared.CloneID(s.CreatedBy)
	cp.DriverID = shared.CloneID(s.DriverID)
	cp.LoadIDs = s.LoadIDs.Clone()
	cp.Deductions = append(Deductions(nil), s.Deductions...)
	if s.PaidAt != nil {
		t := *s.PaidAt
		cp.PaidAt = &t
	}
	return &cp
}
