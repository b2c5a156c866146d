package finance

import (
	"strings"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory classifies operating costs
type ExpenseCategory string

const (
	ExpenseCategoryFuel        ExpenseCategory = "fuel"
	ExpenseCategoryTolls       ExpenseCategory = "tolls"
	ExpenseCategoryLumper      ExpenseCategory = "lumper"
	ExpenseCategoryMaintenance ExpenseCategory = "maintenance"
	ExpenseCategoryOther       ExpenseCategory = "other"
)

// IsValid checks if the category is a valid ExpenseCategory
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryFuel, ExpenseCategoryTolls, ExpenseCategoryLumper,
		ExpenseCategoryMaintenance, ExpenseCategoryOther:
		return true
	}
	return false
}

// Expense is an operating cost, optionally tied to a load, driver or truck
type Expense struct {
	shared.TenantAggregateRoot
	Category    ExpenseCategory
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	LoadID      *uuid.UUID
	DriverID    *uuid.UUID
	TruckID     *uuid.UUID
}

// NewExpense creates a new expense
func NewExpense(tenantID uuid.UUID, category ExpenseCategory, amount decimal.Decimal, date time.Time, description string) (*Expense, error) {
	if !category.IsValid() {
		return nil, shared.NewValidationError("Invalid expense category: " + string(category))
	}
	if amount.IsNegative() {
		return nil, shared.NewValidationError("Expense amount cannot be negative")
	}
	if date.IsZero() {
		date = time.Now()
	}
	return &Expense{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Category:            category,
		Amount:              amount,
		Date:                date,
		Description:         strings.TrimSpace(description),
	}, nil
}

// ClearReferencesTo empties every reference to id and returns the cleared fields
func (e *Expense) ClearReferencesTo(id uuid.UUID) []string {
	var cleared []string
	if shared.RefersTo(e.LoadID, id) {
		e.LoadID = nil
		cleared = append(cleared, "load_id")
	}
	if shared.RefersTo(e.DriverID, id) {
		e.DriverID = nil
		cleared = append(cleared, "driver_id")
	}
	if shared.RefersTo(e.TruckID, id) {
		e.TruckID = nil
		cleared = append(cleared, "truck_id")
	}
	if len(cleared) > 0 {
		e.IncrementVersion()
	}
	return cleared
}

// ExpenseUpdate is a partial update; nil fields are left untouched.
// A reference set to uuid.Nil clears it.
type ExpenseUpdate struct {
	Category    *ExpenseCategory
	Amount      *decimal.Decimal
	Date        *time.Time
	Description *string
	LoadID      *uuid.UUID
	DriverID    *uuid.UUID
	TruckID     *uuid.UUID
}

// Apply mutates the expense and returns the names of changed fields
func (e *Expense) Apply(u ExpenseUpdate) ([]string, error) {
	var changed []string
	if u.Category != nil && *u.Category != e.Category {
		if !u.Category.IsValid() {
			return nil, shared.NewValidationError("Invalid expense category: " + string(*u.Category))
		}
		e.Category = *u.Category
		changed = append(changed, "category")
	}
	if u.Amount != nil && !u.Amount.Equal(e.Amount) {
		if u.Amount.IsNegative() {
			return nil, shared.NewValidationError("Expense amount cannot be negative")
		}
		e.Amount = *u.Amount
		changed = append(changed, "amount")
	}
	if u.Date != nil && !u.Date.Equal(e.Date) {
		e.Date = *u.Date
		changed = append(changed, "date")
	}
	if u.Description != nil && *u.Description != e.Description {
		e.Description = *u.Description
		changed = append(changed, "description")
	}
	setRef := func(name string, dst **uuid.UUID, v *uuid.UUID) {
		if v == nil {
			return
		}
		var next *uuid.UUID
		if *v != uuid.Nil {
			id := *v
			next = &id
		}
		if !shared.SameID(*dst, next) {
			*dst = next
			changed = append(changed, name)
		}
	}
	setRef("load_id", &e.LoadID, u.LoadID)
	setRef("driver_id", &e.DriverID, u.DriverID)
	setRef("truck_id", &e.TruckID, u.TruckID)
	if len(changed) > 0 {
		e.IncrementVersion()
	}
	return changed, nil
}

// Clone returns a deep copy without pending events
func (e *Expense) Clone() *Expense {
	cp := *e
	cp.ClearDomainEvents()
	cp.CreatedBy = shared.CloneID(e.CreatedBy)
	cp.LoadID = shared.CloneID(e.LoadID)
	cp.DriverID = shared.CloneID(e.DriverID)
	cp.TruckID = shared.CloneID(e.TruckID)
	return &cp
}
