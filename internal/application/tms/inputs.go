package tms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/finance"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/fleet"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/partner"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateLoadInput creates a load. An empty load number is generated.
type CreateLoadInput struct {
	LoadNumber string             `json:"load_number" validate:"omitempty,max=50"`
	Fields     freight.LoadUpdate `json:"-"`
}

// UpdateLoadInput is a partial load update. Reason is mandatory when the load
// is locked and a non-exempt field changes.
type UpdateLoadInput struct {
	Fields freight.LoadUpdate `json:"-"`
	Reason string             `json:"reason" validate:"max=500"`
}

// LoadFilter narrows ListLoads. Zero values match everything.
type LoadFilter struct {
	Status   freight.LoadStatus
	DriverID uuid.UUID
	Customer string
	Locked   *bool
}

// CreateEmployeeInput creates a driver or dispatcher
type CreateEmployeeInput struct {
	FirstName     string                `json:"first_name" validate:"required_without=LastName,max=100"`
	LastName      string                `json:"last_name" validate:"max=100"`
	Email         string                `json:"email" validate:"omitempty,email,max=200"`
	Phone         string                `json:"phone" validate:"omitempty,max=30"`
	Type          fleet.EmployeeType    `json:"type" validate:"required,oneof=driver dispatcher"`
	DriverType    fleet.DriverType      `json:"driver_type" validate:"omitempty,oneof=company owner_operator"`
	Split         decimal.Decimal       `json:"split"`
	PerMileRate   decimal.Decimal       `json:"per_mile_rate"`
	Profile       *fleet.PaymentProfile `json:"payment_profile"`
	LicenseNumber string                `json:"license_number" validate:"omitempty,max=50"`
}

// CreateTruckInput creates a truck
type CreateTruckInput struct {
	UnitNumber string `json:"unit_number" validate:"required,max=20"`
	VIN        string `json:"vin" validate:"omitempty,len=17"`
	Make       string `json:"make" validate:"omitempty,max=50"`
	Model      string `json:"model" validate:"omitempty,max=50"`
	Year       int    `json:"year" validate:"omitempty,gte=1950,lte=2100"`
}

// CreateTrailerInput creates a trailer
type CreateTrailerInput struct {
	UnitNumber string            `json:"unit_number" validate:"required,max=20"`
	Type       fleet.TrailerType `json:"type" validate:"required,oneof=dry_van reefer flatbed"`
}

// CreateBrokerInput creates a broker
type CreateBrokerInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	MCNumber string `json:"mc_number" validate:"omitempty,max=20"`
	Email    string `json:"email" validate:"omitempty,email,max=200"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
}

// CreateFactoringCompanyInput creates a factoring company
type CreateFactoringCompanyInput struct {
	Name          string          `json:"name" validate:"required,max=200"`
	FeePercentage decimal.Decimal `json:"fee_percentage"`
	Email         string          `json:"email" validate:"omitempty,email,max=200"`
	Phone         string          `json:"phone" validate:"omitempty,max=30"`
}

// CreateInvoiceInput bills one or more delivered loads on a single invoice
type CreateInvoiceInput struct {
	LoadIDs []uuid.UUID `json:"load_ids" validate:"required,min=1,dive,required"`
	DueDate *time.Time  `json:"due_date"`
	Notes   string      `json:"notes" validate:"max=1000"`
}

// CreateSettlementInput pays a driver for one or more loads
type CreateSettlementInput struct {
	DriverID   uuid.UUID          `json:"driver_id" validate:"required"`
	LoadIDs    []uuid.UUID        `json:"load_ids" validate:"required,min=1,dive,required"`
	Deductions finance.Deductions `json:"deductions"`
}

// CreateExpenseInput records a cost, optionally tied to a load, driver or truck
type CreateExpenseInput struct {
	Category    finance.ExpenseCategory `json:"category" validate:"required,oneof=fuel tolls lumper maintenance other"`
	Amount      decimal.Decimal         `json:"amount"`
	Date        time.Time               `json:"date" validate:"required"`
	Description string                  `json:"description" validate:"max=500"`
	LoadID      *uuid.UUID              `json:"load_id"`
	DriverID    *uuid.UUID              `json:"driver_id"`
	TruckID     *uuid.UUID              `json:"truck_id"`
}

// Update inputs reuse the domain partial-update types
type (
	UpdateEmployeeInput         = fleet.EmployeeUpdate
	UpdateTruckInput            = fleet.TruckUpdate
	UpdateTrailerInput          = fleet.TrailerUpdate
	UpdateBrokerInput           = partner.BrokerUpdate
	UpdateFactoringCompanyInput = partner.FactoringCompanyUpdate
	UpdateInvoiceInput          = finance.InvoiceUpdate
	UpdateSettlementInput       = finance.SettlementUpdate
	UpdateExpenseInput          = finance.ExpenseUpdate
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput turns struct tag violations into a VALIDATION_FAILED error
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.NewValidationError(err.Error())
	}

	fields := make(map[string]any, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fieldMessage(fe)
		fields[fe.Field()] = msg
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), msg))
	}
	return shared.NewValidationError("Invalid input: " + strings.Join(msgs, "; ")).
		WithDetails(map[string]any{"fields": fields})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "email":
		return "must be a valid email"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "min":
		return "must have at least " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
