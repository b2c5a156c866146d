package fleet

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// PayKind selects how a driver's gross pay is computed for a load
type PayKind string

const (
	PayKindPercentage PayKind = "percentage" // share of the load rate
	PayKindPerMile    PayKind = "per_mile"   // loaded miles times a rate
	PayKindFlatRate   PayKind = "flat_rate"  // fixed amount per load
)

// IsValid checks if the pay kind is known
func (k PayKind) IsValid() bool {
	switch k {
	case PayKindPercentage, PayKindPerMile, PayKindFlatRate:
		return true
	}
	return false
}

// PaymentProfile describes how a driver is paid. Only the field matching Kind
// is meaningful.
type PaymentProfile struct {
	Kind        PayKind         `json:"kind"`
	Percentage  decimal.Decimal `json:"percentage"`
	PerMileRate decimal.Decimal `json:"per_mile_rate"`
	FlatAmount  decimal.Decimal `json:"flat_amount"`
}

// PercentageProfile pays pct percent of the load rate
func PercentageProfile(pct decimal.Decimal) PaymentProfile {
	return PaymentProfile{Kind: PayKindPercentage, Percentage: pct}
}

// PerMileProfile pays rate per loaded mile
func PerMileProfile(rate decimal.Decimal) PaymentProfile {
	return PaymentProfile{Kind: PayKindPerMile, PerMileRate: rate}
}

// FlatRateProfile pays a fixed amount per load
func FlatRateProfile(amount decimal.Decimal) PaymentProfile {
	return PaymentProfile{Kind: PayKindFlatRate, FlatAmount: amount}
}

// Validate checks the profile is internally consistent
func (p PaymentProfile) Validate() error {
	if !p.Kind.IsValid() {
		return errors.New("unknown payment profile kind: " + string(p.Kind))
	}
	switch p.Kind {
	case PayKindPercentage:
		if p.Percentage.IsNegative() || p.Percentage.GreaterThan(decimal.NewFromInt(100)) {
			return errors.New("percentage must be between 0 and 100")
		}
	case PayKindPerMile:
		if p.PerMileRate.IsNegative() {
			return errors.New("per-mile rate cannot be negative")
		}
	case PayKindFlatRate:
		if p.FlatAmount.IsNegative() {
			return errors.New("flat amount cannot be negative")
		}
	}
	return nil
}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p PaymentProfile) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *PaymentProfile) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		*p = PaymentProfile{}
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentProfile: unsupported type")
	}
	if len(bytes) == 0 {
		*p = PaymentProfile{}
		return nil
	}
	return json.Unmarshal(bytes, p)
}
