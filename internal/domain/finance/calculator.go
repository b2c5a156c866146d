package finance

import (
	"math"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/fleet"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/freight"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/partner"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultPaymentTermDays is the due period of an unfactored invoice
const DefaultPaymentTermDays = 30

var hundred = decimal.NewFromInt(100)

// Calculator derives revenue, driver pay, factoring fees and invoice terms
// from loads. All functions are pure apart from logging clamped inputs.
type Calculator struct {
	logger *zap.Logger
}

// CalculatorOption is a functional option for configuring Calculator
type CalculatorOption func(*Calculator)

// WithLogger sets the logger that receives clamp warnings
func WithLogger(logger *zap.Logger) CalculatorOption {
	return func(c *Calculator) {
		c.logger = logger
	}
}

// NewCalculator creates a new Calculator
func NewCalculator(opts ...CalculatorOption) *Calculator {
	c := &Calculator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Amount clamps a monetary input: negative values become zero
func (c *Calculator) Amount(field string, v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		c.logger.Warn("Clamped negative monetary input to zero",
			zap.String("field", field),
			zap.String("value", v.String()),
		)
		return decimal.Zero
	}
	return v
}

// AmountFromFloat converts an upstream float, clamping NaN, infinities and
// negative values to zero.
func (c *Calculator) AmountFromFloat(field string, v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		c.logger.Warn("Clamped non-finite monetary input to zero",
			zap.String("field", field),
			zap.Float64("value", v),
		)
		return decimal.Zero
	}
	return c.Amount(field, decimal.NewFromFloat(v))
}

// LoadAmount is the billable amount of a load: grand total when present, otherwise rate
func (c *Calculator) LoadAmount(l *freight.Load) decimal.Decimal {
	grandTotal := c.Amount("grand_total", l.GrandTotal)
	if grandTotal.IsPositive() {
		return grandTotal
	}
	return c.Amount("rate", l.Rate)
}

// CompanyRevenue is what the carrier keeps from a load. Company drivers leave
// the whole amount with the carrier; owner-operators keep their split of the rate.
func (c *Calculator) CompanyRevenue(l *freight.Load, driver *fleet.Employee) decimal.Decimal {
	if driver == nil || !driver.IsOwnerOperator() {
		return c.LoadAmount(l)
	}
	rate := c.Amount("rate", l.Rate)
	split := clampPercent(c.Amount("split", driver.Split))
	return roundMoney(rate.Mul(hundred.Sub(split)).Div(hundred))
}

// ComputeGrossPay is the driver's gross pay for one load under the given profile
func (c *Calculator) ComputeGrossPay(l *freight.Load, p fleet.PaymentProfile) decimal.Decimal {
	switch p.Kind {
	case fleet.PayKindPercentage:
		rate := c.Amount("rate", l.Rate)
		pct := clampPercent(c.Amount("percentage", p.Percentage))
		return roundMoney(rate.Mul(pct).Div(hundred))
	case fleet.PayKindPerMile:
		miles := c.Amount("miles", l.Miles)
		return roundMoney(miles.Mul(c.Amount("per_mile_rate", p.PerMileRate)))
	case fleet.PayKindFlatRate:
		return roundMoney(c.Amount("flat_amount", p.FlatAmount))
	default:
		c.logger.Warn("Unknown payment profile kind, gross pay is zero", zap.String("kind", string(p.Kind)))
		return decimal.Zero
	}
}

// DriverGrossPay computes pay for a load using the driver's effective profile
func (c *Calculator) DriverGrossPay(l *freight.Load, driver *fleet.Employee) decimal.Decimal {
	if driver == nil {
		return decimal.Zero
	}
	return c.ComputeGrossPay(l, driver.PaymentProfile())
}

// FactoringPercent resolves the fee percentage: the load override, then the
// factoring company default, then zero.
func (c *Calculator) FactoringPercent(l *freight.Load, company *partner.FactoringCompany) decimal.Decimal {
	switch {
	case l.FactoringFeePercent != nil:
		return clampPercent(c.Amount("factoring_fee_percent", *l.FactoringFeePercent))
	case company != nil:
		return clampPercent(c.Amount("fee_percentage", company.FeePercentage))
	default:
		return decimal.Zero
	}
}

// FactoringFee returns the fee withheld by the factor and the amount advanced
func (c *Calculator) FactoringFee(l *freight.Load, company *partner.FactoringCompany) (fee, factoredAmount decimal.Decimal) {
	amount := c.LoadAmount(l)
	fee = roundMoney(amount.Mul(c.FactoringPercent(l, company)).Div(hundred))
	return fee, amount.Sub(fee)
}

// InvoiceTerms describes the amount and payment state of an invoice created for a load
type InvoiceTerms struct {
	Amount  decimal.Decimal
	Status  InvoiceStatus
	DueDate *time.Time
	PaidAt  *time.Time
}

// InvoiceTerms derives the initial invoice terms. A factored load is paid by the
// factor on the factored date (or today); otherwise payment is due in 30 days.
func (c *Calculator) InvoiceTerms(l *freight.Load, today time.Time) InvoiceTerms {
	terms := InvoiceTerms{Amount: c.LoadAmount(l)}
	if l.IsFactored {
		paidAt := today
		if l.FactoredDate != nil {
			paidAt = *l.FactoredDate
		}
		terms.Status = InvoiceStatusPaid
		terms.PaidAt = &paidAt
		return terms
	}
	due := today.AddDate(0, 0, DefaultPaymentTermDays)
	terms.Status = InvoiceStatusPending
	terms.DueDate = &due
	return terms
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
