package partner

import (
	"strings"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Broker is a freight broker that tenders loads to the carrier
type Broker struct {
	shared.TenantAggregateRoot
	Name     string
	MCNumber string
	Email    string
	Phone    string
}

// NewBroker creates a new broker
func NewBroker(tenantID uuid.UUID, name, mcNumber string) (*Broker, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("Broker name is required")
	}
	return &Broker{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		MCNumber:            strings.TrimSpace(mcNumber),
	}, nil
}

// Clone returns a deep copy
func (b *Broker) Clone() *Broker {
	cp := *b
	cp.ClearDomainEvents()
	cp.CreatedBy = shared.CloneID(b.CreatedBy)
	return &cp
}

// BrokerUpdate is a partial update; nil fields are left untouched
type BrokerUpdate struct {
	Name     *string
	MCNumber *string
	Email    *string
	Phone    *string
}

// Apply mutates the broker and returns the names of changed fields
func (b *Broker) Apply(u BrokerUpdate) ([]string, error) {
	var changed []string
	if u.Name != nil && strings.TrimSpace(*u.Name) != b.Name {
		if strings.TrimSpace(*u.Name) == "" {
			return nil, shared.NewValidationError("Broker name is required")
		}
		b.Name = strings.TrimSpace(*u.Name)
		changed = append(changed, "name")
	}
	if u.MCNumber != nil && *u.MCNumber != b.MCNumber {
		b.MCNumber = *u.MCNumber
		changed = append(changed, "mc_number")
	}
	if u.Email != nil && *u.Email != b.Email {
		b.Email = *u.Email
		changed = append(changed, "email")
	}
	if u.Phone != nil && *u.Phone != b.Phone {
		b.Phone = *u.Phone
		changed = append(changed, "phone")
	}
	if len(changed) > 0 {
		b.IncrementVersion()
	}
	return changed, nil
}

// FactoringCompany buys invoices at a discount
type FactoringCompany struct {
	shared.TenantAggregateRoot
	Name          string
	FeePercentage decimal.Decimal // default fee, 0-100
	Email         string
	Phone         string
}

// NewFactoringCompany creates a new factoring company
func NewFactoringCompany(tenantID uuid.UUID, name string, feePercentage decimal.Decimal) (*FactoringCompany, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("Factoring company name is required")
	}
	if err := validateFee(feePercentage); err != nil {
		return nil, err
	}
	return &FactoringCompany{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		FeePercentage:       feePercentage,
	}, nil
}

func validateFee(fee decimal.Decimal) error {
	if fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("Factoring fee must be between 0 and 100 percent")
	}
	return nil
}

// Clone returns a deep copy
func (f *FactoringCompany) Clone() *FactoringCompany {
	cp := *f
	cp.ClearDomainEvents()
	cp.CreatedBy = shared.CloneID(f.CreatedBy)
	return &cp
}

// FactoringCompanyUpdate is a partial update; nil fields are left untouched
type FactoringCompanyUpdate struct {
	Name          *string
	FeePercentage *decimal.Decimal
	Email         *string
	Phone         *string
}

// Apply mutates the factoring company and returns the names of changed fields
func (f *FactoringCompany) Apply(u FactoringCompanyUpdate) ([]string, error) {
	var changed []string
	if u.Name != nil && strings.TrimSpace(*u.Name) != f.Name {
		if strings.TrimSpace(*u.Name) == "" {
			return nil, shared.NewValidationError("Factoring company name is required")
		}
		f.Name = strings.TrimSpace(*u.Name)
		changed = append(changed, "name")
	}
	if u.FeePercentage != nil && !u.FeePercentage.Equal(f.FeePercentage) {
		if err := validateFee(*u.FeePercentage); err != nil {
			return nil, err
		}
		f.FeePercentage = *u.FeePercentage
		changed = append(changed, "fee_percentage")
	}
	if u.Email != nil && *u.Email != f.Email {
		f.Email = *u.Email
		changed = append(changed, "email")
	}
	if u.Phone != nil && *u.Phone != f.Phone {
		f.Phone = *u.Phone
		changed = append(changed, "phone")
	}
	if len(changed) > 0 {
		f.IncrementVersion()
	}
	return changed, nil
}
