package fleet

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployee_PaymentProfile(t *testing.T) {
	tenantID := uuid.New()

	t.Run("owner operator derives percentage of split", func(t *testing.T) {
		e, err := NewEmployee(tenantID, "Ana", "Lopez", EmployeeTypeDriver)
		require.NoError(t, err)
		require.NoError(t, e.SetPay(DriverTypeOwnerOperator, decimal.NewFromInt(88), decimal.Zero))

		p := e.PaymentProfile()
		assert.Equal(t, PayKindPercentage, p.Kind)
		assert.True(t, p.Percentage.Equal(decimal.NewFromInt(88)))
	})

	t.Run("company driver derives per mile", func(t *testing.T) {
		e, err := NewEmployee(tenantID, "Bo", "Diaz", EmployeeTypeDriver)
		require.NoError(t, err)
		require.NoError(t, e.SetPay(DriverTypeCompany, decimal.Zero, decimal.RequireFromString("0.60")))

		p := e.PaymentProfile()
		assert.Equal(t, PayKindPerMile, p.Kind)
		assert.Equal(t, "0.6", p.PerMileRate.String())
	})

	t.Run("explicit profile wins", func(t *testing.T) {
		e, err := NewEmployee(tenantID, "Cy", "Ng", EmployeeTypeDriver)
		require.NoError(t, err)
		flat := FlatRateProfile(decimal.NewFromInt(400))
		require.NoError(t, e.SetProfile(&flat))

		assert.Equal(t, PayKindFlatRate, e.PaymentProfile().Kind)
	})
}

func TestEmployee_SetPayValidation(t *testing.T) {
	e, err := NewEmployee(uuid.New(), "Ana", "Lopez", EmployeeTypeDriver)
	require.NoError(t, err)

	assert.Error(t, e.SetPay(DriverTypeOwnerOperator, decimal.NewFromInt(120), decimal.Zero))
	assert.Error(t, e.SetPay(DriverTypeCompany, decimal.Zero, decimal.NewFromInt(-1)))
	assert.Error(t, e.SetPay("contractor", decimal.Zero, decimal.Zero))
}

func TestEmployee_ApplyAndClone(t *testing.T) {
	e, err := NewEmployee(uuid.New(), "Ana", "Lopez", EmployeeTypeDriver)
	require.NoError(t, err)

	clone := e.Clone()
	name := "Maria"
	changed, err := clone.Apply(EmployeeUpdate{FirstName: &name})
	require.NoError(t, err)

	assert.Equal(t, []string{"first_name"}, changed)
	assert.Equal(t, "Ana", e.FirstName)
	assert.Equal(t, "Maria Lopez", clone.FullName())
	assert.Equal(t, 2, clone.Version)
}

func TestNewEmployee_Validation(t *testing.T) {
	_, err := NewEmployee(uuid.New(), " ", "", EmployeeTypeDriver)
	assert.Error(t, err)

	_, err = NewEmployee(uuid.New(), "Ana", "", "mechanic")
	assert.Error(t, err)
}

func TestTruckAndTrailer(t *testing.T) {
	truck, err := NewTruck(uuid.New(), " 101 ")
	require.NoError(t, err)
	assert.Equal(t, "#101", truck.DisplayName())

	status := EquipmentStatusMaintenance
	changed, err := truck.Apply(TruckUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, []string{"status"}, changed)

	_, err = NewTrailer(uuid.New(), "T-9", "tanker")
	assert.Error(t, err)

	trailer, err := NewTrailer(uuid.New(), "T-9", "")
	require.NoError(t, err)
	assert.Equal(t, TrailerTypeDryVan, trailer.Type)
}
