package partner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBroker(t *testing.T) {
	b, err := NewBroker(uuid.New(), "  CH Robinson ", "MC-1234")
	require.NoError(t, err)
	assert.Equal(t, "CH Robinson", b.Name)

	_, err = NewBroker(uuid.New(), "", "")
	assert.Error(t, err)
}

func TestBroker_ApplyLeavesOriginalUntouched(t *testing.T) {
	b, err := NewBroker(uuid.New(), "TQL", "")
	require.NoError(t, err)

	clone := b.Clone()
	name := "Total Quality Logistics"
	changed, err := clone.Apply(BrokerUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, changed)
	assert.Equal(t, "TQL", b.Name)
}

func TestFactoringCompany_FeeValidation(t *testing.T) {
	tests := []struct {
		name    string
		fee     decimal.Decimal
		wantErr bool
	}{
		{"zero", decimal.Zero, false},
		{"typical", decimal.RequireFromString("3.5"), false},
		{"negative", decimal.NewFromInt(-1), true},
		{"over hundred", decimal.NewFromInt(101), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactoringCompany(uuid.New(), "RTS", tt.fee)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
