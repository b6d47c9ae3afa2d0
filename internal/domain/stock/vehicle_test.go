package stock

import (
	"testing"
	"time"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Vehicle ====================

func TestNewVehicle(t *testing.T) {
	t.Run("normalizes identity fields", func(t *testing.T) {
		v, err := NewVehicle(VehicleAttributes{
			VIN:               " wvwzzz1jzxw000001 ",
			Make:              "Peugeot",
			Model:             "308",
			RegistrationPlate: "ab-123-cd",
			OriginCountry:     "de",
		}, d("12000"))
		require.NoError(t, err)

		assert.Equal(t, "WVWZZZ1JZXW000001", v.VIN)
		assert.Equal(t, "AB-123-CD", v.RegistrationPlate)
		assert.Equal(t, "DE", v.OriginCountry)
		assert.Equal(t, "EUR", v.Currency)
		assert.True(t, v.ExchangeRate.Equal(decimal.NewFromInt(1)))
		assert.Equal(t, VehicleStatusSourcing, v.Status)
		assert.Equal(t, 1, v.Version)
	})

	tests := []struct {
		name  string
		attrs VehicleAttributes
		price string
		field string
	}{
		{"missing make", VehicleAttributes{Model: "308"}, "1000", "make"},
		{"missing model", VehicleAttributes{Make: "Peugeot"}, "1000", "model"},
		{"negative price", VehicleAttributes{Make: "Peugeot", Model: "308"}, "-1", "purchase_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVehicle(tt.attrs, d(tt.price))
			require.Error(t, err)
			assert.True(t, shared.IsValidationError(err))
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestNewTradeInVehicle(t *testing.T) {
	v, err := NewTradeInVehicle(VehicleAttributes{Make: "Renault", Model: "Clio"}, d("4500"))
	require.NoError(t, err)
	assert.Equal(t, VehicleStatusInStock, v.Status)
	assert.True(t, ComputePRU(v).Equal(d("4500")))

	_, err = NewTradeInVehicle(VehicleAttributes{Make: "Renault", Model: "Clio"}, decimal.Zero)
	assert.True(t, shared.IsValidationError(err))
}

func TestVehicleStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from VehicleStatus
		to   VehicleStatus
		want bool
	}{
		{VehicleStatusSourcing, VehicleStatusInStock, true},
		{VehicleStatusSourcing, VehicleStatusSold, false},
		{VehicleStatusInStock, VehicleStatusReserved, true},
		{VehicleStatusInStock, VehicleStatusSold, true},
		{VehicleStatusReserved, VehicleStatusInStock, true},
		{VehicleStatusReserved, VehicleStatusSold, true},
		{VehicleStatusSold, VehicleStatusInStock, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestVehicle_Costs(t *testing.T) {
	t.Run("add sets vehicle id", func(t *testing.T) {
		v := newTestVehicle(t, "1000")
		entry := addCost(t, v, CostCategoryTransport, "100")
		stored, ok := v.CostEntryAt(entry.ID)
		require.True(t, ok)
		assert.Equal(t, v.ID, stored.VehicleID)
	})

	t.Run("remove unknown entry", func(t *testing.T) {
		v := newTestVehicle(t, "1000")
		err := v.RemoveCost(uuid.New())
		require.Error(t, err)
	})

	t.Run("sold vehicle rejects new costs", func(t *testing.T) {
		v := newTestVehicle(t, "1000")
		require.NoError(t, v.TransitionTo(VehicleStatusInStock))
		require.NoError(t, v.TransitionTo(VehicleStatusSold))
		entry, err := NewCostEntry(CostCategoryOther, d("10"), "", "", time.Time{})
		require.NoError(t, err)
		assert.Error(t, v.AddCost(entry))
	})
}

// ==================== CostEntry ====================

func TestNewCostEntry(t *testing.T) {
	t.Run("rejects unknown category", func(t *testing.T) {
		_, err := NewCostEntry(CostCategory("fuel"), d("10"), "", "", time.Time{})
		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := NewCostEntry(CostCategoryParts, d("-10"), "", "", time.Time{})
		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("defaults the incurred date", func(t *testing.T) {
		entry, err := NewCostEntry(CostCategoryParts, d("10"), " brake pads ", "", time.Time{})
		require.NoError(t, err)
		assert.False(t, entry.IncurredOn.IsZero())
		assert.Equal(t, "brake pads", entry.Description)
	})
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"1200.50", "1200.50", false},
		{"1200,50", "1200.50", false},
		{" 350 ", "350", false},
		{"", "", true},
		{"abc", "", true},
		{"12a", "", true},
		{"-5", "", true},
		{"30000.005", "", true},
		{"30000,005", "", true},
		{"30000.500", "30000.5", false},
		{"999999999999.99", "999999999999.99", false},
		{"1000000000000", "", true},
		{"1e20", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount("amount", tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, shared.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tt.want)))
		})
	}
}

func TestParseRate(t *testing.T) {
	rate, err := ParseRate("exchange_rate", "1,084512")
	require.NoError(t, err)
	assert.True(t, rate.Equal(d("1.084512")))

	for _, raw := range []string{"0", "1.0000001", "-1", "2000000", "x"} {
		_, err := ParseRate("exchange_rate", raw)
		assert.True(t, shared.IsValidationError(err), raw)
	}
}

func TestCheckAmountRange(t *testing.T) {
	assert.NoError(t, CheckAmountRange("total", MaxAmount))
	assert.True(t, shared.IsValidationError(CheckAmountRange("total", MaxAmount.Add(d("0.01")))))
}

func TestValidPlate(t *testing.T) {
	tests := []struct {
		plate string
		want  bool
	}{
		{"AB-123-CD", true},
		{"1234 AB 56", true},
		{" gh-456-jk ", true},
		{"M-AB 1234", true},
		{"AB/123", false},
		{"-AB123", false},
		{"A", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.plate, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPlate(tt.plate))
		})
	}
}
