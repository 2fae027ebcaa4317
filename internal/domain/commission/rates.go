package commission

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Default commission rates per type, expressed as fractions of the order amount.
var (
	defaultStandardRate      = decimal.NewFromFloat(0.05)
	defaultPremiumRate       = decimal.NewFromFloat(0.03)
	defaultPromotionalRate   = decimal.NewFromFloat(0.02)
	defaultCategoryBasedRate = decimal.NewFromFloat(0.04)
)

// RateTable resolves the applicable commission rate for a commission type.
// It is built once from configuration at startup and injected into services;
// there is no process-wide mutable rate state.
type RateTable struct {
	rates map[Type]decimal.Decimal
}

// NewRateTable creates a rate table with the built-in default rates
func NewRateTable() *RateTable {
	return &RateTable{
		rates: map[Type]decimal.Decimal{
			TypeStandard:      defaultStandardRate,
			TypePremium:       defaultPremiumRate,
			TypePromotional:   defaultPromotionalRate,
			TypeCategoryBased: defaultCategoryBasedRate,
		},
	}
}

// NewRateTableWithOverrides creates a rate table applying configured overrides
// on top of the defaults. Overrides outside [0,1] are rejected.
func NewRateTableWithOverrides(overrides map[Type]decimal.Decimal) (*RateTable, error) {
	t := NewRateTable()
	for commissionType, rate := range overrides {
		if !commissionType.IsValid() {
			return nil, shared.NewDomainError("INVALID_COMMISSION_TYPE",
				fmt.Sprintf("Unknown commission type %q in rate overrides", commissionType))
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, shared.NewDomainError("INVALID_RATE",
				fmt.Sprintf("Rate override for %s must be between 0 and 1", commissionType))
		}
		t.rates[commissionType] = rate.Round(4)
	}
	return t, nil
}

// Resolve returns the rate for the given commission type
func (t *RateTable) Resolve(commissionType Type) (decimal.Decimal, error) {
	rate, ok := t.rates[commissionType]
	if !ok {
		return decimal.Zero, shared.NewDomainError("INVALID_COMMISSION_TYPE",
			fmt.Sprintf("No rate configured for commission type %q", commissionType))
	}
	return rate, nil
}

// ValidateCalculation recomputes the expected split from the commission's stored
// order amount and rate, and compares it against the stored monetary fields.
// It serves both as a test oracle and as a runtime integrity check before
// state transitions that move money.
func ValidateCalculation(c *Commission) error {
	if c == nil {
		return shared.NewDomainError("INVALID_INPUT", "Commission cannot be nil")
	}

	split, err := CalculateSplit(c.OrderAmount, c.Rate)
	if err != nil {
		return err
	}

	if !c.CommissionAmount.Equal(split.CommissionAmount) {
		return shared.NewDomainError("CALCULATION_MISMATCH",
			fmt.Sprintf("Commission %s amount %s does not match expected %s",
				c.CommissionNumber, c.CommissionAmount, split.CommissionAmount))
	}
	if !c.VendorAmount.Equal(split.VendorAmount) {
		return shared.NewDomainError("CALCULATION_MISMATCH",
			fmt.Sprintf("Commission %s vendor amount %s does not match expected %s",
				c.CommissionNumber, c.VendorAmount, split.VendorAmount))
	}
	if !c.PlatformAmount.Equal(split.PlatformAmount) {
		return shared.NewDomainError("CALCULATION_MISMATCH",
			fmt.Sprintf("Commission %s platform amount %s does not match expected %s",
				c.CommissionNumber, c.PlatformAmount, split.PlatformAmount))
	}
	if !c.VendorAmount.Add(c.PlatformAmount).Equal(c.OrderAmount) {
		return shared.NewDomainError("CALCULATION_MISMATCH",
			fmt.Sprintf("Commission %s split does not balance against order amount %s",
				c.CommissionNumber, c.OrderAmount))
	}

	return nil
}
