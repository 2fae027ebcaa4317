package commission

import (
	"github.com/shopspring/decimal"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Split is the result of dividing an order amount between the vendor and the platform.
type Split struct {
	CommissionAmount decimal.Decimal
	VendorAmount     decimal.Decimal
	PlatformAmount   decimal.Decimal
}

// CalculateSplit computes the commission/vendor/platform split for an order amount
// at the given rate.
//
// The commission amount is rounded half-up to 2 decimal places; the vendor amount
// is derived by subtraction rather than rounded independently, so
// VendorAmount + PlatformAmount == orderAmount holds exactly for every input.
// Note: decimal.Round rounds half away from zero, which is identical to half-up
// for the non-negative amounts accepted here.
func CalculateSplit(orderAmount, rate decimal.Decimal) (Split, error) {
	if orderAmount.LessThanOrEqual(decimal.Zero) {
		return Split{}, shared.NewDomainError("INVALID_AMOUNT", "Order amount must be positive")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return Split{}, shared.NewDomainError("INVALID_RATE", "Commission rate must be between 0 and 1")
	}

	commissionAmount := orderAmount.Mul(rate).Round(2)
	vendorAmount := orderAmount.Sub(commissionAmount)

	return Split{
		CommissionAmount: commissionAmount,
		VendorAmount:     vendorAmount,
		PlatformAmount:   commissionAmount,
	}, nil
}
