package payment

import "github.com/shopspring/decimal"

// ToMinorUnits converts amount to the smallest currency unit for the given
// number of decimals, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal, decimals int32) int64 {
	return amount.Shift(decimals).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(minor int64, decimals int32) decimal.Decimal {
	return decimal.New(minor, -decimals)
}

// Tolerance is the largest gap Reconcile leaves between an order total and
// the sum it reports. It is 0.001, capped at half a minor unit, so the cap
// only bites from three decimals on.
func Tolerance(decimals int32) decimal.Decimal {
	base := decimal.New(1, -3)
	half := decimal.New(5, -decimals-1)
	if half.LessThan(base) {
		return half
	}
	return base
}
