// Package money is the single conversion point between major currency
// units (decimal, e.g. 32.50 PLN) and the integer minor units (grosze)
// exchanged with the payment processor.
package money

import "github.com/shopspring/decimal"

var minorFactor = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount to integer minor units,
// rounding half away from zero to the nearest minor unit.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorFactor).Round(0).IntPart()
}

// FromMinorUnits converts integer minor units back to a major-unit amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(minorFactor)
}
