package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// AmountScale is the number of fractional digits carried by every money value.
const AmountScale = 2

const (
	maxAmountInput = 32
	// maxExponent bounds the power of ten a parsed amount may carry.
	// Comparing or rounding rescales the coefficient to it.
	maxExponent = 18
)

// MaxAmount is the largest amount accepted from callers. Sums of many such
// amounts still fit in int64 cents.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// ParseAmount converts caller input into a non-negative amount of at most
// MaxAmount with at most AmountScale fractional digits.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxAmountInput {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() || d.GreaterThan(MaxAmount) || !d.Equal(d.Round(AmountScale)) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(AmountScale), nil
}

// ToMinorUnits returns the amount in cents.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(AmountScale).Round(0).IntPart()
}

// FromMinorUnits converts cents back into a decimal amount.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -AmountScale)
}
