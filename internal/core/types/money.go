// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
// Prices carry 2 fractional digits; intermediate arithmetic keeps full
// precision and rounds only at the final step (see RoundMoney).
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// MoneyFromInt creates a Money value from an integer amount.
func MoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// RoundMoney rounds to currency precision (2 fractional digits).
// Applied once, at the end of a computation chain.
func RoundMoney(m Money) Money {
	return m.Round(2)
}

// LineTotal computes quantity × unitPrice × (1 − discountPercent/100),
// rounded to currency precision only at the final step.
func LineTotal(quantity int64, unitPrice Money, discountPercent Money) Money {
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(decimal.NewFromInt(100)))
	total := decimal.NewFromInt(quantity).Mul(unitPrice).Mul(factor)
	return RoundMoney(total)
}
