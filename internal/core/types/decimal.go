// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
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

// Sum adds up amounts.
func Sum(amounts ...Money) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// PriceScale is the number of fractional digits stored for prices (NUMERIC(10,2)).
const PriceScale int32 = 2

// MaxPrice is the largest value NUMERIC(10,2) can hold.
var MaxPrice = decimal.RequireFromString("99999999.99")

// ValidPrice reports whether p fits NUMERIC(10,2) and is not negative.
func ValidPrice(p Money) bool {
	return !p.IsNegative() && p.LessThanOrEqual(MaxPrice) && p.Equal(p.Round(PriceScale))
}
