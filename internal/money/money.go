// Package money guards client-supplied decimal amounts.
package money

import (
	"github.com/shopspring/decimal"

	apperrors "pocketledger/internal/errors"
)

// Comparing or rounding two decimals rescales them to a common exponent, so
// an exponent far from zero costs memory and time proportional to its size.
// Amounts are checked against these bounds before any arithmetic.
const (
	MinExponent        = -18
	MaxExponent        = 12
	maxCoefficientBits = 128
	// MaxTextLength caps the raw numeric text accepted for an amount.
	MaxTextLength = 32
)

// CheckRange rejects d when its exponent or coefficient is outside the range
// any real amount needs. The error is INVALID_INPUT on field.
func CheckRange(field string, d decimal.Decimal) error {
	exp := d.Exponent()
	if exp < MinExponent || exp > MaxExponent || d.Coefficient().BitLen() > maxCoefficientBits {
		return apperrors.InvalidField(field, field+" is out of range")
	}
	return nil
}
