// Package fixedpoint converts between the integer fixed-point encodings used
// on chain (wad, ray, rad) and decimal values.
package fixedpoint

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	WadPrecision = 18
	RayPrecision = 27
	RadPrecision = 45

	// DivisionPrecision is the number of fractional digits kept by Div.
	DivisionPrecision = 18
)

var (
	One  = decimal.NewFromInt(1)
	Zero = decimal.Zero
)

// Wad returns 10^18 as a new integer.
func Wad() *big.Int { return scale(WadPrecision) }

// Ray returns 10^27 as a new integer.
func Ray() *big.Int { return scale(RayPrecision) }

// Rad returns 10^45 as a new integer.
func Rad() *big.Int { return scale(RadPrecision) }

func scale(precision int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(precision), nil)
}

// FromNumber converts a plain integer to a decimal.
func FromNumber(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// FromWad interprets value as an 18-decimal fixed-point number.
// A nil value is treated as zero.
func FromWad(value *big.Int) decimal.Decimal { return from(value, WadPrecision) }

// FromRay interprets value as a 27-decimal fixed-point number.
func FromRay(value *big.Int) decimal.Decimal { return from(value, RayPrecision) }

// FromRad interprets value as a 45-decimal fixed-point number.
func FromRad(value *big.Int) decimal.Decimal { return from(value, RadPrecision) }

func from(value *big.Int, precision int32) decimal.Decimal {
	if value == nil {
		return Zero
	}
	return decimal.NewFromBigInt(value, -precision)
}

// ToWad encodes value as an 18-decimal integer, truncating extra digits.
func ToWad(value decimal.Decimal) *big.Int { return to(value, WadPrecision) }

// ToRay encodes value as a 27-decimal integer, truncating extra digits.
func ToRay(value decimal.Decimal) *big.Int { return to(value, RayPrecision) }

// ToRad encodes value as a 45-decimal integer, truncating extra digits.
func ToRad(value decimal.Decimal) *big.Int { return to(value, RadPrecision) }

func to(value decimal.Decimal, precision int32) *big.Int {
	return value.Shift(precision).Truncate(0).BigInt()
}

// Div divides a by b keeping DivisionPrecision fractional digits.
// It panics when b is zero; callers own the zero guard.
func Div(a, b decimal.Decimal) decimal.Decimal {
	return a.DivRound(b, DivisionPrecision)
}
