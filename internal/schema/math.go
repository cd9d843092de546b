package schema

import (
	"errors"
	"math"
	"math/bits"
)

var (
	ErrNegativeValue = errors.New("schema: negative value")
	ErrZeroDivisor   = errors.New("schema: zero divisor")
	ErrOverflow      = errors.New("schema: overflow")
)

// MulDiv computes a*b/den with a 128-bit intermediate. Inputs must be
// non-negative and den positive.
func MulDiv(a, b, den int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrNegativeValue
	}
	if den <= 0 {
		return 0, ErrZeroDivisor
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(den) {
		return 0, ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, uint64(den))
	if q > uint64(math.MaxInt64) {
		return 0, ErrOverflow
	}
	return int64(q), nil
}

// BpsOf returns part/whole in basis points, 0 when whole is 0.
func BpsOf(part, whole int64) int64 {
	if whole <= 0 || part <= 0 {
		return 0
	}
	v, err := MulDiv(part, BPS, whole)
	if err != nil {
		return math.MaxInt64
	}
	return v
}

// ApplyBps returns value*bps/BPS.
func ApplyBps(value, bps int64) (int64, error) {
	return MulDiv(value, bps, BPS)
}

// PriceValue converts a size at a fixed-point price into a notional value.
func PriceValue(size int64, price Price) (Notional, error) {
	v, err := MulDiv(size, int64(price), PricePrecision)
	if err != nil {
		return 0, err
	}
	return Notional(v), nil
}
