package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	testCases := []struct {
		desc     string
		a, b, d  int64
		expected int64
		wantErr  bool
	}{
		{"simple", 100, 50, 10, 500, false},
		{"bps of amount", 1_000_000, 7_000, BPS, 700_000, false},
		{"truncates toward zero", 10, 3, 4, 7, false},
		{"zero numerator", 0, 12345, 67, 0, false},
		{"intermediate overflows int64", math.MaxInt64, 2, 4, math.MaxInt64 / 2, false},
		{"result overflows", math.MaxInt64, 3, 2, 0, true},
		{"zero denominator", 1, 1, 0, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := MulDiv(tc.a, tc.b, tc.d)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestBpsOf(t *testing.T) {
	assert.Equal(t, int64(5_000), BpsOf(50, 100))
	assert.Equal(t, int64(BPS), BpsOf(100, 100))
	assert.Equal(t, int64(2_500), BpsOf(12_50, 50_00))
	assert.Equal(t, int64(0), BpsOf(0, 100))
	assert.Equal(t, int64(0), BpsOf(-5, 100))
	assert.Equal(t, int64(0), BpsOf(50, 0))
	// overflow of part*BPS saturates rather than wrapping
	assert.Equal(t, int64(math.MaxInt64), BpsOf(math.MaxInt64, 1))
}

func TestApplyBps(t *testing.T) {
	v, err := ApplyBps(100, 7_000)
	require.NoError(t, err)
	assert.Equal(t, int64(70), v)

	v, err = ApplyBps(100, BPS)
	require.NoError(t, err)
	assert.Equal(t, int64(100), v)

	v, err = ApplyBps(0, 5_000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestPriceValue(t *testing.T) {
	// 2 units at $3.50 with 8-decimal price scale
	v, err := PriceValue(2*PricePrecision, Price(350_000_000))
	require.NoError(t, err)
	assert.Equal(t, Notional(700_000_000), v)

	// price feeds at exactly 1.0 are identity
	v, err = PriceValue(123_456, Price(PricePrecision))
	require.NoError(t, err)
	assert.Equal(t, Notional(123_456), v)
}
