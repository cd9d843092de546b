package exposure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskcore/internal/schema"
)

func TestRecordExposureAgainstDefaultLimit(t *testing.T) {
	l, err := NewLedger(3_000)
	require.NoError(t, err)

	vault := schema.Amount(1_000_000)
	// default cap is 30% of 1M
	assert.Equal(t, schema.Notional(300_000), l.MaxExposureFor("WETH", vault))

	require.NoError(t, l.RecordExposure("WETH", 200_000, vault))
	assert.Equal(t, schema.Notional(200_000), l.Exposure("WETH"))
	assert.Equal(t, schema.Notional(100_000), l.AvailableExposure("WETH", vault))

	// exactly at the cap is allowed
	require.NoError(t, l.RecordExposure("WETH", 100_000, vault))
	assert.Equal(t, schema.Notional(0), l.AvailableExposure("WETH", vault))

	// one unit past it is not
	err = l.RecordExposure("WETH", 1, vault)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Equal(t, schema.Notional(300_000), l.Exposure("WETH"))
}

func TestRecordExposureIndependentPerAsset(t *testing.T) {
	l, err := NewLedger(3_000)
	require.NoError(t, err)

	vault := schema.Amount(1_000_000)
	require.NoError(t, l.RecordExposure("WETH", 300_000, vault))
	require.NoError(t, l.RecordExposure("WBTC", 300_000, vault))
	assert.Equal(t, schema.Notional(300_000), l.Exposure("WETH"))
	assert.Equal(t, schema.Notional(300_000), l.Exposure("WBTC"))
}

func TestCustomLimitOverridesDefault(t *testing.T) {
	l, err := NewLedger(3_000)
	require.NoError(t, err)

	vault := schema.Amount(1_000_000)
	require.NoError(t, l.SetCustomLimit("TAIL", 50_000))
	assert.Equal(t, schema.Notional(50_000), l.MaxExposureFor("TAIL", vault))

	err = l.RecordExposure("TAIL", 50_001, vault)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	require.NoError(t, l.RecordExposure("TAIL", 50_000, vault))

	// clearing restores the default fraction
	l.ClearCustomLimit("TAIL")
	assert.Equal(t, schema.Notional(300_000), l.MaxExposureFor("TAIL", vault))
}

func TestShrunkLimitClampsAvailable(t *testing.T) {
	l, err := NewLedger(3_000)
	require.NoError(t, err)

	vault := schema.Amount(1_000_000)
	require.NoError(t, l.RecordExposure("WETH", 300_000, vault))

	// vault shrank: prior exposure now exceeds the cap but is not unwound
	shrunk := schema.Amount(500_000)
	assert.Equal(t, schema.Notional(0), l.AvailableExposure("WETH", shrunk))
	assert.ErrorIs(t, l.RecordExposure("WETH", 1, shrunk), ErrLimitExceeded)
	assert.Equal(t, schema.Notional(300_000), l.Exposure("WETH"))
}

func TestRemoveExposureClampsAtZero(t *testing.T) {
	l, err := NewLedger(3_000)
	require.NoError(t, err)

	vault := schema.Amount(1_000_000)
	require.NoError(t, l.RecordExposure("WETH", 100_000, vault))

	l.RemoveExposure("WETH", 40_000)
	assert.Equal(t, schema.Notional(60_000), l.Exposure("WETH"))

	// removing more than recorded zeroes out instead of going negative
	l.RemoveExposure("WETH", 1_000_000)
	assert.Equal(t, schema.Notional(0), l.Exposure("WETH"))

	// no-op on unknown asset
	l.RemoveExposure("WBTC", 10)
	assert.Equal(t, schema.Notional(0), l.Exposure("WBTC"))
}

func TestLedgerRejectsInvalidInputs(t *testing.T) {
	_, err := NewLedger(0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
	_, err = NewLedger(schema.BPS + 1)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	l, err := NewLedger(3_000)
	require.NoError(t, err)

	assert.ErrorIs(t, l.RecordExposure("WETH", 0, 1_000_000), ErrInvalidAmount)
	assert.ErrorIs(t, l.RecordExposure("WETH", -5, 1_000_000), ErrInvalidAmount)
	assert.ErrorIs(t, l.SetCustomLimit("WETH", -1), ErrInvalidLimit)
	assert.ErrorIs(t, l.SetDefaultLimitBps(0), ErrInvalidLimit)

	require.NoError(t, l.SetDefaultLimitBps(1_000))
	assert.Equal(t, schema.Notional(100_000), l.MaxExposureFor("WETH", 1_000_000))
}
