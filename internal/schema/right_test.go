package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstraintsAssetAllowed(t *testing.T) {
	c := Constraints{AllowedAssets: map[string]bool{"WETH": true}}

	assert.True(t, c.AssetAllowed("WETH"))
	assert.False(t, c.AssetAllowed("WBTC"))
	assert.True(t, c.AssetAllowed(NativeAsset))
	assert.True(t, c.AssetAllowed(""))

	// nil whitelist still passes the native sentinel
	empty := Constraints{}
	assert.True(t, empty.AssetAllowed(NativeAsset))
	assert.False(t, empty.AssetAllowed("WETH"))
}

func TestRightExpired(t *testing.T) {
	r := Right{Expiry: 1_000}
	assert.False(t, r.Expired(999))
	assert.True(t, r.Expired(1_000))
	assert.True(t, r.Expired(1_001))

	// zero expiry means no deadline
	assert.False(t, Right{}.Expired(1_000_000))
}

func TestRightDrawdown(t *testing.T) {
	testCases := []struct {
		desc       string
		realized   Notional
		unrealized Notional
		limit      Amount
		expected   int64
	}{
		{"no pnl", 0, 0, 10_000, 0},
		{"net gain", 500, -200, 10_000, 0},
		{"realized loss", -1_000, 0, 10_000, 1_000},
		{"unrealized loss offsets gain", 500, -1_500, 10_000, 1_000},
		{"full wipeout", -10_000, 0, 10_000, BPS},
		{"zero capital limit", -1_000, 0, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			r := Right{
				CapitalLimit:  tc.limit,
				RealizedPnl:   tc.realized,
				UnrealizedPnl: tc.unrealized,
			}
			assert.Equal(t, tc.expected, r.Drawdown())
		})
	}
}
