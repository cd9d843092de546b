package schema

// Amount is a capital amount in the smallest currency unit.
type Amount int64

// Notional is a USD-denominated value in the smallest currency unit.
type Notional int64

// Price is a fixed-point price scaled by PricePrecision.
type Price int64

// Bps is a ratio in basis points over BPS.
type Bps int64

// Principal identifies a caller on gated entry points.
type Principal string

// RightID identifies an execution right.
type RightID uint64

const (
	// BPS is the basis-point denominator: 10000 = 100%.
	BPS int64 = 10_000

	// PricePrecision is the fixed-point price scale (8 decimals).
	PricePrecision int64 = 100_000_000
)

// NativeAsset is the native-currency sentinel; it bypasses asset whitelists.
const NativeAsset = "NATIVE"
