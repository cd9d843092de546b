package schema

// RightStatus tracks the lifecycle of an execution right. Transitions are
// owned by the issuing and settlement authorities, never by the controller.
type RightStatus uint8

const (
	StatusPending RightStatus = iota
	StatusActive
	StatusSettled
	StatusExpired
	StatusLiquidated
)

func (s RightStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusActive:
		return "Active"
	case StatusSettled:
		return "Settled"
	case StatusExpired:
		return "Expired"
	case StatusLiquidated:
		return "Liquidated"
	default:
		return "Unknown"
	}
}

// Constraints bound what an execution right may do.
type Constraints struct {
	MaxLeverage        int64
	MaxDrawdownBps     int64
	MaxPositionSizeBps int64
	AllowedAdapters    map[string]bool
	AllowedAssets      map[string]bool
}

// AdapterAllowed reports whether the right may route through an adapter.
func (c Constraints) AdapterAllowed(adapter string) bool {
	return c.AllowedAdapters[adapter]
}

// AssetAllowed reports whether an asset passes the right's whitelist.
// The native-currency sentinel and an empty asset are always permitted.
func (c Constraints) AssetAllowed(asset string) bool {
	if asset == "" || asset == NativeAsset {
		return true
	}
	return c.AllowedAssets[asset]
}

// Right is the core's read-mostly view of an execution right.
type Right struct {
	ID              RightID
	Holder          Principal
	CapitalLimit    Amount
	Expiry          int64
	Status          RightStatus
	Constraints     Constraints
	CapitalDeployed Amount
	RealizedPnl     Notional
	UnrealizedPnl   Notional
}

// Expired reports whether the right's expiry has passed.
func (r Right) Expired(now int64) bool {
	return r.Expiry > 0 && now >= r.Expiry
}

// Drawdown returns the right's net loss in basis points of its capital
// limit. Positive PnL offsets losses; a net gain is zero drawdown.
func (r Right) Drawdown() int64 {
	net := int64(r.RealizedPnl) + int64(r.UnrealizedPnl)
	if net >= 0 {
		return 0
	}
	return BpsOf(-net, int64(r.CapitalLimit))
}
