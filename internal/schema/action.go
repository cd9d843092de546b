package schema

// ActionKind is the category of a proposed action.
type ActionKind uint8

const (
	ActionUnknown ActionKind = iota
	ActionSwap
	ActionSupply
	ActionStake
	ActionLeveragedOpen
)

func (k ActionKind) String() string {
	switch k {
	case ActionSwap:
		return "Swap"
	case ActionSupply:
		return "Supply"
	case ActionStake:
		return "Stake"
	case ActionLeveragedOpen:
		return "LeveragedOpen"
	default:
		return "Unknown"
	}
}

// Leveraged reports whether the kind carries a leverage parameter.
func (k ActionKind) Leveraged() bool {
	return k == ActionLeveragedOpen
}

// Action is a proposed capital deployment through an adapter.
type Action struct {
	Kind         ActionKind
	Adapter      string
	TokenIn      string
	TokenOut     string
	AmountIn     Amount
	MinAmountOut Amount
	Leverage     int64
}

// ExposureAsset returns the asset the action commits exposure to: the
// output asset when present, otherwise the input asset.
func (a Action) ExposureAsset() string {
	if a.TokenOut != "" {
		return a.TokenOut
	}
	return a.TokenIn
}
