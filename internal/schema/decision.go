package schema

// Reason explains why a validation check denied an action.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonBreakerPaused
	ReasonRightNotFound
	ReasonNotHolder
	ReasonRightNotActive
	ReasonRightExpired
	ReasonAdapterNotAllowed
	ReasonAssetNotAllowed
	ReasonCapitalLimit
	ReasonPositionSize
	ReasonDrawdown
	ReasonLeverage
	ReasonExposureLimit
	ReasonUtilization
	ReasonExecutorBanned
	ReasonTierCapital
	ReasonZeroAmount
)

// MaxReason is the highest Reason value, for dense counters.
const MaxReason = ReasonZeroAmount

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonBreakerPaused:
		return "circuit breaker paused"
	case ReasonRightNotFound:
		return "right not found"
	case ReasonNotHolder:
		return "caller is not the holder"
	case ReasonRightNotActive:
		return "right not active"
	case ReasonRightExpired:
		return "right expired"
	case ReasonAdapterNotAllowed:
		return "adapter not allowed"
	case ReasonAssetNotAllowed:
		return "asset not allowed"
	case ReasonCapitalLimit:
		return "capital limit exceeded"
	case ReasonPositionSize:
		return "position size exceeded"
	case ReasonDrawdown:
		return "drawdown exceeded"
	case ReasonLeverage:
		return "leverage exceeded"
	case ReasonExposureLimit:
		return "exposure limit exceeded"
	case ReasonUtilization:
		return "utilization exceeded"
	case ReasonExecutorBanned:
		return "executor banned"
	case ReasonTierCapital:
		return "tier capital ceiling exceeded"
	case ReasonZeroAmount:
		return "amount must be positive"
	default:
		return "unknown"
	}
}

// Decision is the outcome of validating a proposed action.
type Decision struct {
	OK     bool
	Reason Reason
}

// Allow is the passing decision.
func Allow() Decision {
	return Decision{OK: true}
}

// Deny builds a failing decision with a reason.
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}
