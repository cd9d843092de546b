package exposure

import (
	"errors"

	"riskcore/internal/schema"
)

var (
	ErrLimitExceeded = errors.New("exposure: asset limit exceeded")
	ErrInvalidLimit  = errors.New("exposure: limit out of range")
	ErrInvalidAmount = errors.New("exposure: amount must be positive")
)

// DefaultLimitBps caps a single asset at 30% of vault assets.
const DefaultLimitBps = 3_000

// Ledger tracks aggregate USD notional committed per asset across all
// rights. Growth beyond the concentration limit is rejected; existing
// exposure is never forcibly unwound.
type Ledger struct {
	defaultLimitBps int64
	exposure        map[string]schema.Notional
	customLimits    map[string]schema.Notional
}

// NewLedger creates a ledger with the given default concentration limit.
func NewLedger(defaultLimitBps int64) (*Ledger, error) {
	if defaultLimitBps <= 0 || defaultLimitBps > schema.BPS {
		return nil, ErrInvalidLimit
	}
	return &Ledger{
		defaultLimitBps: defaultLimitBps,
		exposure:        make(map[string]schema.Notional),
		customLimits:    make(map[string]schema.Notional),
	}, nil
}

// Exposure returns the aggregate notional committed to an asset.
func (l *Ledger) Exposure(asset string) schema.Notional {
	return l.exposure[asset]
}

// MaxExposureFor returns the concentration cap for an asset: the custom
// limit when set, otherwise the default fraction of the vault total.
func (l *Ledger) MaxExposureFor(asset string, totalVaultAssets schema.Amount) schema.Notional {
	if limit, ok := l.customLimits[asset]; ok {
		return limit
	}
	v, err := schema.ApplyBps(int64(totalVaultAssets), l.defaultLimitBps)
	if err != nil {
		return 0
	}
	return schema.Notional(v)
}

// AvailableExposure returns the remaining headroom for an asset, clamped
// at zero when prior exposure already exceeds a shrunk limit.
func (l *Ledger) AvailableExposure(asset string, totalVaultAssets schema.Amount) schema.Notional {
	limit := l.MaxExposureFor(asset, totalVaultAssets)
	current := l.exposure[asset]
	if current >= limit {
		return 0
	}
	return limit - current
}

// RecordExposure adds notional to an asset, rejecting growth past the cap.
func (l *Ledger) RecordExposure(asset string, amount schema.Notional, totalVaultAssets schema.Amount) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	next := l.exposure[asset] + amount
	if next > l.MaxExposureFor(asset, totalVaultAssets) {
		return ErrLimitExceeded
	}
	l.exposure[asset] = next
	return nil
}

// RemoveExposure subtracts notional from an asset, clamped at zero.
func (l *Ledger) RemoveExposure(asset string, amount schema.Notional) {
	if amount <= 0 {
		return
	}
	current := l.exposure[asset]
	if amount >= current {
		delete(l.exposure, asset)
		return
	}
	l.exposure[asset] = current - amount
}

// SetCustomLimit overrides the default concentration cap for an asset.
func (l *Ledger) SetCustomLimit(asset string, limit schema.Notional) error {
	if limit < 0 {
		return ErrInvalidLimit
	}
	l.customLimits[asset] = limit
	return nil
}

// ClearCustomLimit restores the default cap for an asset.
func (l *Ledger) ClearCustomLimit(asset string) {
	delete(l.customLimits, asset)
}

// SetDefaultLimitBps replaces the default concentration limit.
func (l *Ledger) SetDefaultLimitBps(bps int64) error {
	if bps <= 0 || bps > schema.BPS {
		return ErrInvalidLimit
	}
	l.defaultLimitBps = bps
	return nil
}
