package vault

import (
	"errors"

	"riskcore/internal/schema"
)

var (
	ErrNotAuthorized        = errors.New("vault: caller not authorized")
	ErrUtilizationExceeded  = errors.New("vault: utilization ceiling exceeded")
	ErrBreakerPaused        = errors.New("vault: circuit breaker paused")
	ErrInsufficientShares   = errors.New("vault: insufficient shares")
	ErrInvalidAmount        = errors.New("vault: amount must be positive")
	ErrInvalidCeiling       = errors.New("vault: ceiling out of range")
	ErrAllocationUnderflow  = errors.New("vault: release exceeds allocation")
	ErrAdapterNotRegistered = errors.New("vault: adapter not registered")
)

// DefaultUtilizationCeilingBps caps allocation at 70% of custodied assets.
const DefaultUtilizationCeilingBps = 7_000

// Gate blocks allocations while the system-wide breaker is tripped.
type Gate interface {
	Tripped(now int64) bool
}

// Adapter is a registered external execution venue. The vault only hands
// capital to adapters on this registry.
type Adapter interface {
	Name() string
	Execute(action schema.Action) (schema.Amount, error)
}

// Config wires the vault's principals and limits.
type Config struct {
	Controller            schema.Principal
	Settlement            schema.Principal
	Operator              schema.Principal
	UtilizationCeilingBps int64
	Gate                  Gate
}

// Vault custodies pooled capital under a proportional-ownership share
// model and tracks per-right allocation against a utilization ceiling.
type Vault struct {
	cfg Config

	totalAssets    schema.Amount
	totalShares    schema.Amount
	shares         map[schema.Principal]schema.Amount
	totalAllocated schema.Amount
	allocated      map[schema.RightID]schema.Amount
	adapters       map[string]Adapter
}

// New creates an empty vault.
func New(cfg Config) (*Vault, error) {
	if cfg.UtilizationCeilingBps == 0 {
		cfg.UtilizationCeilingBps = DefaultUtilizationCeilingBps
	}
	if cfg.UtilizationCeilingBps < 0 || cfg.UtilizationCeilingBps > schema.BPS {
		return nil, ErrInvalidCeiling
	}
	return &Vault{
		cfg:       cfg,
		shares:    make(map[schema.Principal]schema.Amount),
		allocated: make(map[schema.RightID]schema.Amount),
		adapters:  make(map[string]Adapter),
	}, nil
}

// TotalAssets returns the custodied balance.
func (v *Vault) TotalAssets() schema.Amount {
	return v.totalAssets
}

// TotalAllocated returns the sum of all per-right allocations.
func (v *Vault) TotalAllocated() schema.Amount {
	return v.totalAllocated
}

// Allocation returns the capital currently allocated to a right.
func (v *Vault) Allocation(rightID schema.RightID) schema.Amount {
	return v.allocated[rightID]
}

// UtilizationRate returns allocated/assets in basis points, 0 on an empty
// vault.
func (v *Vault) UtilizationRate() int64 {
	return schema.BpsOf(int64(v.totalAllocated), int64(v.totalAssets))
}

// Deposit adds assets and mints shares proportional to current ownership.
func (v *Vault) Deposit(depositor schema.Principal, amount schema.Amount) (schema.Amount, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	minted := amount
	if v.totalShares > 0 && v.totalAssets > 0 {
		m, err := schema.MulDiv(int64(amount), int64(v.totalShares), int64(v.totalAssets))
		if err != nil {
			return 0, err
		}
		minted = schema.Amount(m)
	}
	v.totalAssets += amount
	v.totalShares += minted
	v.shares[depositor] += minted
	return minted, nil
}

// Withdraw burns shares and pays out the proportional assets. It is
// rejected when the payout would push utilization above the ceiling.
func (v *Vault) Withdraw(depositor schema.Principal, burn schema.Amount) (schema.Amount, error) {
	if burn <= 0 {
		return 0, ErrInvalidAmount
	}
	if v.shares[depositor] < burn || v.totalShares < burn {
		return 0, ErrInsufficientShares
	}
	payout, err := schema.MulDiv(int64(burn), int64(v.totalAssets), int64(v.totalShares))
	if err != nil {
		return 0, err
	}
	remaining := v.totalAssets - schema.Amount(payout)
	if v.totalAllocated > 0 {
		if remaining <= 0 || schema.BpsOf(int64(v.totalAllocated), int64(remaining)) > v.cfg.UtilizationCeilingBps {
			return 0, ErrUtilizationExceeded
		}
	}
	v.shares[depositor] -= burn
	v.totalShares -= burn
	v.totalAssets = remaining
	return schema.Amount(payout), nil
}

// AllocateCapital reserves capital for a right. Controller-only. Fails
// when the breaker is tripped or the resulting utilization exceeds the
// ceiling.
func (v *Vault) AllocateCapital(caller schema.Principal, rightID schema.RightID, amount schema.Amount, now int64) error {
	if caller != v.cfg.Controller {
		return ErrNotAuthorized
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if v.cfg.Gate != nil && v.cfg.Gate.Tripped(now) {
		return ErrBreakerPaused
	}
	next := v.totalAllocated + amount
	if v.totalAssets <= 0 || schema.BpsOf(int64(next), int64(v.totalAssets)) > v.cfg.UtilizationCeilingBps {
		return ErrUtilizationExceeded
	}
	v.totalAllocated = next
	v.allocated[rightID] += amount
	return nil
}

// ReleaseCapital undoes part of an allocation. It exists for rollback of
// a failed execution unit and must match amounts previously allocated;
// for a settled right use ReturnCapital.
func (v *Vault) ReleaseCapital(caller schema.Principal, rightID schema.RightID, amount schema.Amount) error {
	if caller != v.cfg.Controller {
		return ErrNotAuthorized
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if v.allocated[rightID] < amount || v.totalAllocated < amount {
		return ErrAllocationUnderflow
	}
	v.allocated[rightID] -= amount
	if v.allocated[rightID] == 0 {
		delete(v.allocated, rightID)
	}
	v.totalAllocated -= amount
	return nil
}

// ReturnCapital settles a right's allocation back into custody and applies
// its PnL to the pooled balance. This is a one-shot full-exit operation:
// the right's allocation is always fully cleared, even when the returned
// amount is partial. The aggregate never underflows.
func (v *Vault) ReturnCapital(caller schema.Principal, rightID schema.RightID, amount schema.Amount, pnl schema.Notional) error {
	if caller != v.cfg.Controller && caller != v.cfg.Settlement {
		return ErrNotAuthorized
	}
	if amount < 0 {
		return ErrInvalidAmount
	}
	returned := amount
	if returned > v.totalAllocated {
		returned = v.totalAllocated
	}
	v.totalAllocated -= returned
	delete(v.allocated, rightID)

	v.totalAssets += schema.Amount(pnl)
	if v.totalAssets < 0 {
		v.totalAssets = 0
	}
	return nil
}

// EmergencyReturn clears a right's allocation without settlement.
// Operator recovery path.
func (v *Vault) EmergencyReturn(caller schema.Principal, rightID schema.RightID) error {
	if caller != v.cfg.Operator {
		return ErrNotAuthorized
	}
	alloc := v.allocated[rightID]
	if alloc > v.totalAllocated {
		alloc = v.totalAllocated
	}
	v.totalAllocated -= alloc
	delete(v.allocated, rightID)
	return nil
}

// SetUtilizationCeiling replaces the utilization ceiling. Operator-only.
func (v *Vault) SetUtilizationCeiling(caller schema.Principal, bps int64) error {
	if caller != v.cfg.Operator {
		return ErrNotAuthorized
	}
	if bps <= 0 || bps > schema.BPS {
		return ErrInvalidCeiling
	}
	v.cfg.UtilizationCeilingBps = bps
	return nil
}

// RegisterAdapter adds an adapter to the global registry. Operator-only.
func (v *Vault) RegisterAdapter(caller schema.Principal, adapter Adapter) error {
	if caller != v.cfg.Operator {
		return ErrNotAuthorized
	}
	v.adapters[adapter.Name()] = adapter
	return nil
}

// UnregisterAdapter removes an adapter from the registry. Operator-only.
func (v *Vault) UnregisterAdapter(caller schema.Principal, name string) error {
	if caller != v.cfg.Operator {
		return ErrNotAuthorized
	}
	delete(v.adapters, name)
	return nil
}

// AdapterRegistered reports whether an adapter is on the global registry.
func (v *Vault) AdapterRegistered(name string) bool {
	_, ok := v.adapters[name]
	return ok
}

// ExecuteThroughAdapter hands an action to its registered adapter and
// returns the amount the venue produced. Controller-only; an unregistered
// adapter is rejected before any transfer occurs.
func (v *Vault) ExecuteThroughAdapter(caller schema.Principal, action schema.Action) (schema.Amount, error) {
	if caller != v.cfg.Controller {
		return 0, ErrNotAuthorized
	}
	adapter, ok := v.adapters[action.Adapter]
	if !ok {
		return 0, ErrAdapterNotRegistered
	}
	return adapter.Execute(action)
}

// AdapterByName returns a registered adapter.
func (v *Vault) AdapterByName(name string) (Adapter, error) {
	adapter, ok := v.adapters[name]
	if !ok {
		return nil, ErrAdapterNotRegistered
	}
	return adapter, nil
}
