package controller

import (
	"github.com/yanun0323/logs"

	"riskcore/internal/breaker"
	"riskcore/internal/exposure"
	"riskcore/internal/oracle"
	"riskcore/internal/reputation"
	"riskcore/internal/reserve"
	"riskcore/internal/schema"
	"riskcore/internal/vault"
)

// Admin is the operator-gated administrative surface over the engine's
// mutable registries and limits. Every mutation is checked against the
// operator principal rather than relying on package visibility.
type Admin struct {
	operator   schema.Principal
	breaker    *breaker.Breaker
	exposure   *exposure.Ledger
	reputation *reputation.Registry
	vault      *vault.Vault
	reserve    *reserve.Fund
	oracle     *oracle.Static
	now        func() int64
}

// AdminConfig wires the components the admin surface manages. Nil
// components disable the corresponding operations.
type AdminConfig struct {
	Operator   schema.Principal
	Breaker    *breaker.Breaker
	Exposure   *exposure.Ledger
	Reputation *reputation.Registry
	Vault      *vault.Vault
	Reserve    *reserve.Fund
	Oracle     *oracle.Static
	Now        func() int64
}

// NewAdmin creates the administrative surface.
func NewAdmin(cfg AdminConfig) *Admin {
	now := cfg.Now
	if now == nil {
		now = defaultNow
	}
	return &Admin{
		operator:   cfg.Operator,
		breaker:    cfg.Breaker,
		exposure:   cfg.Exposure,
		reputation: cfg.Reputation,
		vault:      cfg.Vault,
		reserve:    cfg.Reserve,
		oracle:     cfg.Oracle,
		now:        now,
	}
}

func (a *Admin) gate(caller schema.Principal) error {
	if caller != a.operator {
		return ErrNotAuthorized
	}
	return nil
}

// Pause trips the circuit breaker manually.
func (a *Admin) Pause(caller schema.Principal) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	a.breaker.EmergencyPause(a.now())
	logs.Info("breaker paused by operator")
	return nil
}

// Unpause clears the breaker once its cooldown has elapsed.
func (a *Admin) Unpause(caller schema.Principal) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	if err := a.breaker.ManualUnpause(a.now()); err != nil {
		return err
	}
	logs.Info("breaker unpaused by operator")
	return nil
}

// ForceResetBreaker zeroes the breaker's tracking state.
func (a *Admin) ForceResetBreaker(caller schema.Principal) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	a.breaker.ForceReset(a.now())
	return nil
}

// SetDailyLossLimit replaces the breaker's daily loss threshold.
func (a *Admin) SetDailyLossLimit(caller schema.Principal, bps int64) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	return a.breaker.SetMaxDailyLossBps(bps)
}

// SetUnpauseCooldown replaces the breaker's manual unpause cooldown.
func (a *Admin) SetUnpauseCooldown(caller schema.Principal, seconds int64) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	return a.breaker.SetUnpauseCooldown(seconds)
}

// UpdateBreakerSnapshot rebases the breaker's loss denominator from the
// vault's current custody.
func (a *Admin) UpdateBreakerSnapshot(caller schema.Principal) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	a.breaker.UpdateSnapshot(a.vault.TotalAssets(), a.now())
	return nil
}

// SetAssetLimit overrides the concentration cap for one asset.
func (a *Admin) SetAssetLimit(caller schema.Principal, asset string, limit schema.Notional) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	return a.exposure.SetCustomLimit(asset, limit)
}

// ClearAssetLimit restores the default concentration cap for one asset.
func (a *Admin) ClearAssetLimit(caller schema.Principal, asset string) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	a.exposure.ClearCustomLimit(asset)
	return nil
}

// SetDefaultExposureLimit replaces the default concentration limit.
func (a *Admin) SetDefaultExposureLimit(caller schema.Principal, bps int64) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	return a.exposure.SetDefaultLimitBps(bps)
}

// SetUtilizationCeiling replaces the vault's utilization ceiling.
func (a *Admin) SetUtilizationCeiling(caller schema.Principal, bps int64) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	return a.vault.SetUtilizationCeiling(a.operator, bps)
}

// RegisterAdapter adds an execution venue to the global allow-list.
func (a *Admin) RegisterAdapter(caller schema.Principal, adapter vault.Adapter) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	if err := a.vault.RegisterAdapter(a.operator, adapter); err != nil {
		return err
	}
	logs.Infof("adapter registered: %s", adapter.Name())
	return nil
}

// UnregisterAdapter removes an execution venue from the allow-list.
func (a *Admin) UnregisterAdapter(caller schema.Principal, name string) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	return a.vault.UnregisterAdapter(a.operator, name)
}

// EmergencyReturn clears a right's allocation without settlement.
func (a *Admin) EmergencyReturn(caller schema.Principal, rightID schema.RightID) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	if err := a.vault.EmergencyReturn(a.operator, rightID); err != nil {
		return err
	}
	logs.Infof("emergency capital return for right %d", rightID)
	return nil
}

// Ban blocks an executor from requesting capital.
func (a *Admin) Ban(caller schema.Principal, executor schema.Principal) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	a.reputation.Ban(executor)
	logs.Infof("executor banned: %s", executor)
	return nil
}

// Unban restores a banned executor at the floor tier.
func (a *Admin) Unban(caller schema.Principal, executor schema.Principal) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	a.reputation.Unban(executor)
	return nil
}

// Whitelist toggles an executor's Elite fast path.
func (a *Admin) Whitelist(caller schema.Principal, executor schema.Principal, whitelisted bool) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	a.reputation.Whitelist(executor, whitelisted)
	return nil
}

// SetTierConfig replaces a reputation tier's configuration.
func (a *Admin) SetTierConfig(caller schema.Principal, tier reputation.Tier, cfg reputation.TierConfig) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	return a.reputation.SetTierConfig(tier, cfg)
}

// SetInsuranceFee replaces the reserve's profit fee.
func (a *Admin) SetInsuranceFee(caller schema.Principal, bps int64) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	return a.reserve.SetFeeBps(bps)
}

// SetPrice configures an oracle feed.
func (a *Admin) SetPrice(caller schema.Principal, asset string, price schema.Price) error {
	if err := a.gate(caller); err != nil {
		return err
	}
	a.oracle.SetPrice(asset, price)
	return nil
}
