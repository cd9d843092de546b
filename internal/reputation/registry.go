package reputation

import (
	"errors"

	"riskcore/internal/schema"
)

var (
	ErrUnknownTier = errors.New("reputation: tier not in table")
	ErrBanned      = errors.New("reputation: executor banned")
)

// downgradeTrigger is the consecutive-loss streak that drops one tier.
const downgradeTrigger = 5

// Record holds one executor's standing and performance counters.
type Record struct {
	Tier                  Tier
	TotalSettlements      uint64
	ProfitableSettlements uint64
	ConsecutiveProfits    uint64
	ConsecutiveLosses     uint64
	TotalVolumeUsd        schema.Notional
	TotalPnlUsd           schema.Notional
	LargestLossBps        int64
	Banned                bool
	Whitelisted           bool
}

// SettlementMeta carries settlement context beyond capital and PnL.
type SettlementMeta struct {
	VolumeUsd schema.Notional
}

// Registry tracks per-executor tiers and settlement statistics.
type Registry struct {
	tiers   map[Tier]TierConfig
	records map[schema.Principal]*Record
}

// NewRegistry creates a registry over a validated tier table.
func NewRegistry(tiers map[Tier]TierConfig) (*Registry, error) {
	if len(tiers) == 0 {
		tiers = DefaultTierTable()
	}
	for tier, cfg := range tiers {
		if err := ValidateTierConfig(tier, cfg); err != nil {
			return nil, err
		}
	}
	return &Registry{
		tiers:   tiers,
		records: make(map[schema.Principal]*Record),
	}, nil
}

func (r *Registry) record(executor schema.Principal) *Record {
	rec, ok := r.records[executor]
	if !ok {
		rec = &Record{Tier: TierUnverified}
		r.records[executor] = rec
	}
	return rec
}

// Record returns a copy of an executor's standing.
func (r *Registry) Record(executor schema.Principal) Record {
	if rec, ok := r.records[executor]; ok {
		return *rec
	}
	return Record{Tier: TierUnverified}
}

// TierConfigFor returns the configuration of an executor's current tier.
func (r *Registry) TierConfigFor(executor schema.Principal) (TierConfig, error) {
	cfg, ok := r.tiers[r.Record(executor).Tier]
	if !ok {
		return TierConfig{}, ErrUnknownTier
	}
	return cfg, nil
}

// Banned reports whether an executor is banned from requesting capital.
func (r *Registry) Banned(executor schema.Principal) bool {
	return r.Record(executor).Banned
}

// MaxCapital returns the executor's tier capital ceiling, zero when banned.
func (r *Registry) MaxCapital(executor schema.Principal) schema.Amount {
	rec := r.Record(executor)
	if rec.Banned {
		return 0
	}
	return r.tiers[rec.Tier].MaxCapital
}

// RecordSettlement updates an executor's counters and streaks from one
// settled right, then evaluates upgrade and downgrade eligibility.
// Zero PnL counts as profitable.
func (r *Registry) RecordSettlement(executor schema.Principal, capitalUsed schema.Amount, pnl schema.Notional, meta SettlementMeta) Record {
	rec := r.record(executor)

	rec.TotalSettlements++
	rec.TotalVolumeUsd += meta.VolumeUsd
	rec.TotalPnlUsd += pnl

	if pnl >= 0 {
		rec.ProfitableSettlements++
		rec.ConsecutiveProfits++
		rec.ConsecutiveLosses = 0
	} else {
		rec.ConsecutiveLosses++
		rec.ConsecutiveProfits = 0
		// Zero capital is defined to contribute zero bps.
		lossBps := schema.BpsOf(int64(-pnl), int64(capitalUsed))
		if lossBps > rec.LargestLossBps {
			rec.LargestLossBps = lossBps
		}
	}

	r.evaluateUpgrade(rec)
	r.evaluateDowngrade(rec)
	return *rec
}

func (r *Registry) evaluateUpgrade(rec *Record) {
	if rec.Banned || rec.Tier >= TierElite {
		return
	}
	// Whitelisted executors at the penultimate tier skip the
	// quantitative gate.
	if rec.Whitelisted && rec.Tier == TierEstablished {
		rec.Tier = TierElite
		return
	}
	current, ok := r.tiers[rec.Tier]
	if !ok {
		return
	}
	if current.UpgradeSettlements == 0 || rec.TotalSettlements < current.UpgradeSettlements {
		return
	}
	profitRate := int64(0)
	if rec.TotalSettlements > 0 {
		profitRate = schema.BpsOf(int64(rec.ProfitableSettlements), int64(rec.TotalSettlements))
	}
	if profitRate < current.UpgradeProfitRateBps {
		return
	}
	if rec.TotalVolumeUsd < current.UpgradeVolumeUsd {
		return
	}
	rec.Tier++
}

// evaluateDowngrade drops exactly one tier on the fifth consecutive loss
// and resets the streak; it never cascades within one settlement.
func (r *Registry) evaluateDowngrade(rec *Record) {
	if rec.ConsecutiveLosses != downgradeTrigger {
		return
	}
	if rec.Tier > TierUnverified {
		rec.Tier--
	}
	rec.ConsecutiveLosses = 0
}

// Ban blocks an executor from requesting capital and resets it to the
// floor tier.
func (r *Registry) Ban(executor schema.Principal) {
	rec := r.record(executor)
	rec.Banned = true
	rec.Tier = TierUnverified
}

// Unban restores an executor; it restarts at the floor tier.
func (r *Registry) Unban(executor schema.Principal) {
	rec := r.record(executor)
	rec.Banned = false
	rec.Tier = TierUnverified
	rec.ConsecutiveLosses = 0
	rec.ConsecutiveProfits = 0
}

// Whitelist marks an executor for the Elite fast path.
func (r *Registry) Whitelist(executor schema.Principal, whitelisted bool) {
	r.record(executor).Whitelisted = whitelisted
}

// SetTierConfig replaces one tier's configuration, validating it first.
func (r *Registry) SetTierConfig(tier Tier, cfg TierConfig) error {
	if err := ValidateTierConfig(tier, cfg); err != nil {
		return err
	}
	r.tiers[tier] = cfg
	return nil
}
