package reputation

import (
	"errors"

	"riskcore/internal/schema"
)

var ErrInvalidTierConfig = errors.New("reputation: invalid tier config")

// Tier is an executor's trust level. It gates maximum capital, required
// stake, and risk level, and is non-decreasing except via downgrade or ban.
type Tier uint8

const (
	TierUnverified Tier = iota
	TierNovice
	TierVerified
	TierEstablished
	TierElite
)

func (t Tier) String() string {
	switch t {
	case TierUnverified:
		return "Unverified"
	case TierNovice:
		return "Novice"
	case TierVerified:
		return "Verified"
	case TierEstablished:
		return "Established"
	case TierElite:
		return "Elite"
	default:
		return "Unknown"
	}
}

// TierConfig fixes a tier's capability ceiling and upgrade thresholds.
type TierConfig struct {
	MaxCapital           schema.Amount
	RequiredStakeBps     int64
	MaxDrawdownBps       int64
	MaxRiskLevel         int64
	UpgradeSettlements   uint64
	UpgradeProfitRateBps int64
	UpgradeVolumeUsd     schema.Notional
}

// DefaultTierTable returns the standard five-tier ladder.
func DefaultTierTable() map[Tier]TierConfig {
	return map[Tier]TierConfig{
		TierUnverified: {
			MaxCapital:           10_000_000_000, // $10k in cents-equivalent units
			RequiredStakeBps:     2_000,
			MaxDrawdownBps:       1_000,
			MaxRiskLevel:         1,
			UpgradeSettlements:   3,
			UpgradeProfitRateBps: 5_000,
			UpgradeVolumeUsd:     5_000_000_000,
		},
		TierNovice: {
			MaxCapital:           50_000_000_000,
			RequiredStakeBps:     1_500,
			MaxDrawdownBps:       1_500,
			MaxRiskLevel:         2,
			UpgradeSettlements:   10,
			UpgradeProfitRateBps: 5_500,
			UpgradeVolumeUsd:     50_000_000_000,
		},
		TierVerified: {
			MaxCapital:           250_000_000_000,
			RequiredStakeBps:     2_500,
			MaxDrawdownBps:       2_000,
			MaxRiskLevel:         3,
			UpgradeSettlements:   25,
			UpgradeProfitRateBps: 6_000,
			UpgradeVolumeUsd:     500_000_000_000,
		},
		TierEstablished: {
			MaxCapital:           1_000_000_000_000,
			RequiredStakeBps:     3_000,
			MaxDrawdownBps:       2_500,
			MaxRiskLevel:         4,
			UpgradeSettlements:   100,
			UpgradeProfitRateBps: 6_500,
			UpgradeVolumeUsd:     5_000_000_000_000,
		},
		TierElite: {
			MaxCapital:       5_000_000_000_000,
			RequiredStakeBps: 1_000,
			MaxDrawdownBps:   3_000,
			MaxRiskLevel:     5,
		},
	}
}

// ValidateTierConfig rejects misconfigured tiers at set time. The stake
// requirement must cover the drawdown allowance for every tier below the
// top one.
func ValidateTierConfig(tier Tier, cfg TierConfig) error {
	if cfg.MaxCapital <= 0 {
		return ErrInvalidTierConfig
	}
	if cfg.RequiredStakeBps < 0 || cfg.RequiredStakeBps > schema.BPS {
		return ErrInvalidTierConfig
	}
	if cfg.MaxDrawdownBps < 0 || cfg.MaxDrawdownBps > schema.BPS {
		return ErrInvalidTierConfig
	}
	if tier != TierElite && cfg.RequiredStakeBps < cfg.MaxDrawdownBps {
		return ErrInvalidTierConfig
	}
	return nil
}
