package ops

import (
	"encoding/json"
	"fmt"
	"os"

	"riskcore/internal/breaker"
	"riskcore/internal/exposure"
	"riskcore/internal/reputation"
	"riskcore/internal/reserve"
	"riskcore/internal/schema"
	"riskcore/internal/vault"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Principals PrincipalsConfig      `json:"principals"`
	Vault      VaultConfig           `json:"vault"`
	Breaker    BreakerConfig         `json:"breaker"`
	Exposure   ExposureConfig        `json:"exposure"`
	Reserve    ReserveConfig         `json:"reserve"`
	Tiers      map[string]TierConfig `json:"tiers"`
	Oracle     OracleConfig          `json:"oracle"`
	Journal    JournalConfig         `json:"journal"`
	Postgres   PostgresConfig        `json:"postgres"`
	Features   FeatureFlagsConfig    `json:"features"`
}

// PrincipalsConfig names the gated caller identities.
type PrincipalsConfig struct {
	Operator   string `json:"operator"`
	Controller string `json:"controller"`
	Issuer     string `json:"issuer"`
	Settlement string `json:"settlement"`
}

// VaultConfig bounds the capital vault.
type VaultConfig struct {
	UtilizationCeilingBps int64    `json:"utilizationCeilingBps"`
	Adapters              []string `json:"adapters"`
}

// BreakerConfig bounds the circuit breaker.
type BreakerConfig struct {
	MaxDailyLossBps    int64 `json:"maxDailyLossBps"`
	UnpauseCooldownSec int64 `json:"unpauseCooldownSec"`
}

// ExposureConfig bounds per-asset concentration.
type ExposureConfig struct {
	DefaultLimitBps int64            `json:"defaultLimitBps"`
	CustomLimits    map[string]int64 `json:"customLimits"`
}

// ReserveConfig seeds the loss-absorption fund.
type ReserveConfig struct {
	Balance int64 `json:"balance"`
	FeeBps  int64 `json:"feeBps"`
}

// TierConfig describes one reputation tier entry.
type TierConfig struct {
	MaxCapital           int64  `json:"maxCapital"`
	RequiredStakeBps     int64  `json:"requiredStakeBps"`
	MaxDrawdownBps       int64  `json:"maxDrawdownBps"`
	MaxRiskLevel         int64  `json:"maxRiskLevel"`
	UpgradeSettlements   uint64 `json:"upgradeSettlements"`
	UpgradeProfitRateBps int64  `json:"upgradeProfitRateBps"`
	UpgradeVolumeUsd     int64  `json:"upgradeVolumeUsd"`
}

// OracleConfig seeds fixed-point prices per asset.
type OracleConfig struct {
	Prices map[string]int64 `json:"prices"`
}

// JournalConfig configures the audit log, empty dir to disable.
type JournalConfig struct {
	Dir             string `json:"dir"`
	FilePrefix      string `json:"filePrefix"`
	SegmentMaxBytes int64  `json:"segmentMaxBytes"`
}

// PostgresConfig configures optional persistence, empty host to disable.
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// FeatureFlagsConfig captures optional runtime flags.
type FeatureFlagsConfig struct {
	EnableJournal     *bool `json:"enableJournal"`
	EnablePersistence *bool `json:"enablePersistence"`
}

// FeatureFlags are resolved runtime flags.
type FeatureFlags struct {
	EnableJournal     bool
	EnablePersistence bool
}

// Loaded is the resolved configuration ready for wiring.
type Loaded struct {
	Principals PrincipalsConfig
	Vault      VaultConfig
	Breaker    BreakerConfig
	Exposure   ExposureConfig
	Reserve    ReserveConfig
	Tiers      map[reputation.Tier]reputation.TierConfig
	Oracle     map[string]schema.Price
	Journal    JournalConfig
	Postgres   PostgresConfig
	Features   FeatureFlags
}

// Load reads a JSON config file, applies defaults and validates limits.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg)
}

// Default returns the configuration used when no file is given.
func Default() Loaded {
	loaded, _ := resolve(FileConfig{})
	return loaded
}

func resolve(cfg FileConfig) (Loaded, error) {
	principals := cfg.Principals
	if principals.Operator == "" {
		principals.Operator = "operator"
	}
	if principals.Controller == "" {
		principals.Controller = "controller"
	}
	if principals.Issuer == "" {
		principals.Issuer = "issuer"
	}
	if principals.Settlement == "" {
		principals.Settlement = "settlement"
	}

	if cfg.Vault.UtilizationCeilingBps == 0 {
		cfg.Vault.UtilizationCeilingBps = vault.DefaultUtilizationCeilingBps
	}
	if cfg.Vault.UtilizationCeilingBps < 0 || cfg.Vault.UtilizationCeilingBps > schema.BPS {
		return Loaded{}, fmt.Errorf("vault: utilization ceiling out of range: %d", cfg.Vault.UtilizationCeilingBps)
	}

	if cfg.Breaker.MaxDailyLossBps == 0 {
		cfg.Breaker.MaxDailyLossBps = breaker.DefaultMaxDailyLossBps
	}
	if cfg.Breaker.MaxDailyLossBps < 0 || cfg.Breaker.MaxDailyLossBps > schema.BPS {
		return Loaded{}, fmt.Errorf("breaker: daily loss limit out of range: %d", cfg.Breaker.MaxDailyLossBps)
	}
	if cfg.Breaker.UnpauseCooldownSec == 0 {
		cfg.Breaker.UnpauseCooldownSec = breaker.DefaultUnpauseCooldown
	}
	if cfg.Breaker.UnpauseCooldownSec < 0 {
		return Loaded{}, fmt.Errorf("breaker: negative cooldown: %d", cfg.Breaker.UnpauseCooldownSec)
	}

	if cfg.Exposure.DefaultLimitBps == 0 {
		cfg.Exposure.DefaultLimitBps = exposure.DefaultLimitBps
	}
	if cfg.Exposure.DefaultLimitBps < 0 || cfg.Exposure.DefaultLimitBps > schema.BPS {
		return Loaded{}, fmt.Errorf("exposure: default limit out of range: %d", cfg.Exposure.DefaultLimitBps)
	}
	for asset, limit := range cfg.Exposure.CustomLimits {
		if limit < 0 {
			return Loaded{}, fmt.Errorf("exposure: negative limit for %s", asset)
		}
	}

	if cfg.Reserve.FeeBps == 0 {
		cfg.Reserve.FeeBps = reserve.DefaultFeeBps
	}
	if cfg.Reserve.FeeBps < 0 || cfg.Reserve.FeeBps > schema.BPS {
		return Loaded{}, fmt.Errorf("reserve: fee out of range: %d", cfg.Reserve.FeeBps)
	}
	if cfg.Reserve.Balance < 0 {
		return Loaded{}, fmt.Errorf("reserve: negative balance: %d", cfg.Reserve.Balance)
	}

	tiers, err := resolveTiers(cfg.Tiers)
	if err != nil {
		return Loaded{}, err
	}

	prices := make(map[string]schema.Price, len(cfg.Oracle.Prices))
	for asset, price := range cfg.Oracle.Prices {
		if price <= 0 {
			return Loaded{}, fmt.Errorf("oracle: non-positive price for %s", asset)
		}
		prices[asset] = schema.Price(price)
	}

	return Loaded{
		Principals: principals,
		Vault:      cfg.Vault,
		Breaker:    cfg.Breaker,
		Exposure:   cfg.Exposure,
		Reserve:    cfg.Reserve,
		Tiers:      tiers,
		Oracle:     prices,
		Journal:    cfg.Journal,
		Postgres:   cfg.Postgres,
		Features:   resolveFeatures(cfg.Features),
	}, nil
}

var tierNames = map[string]reputation.Tier{
	"unverified":  reputation.TierUnverified,
	"novice":      reputation.TierNovice,
	"verified":    reputation.TierVerified,
	"established": reputation.TierEstablished,
	"elite":       reputation.TierElite,
}

func resolveTiers(entries map[string]TierConfig) (map[reputation.Tier]reputation.TierConfig, error) {
	table := reputation.DefaultTierTable()
	for name, entry := range entries {
		tier, ok := tierNames[name]
		if !ok {
			return nil, fmt.Errorf("reputation: unknown tier: %s", name)
		}
		cfg := reputation.TierConfig{
			MaxCapital:           schema.Amount(entry.MaxCapital),
			RequiredStakeBps:     entry.RequiredStakeBps,
			MaxDrawdownBps:       entry.MaxDrawdownBps,
			MaxRiskLevel:         entry.MaxRiskLevel,
			UpgradeSettlements:   entry.UpgradeSettlements,
			UpgradeProfitRateBps: entry.UpgradeProfitRateBps,
			UpgradeVolumeUsd:     schema.Notional(entry.UpgradeVolumeUsd),
		}
		if err := reputation.ValidateTierConfig(tier, cfg); err != nil {
			return nil, fmt.Errorf("reputation: invalid config for tier %s: %w", name, err)
		}
		table[tier] = cfg
	}
	return table, nil
}

func resolveFeatures(cfg FeatureFlagsConfig) FeatureFlags {
	flags := FeatureFlags{}
	if cfg.EnableJournal != nil {
		flags.EnableJournal = *cfg.EnableJournal
	}
	if cfg.EnablePersistence != nil {
		flags.EnablePersistence = *cfg.EnablePersistence
	}
	return flags
}
