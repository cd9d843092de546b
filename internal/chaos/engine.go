// Package chaos drives randomized right/action/settlement traffic through
// a self-contained engine stack. It exists to shake out invariant
// violations: capital conservation, exposure bookkeeping, and breaker
// behavior under adversarial PnL streams.
package chaos

import (
	"fmt"
	"math/rand"
	"time"

	"riskcore/internal/breaker"
	"riskcore/internal/controller"
	"riskcore/internal/exposure"
	"riskcore/internal/position"
	"riskcore/internal/reputation"
	"riskcore/internal/reserve"
	"riskcore/internal/rights"
	"riskcore/internal/schema"
	"riskcore/internal/settle"
	"riskcore/internal/vault"
)

// Config controls the generated traffic.
type Config struct {
	Seed            int64
	Deposit         int64
	Rights          int
	ActionsPerRight int
	MaxActionAmount int64
	LossRate        float64
	ReserveBalance  int64
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.Deposit <= 0 {
		return fmt.Errorf("deposit must be positive")
	}
	if c.Rights <= 0 || c.ActionsPerRight <= 0 {
		return fmt.Errorf("rights and actionsPerRight must be positive")
	}
	if c.MaxActionAmount <= 0 {
		return fmt.Errorf("maxActionAmount must be positive")
	}
	if c.LossRate < 0 || c.LossRate > 1 {
		return fmt.Errorf("lossRate must be between 0 and 1")
	}
	return nil
}

// Report summarizes one chaos run.
type Report struct {
	Seed          int64
	Executed      int
	Denied        int
	Settled       int
	Liquidated    int
	BreakerTrips  int
	FinalAssets   schema.Amount
	FinalReserve  schema.Amount
	OpenAllocated schema.Amount
}

const (
	operatorP   = schema.Principal("operator")
	controllerP = schema.Principal("controller")
	issuerP     = schema.Principal("issuer")
	settlementP = schema.Principal("settlement")
)

type passAdapter struct{}

func (passAdapter) Name() string { return "sim" }

func (passAdapter) Execute(action schema.Action) (schema.Amount, error) {
	return action.AmountIn, nil
}

// Run builds a fresh engine stack and pushes randomized traffic through
// the full execute/settle cycle.
func Run(cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	now := time.Now().UTC().Unix()

	brk, err := breaker.New(breaker.Config{SnapshotTotalAssets: schema.Amount(cfg.Deposit)}, now)
	if err != nil {
		return Report{}, err
	}
	exp, err := exposure.NewLedger(exposure.DefaultLimitBps)
	if err != nil {
		return Report{}, err
	}
	rep, err := reputation.NewRegistry(nil)
	if err != nil {
		return Report{}, err
	}
	fund, err := reserve.NewFund(schema.Amount(cfg.ReserveBalance), reserve.DefaultFeeBps)
	if err != nil {
		return Report{}, err
	}
	vlt, err := vault.New(vault.Config{
		Controller: controllerP,
		Settlement: settlementP,
		Operator:   operatorP,
		Gate:       brk,
	})
	if err != nil {
		return Report{}, err
	}
	if _, err := vlt.Deposit("chaos-lp", schema.Amount(cfg.Deposit)); err != nil {
		return Report{}, err
	}
	if err := vlt.RegisterAdapter(operatorP, passAdapter{}); err != nil {
		return Report{}, err
	}

	authority := rights.New(rights.Config{
		Issuer:     issuerP,
		Settlement: settlementP,
		Controller: controllerP,
	})
	positions := position.NewLedger()

	ctrl := controller.New(controller.Config{
		Self:       controllerP,
		Operator:   operatorP,
		Rights:     authority,
		Vault:      vlt,
		Exposure:   exp,
		Positions:  positions,
		Gate:       brk,
		Reputation: rep,
		Now:        func() int64 { return now },
	})
	coordinator := settle.New(settle.Config{
		Self:      settlementP,
		Authority: settlementP,
		Rights:    authority,
		Vault:     vlt,
		Breaker:   brk,
		Reserve:   fund,
		Repute:    rep,
		Exposure:  exp,
		Positions: positions,
		Now:       func() int64 { return now },
	})

	assets := []string{"WETH", "WBTC", "USDC", "ARB"}
	allowed := make(map[string]bool, len(assets))
	for _, a := range assets {
		allowed[a] = true
	}

	report := Report{Seed: cfg.Seed}
	for i := 0; i < cfg.Rights; i++ {
		executor := schema.Principal(fmt.Sprintf("executor-%03d", i%7))
		capital := schema.Amount(1 + rng.Int63n(cfg.Deposit/2+1))
		rightID, err := authority.Issue(issuerP, executor, capital, now+86_400, schema.Constraints{
			MaxLeverage:        1 + rng.Int63n(5),
			MaxDrawdownBps:     500 + rng.Int63n(2_500),
			MaxPositionSizeBps: 1_000 + rng.Int63n(9_000),
			AllowedAdapters:    map[string]bool{"sim": true},
			AllowedAssets:      allowed,
		})
		if err != nil {
			return report, err
		}
		if err := authority.Activate(issuerP, rightID); err != nil {
			return report, err
		}

		for n := 0; n < cfg.ActionsPerRight; n++ {
			action := schema.Action{
				Kind:     schema.ActionSwap,
				Adapter:  "sim",
				TokenIn:  "USDC",
				TokenOut: assets[rng.Intn(len(assets))],
				AmountIn: schema.Amount(1 + rng.Int63n(cfg.MaxActionAmount)),
			}
			if err := ctrl.Execute(executor, rightID, action); err != nil {
				report.Denied++
				continue
			}
			report.Executed++
		}

		used := vlt.Allocation(rightID)
		var pnl schema.Notional
		if used > 0 {
			magnitude := rng.Int63n(int64(used)/2 + 1)
			if rng.Float64() < cfg.LossRate {
				pnl = schema.Notional(-magnitude)
			} else {
				pnl = schema.Notional(magnitude)
			}
		}

		wasTripped := brk.Tripped(now)
		if pnl < 0 && rng.Float64() < 0.2 {
			if _, err := coordinator.Liquidate(settlementP, rightID, pnl, schema.Notional(used)); err != nil {
				return report, err
			}
			report.Liquidated++
		} else {
			if _, err := coordinator.Settle(settlementP, rightID, pnl, schema.Notional(used)); err != nil {
				return report, err
			}
			report.Settled++
		}
		if !wasTripped && brk.Tripped(now) {
			report.BreakerTrips++
			brk.ForceReset(now)
		}
	}

	report.FinalAssets = vlt.TotalAssets()
	report.FinalReserve = fund.Balance()
	report.OpenAllocated = vlt.TotalAllocated()
	return report, nil
}
