// Package settle coordinates the settlement of an execution right: it
// returns capital to the vault, feeds the circuit breaker, draws on the
// loss reserve, records the result in the reputation registry, and flips
// the right's status.
package settle

import (
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"riskcore/internal/obs"
	"riskcore/internal/position"
	"riskcore/internal/reputation"
	"riskcore/internal/schema"
)

var (
	ErrNotAuthorized = errors.New("settle: caller not authorized")
	ErrRightNotFound = errors.New("settle: right not found")
	ErrNotSettleable = errors.New("settle: right not in a settleable state")
)

// RightAuthority is the issuing-authority surface settlement consumes.
type RightAuthority interface {
	Right(id schema.RightID) (schema.Right, bool)
	UpdateStatus(caller schema.Principal, id schema.RightID, status schema.RightStatus) error
	MarkLiquidated(caller schema.Principal, id schema.RightID) error
	AddRealizedPnl(caller schema.Principal, id schema.RightID, pnl schema.Notional) error
}

// CapitalVault is the custody surface settlement consumes.
type CapitalVault interface {
	Allocation(rightID schema.RightID) schema.Amount
	ReturnCapital(caller schema.Principal, rightID schema.RightID, amount schema.Amount, pnl schema.Notional) error
}

// LossTracker is the circuit-breaker surface settlement consumes.
type LossTracker interface {
	RecordLoss(amount schema.Amount, now int64) bool
	RecordProfit(amount schema.Amount, now int64)
}

// Reserve is the loss-absorption fund.
type Reserve interface {
	CoverLoss(amount schema.Amount) schema.Amount
	CollectFromProfit(profit schema.Amount) schema.Amount
}

// Reputations records settlement outcomes per executor.
type Reputations interface {
	RecordSettlement(executor schema.Principal, capitalUsed schema.Amount, pnl schema.Notional, meta reputation.SettlementMeta) reputation.Record
}

// Journal records committed settlements, nil to disable.
type Journal interface {
	Record(kind string, payload any) error
}

// Store persists settlement history, nil to disable.
type Store interface {
	SaveSettlement(rightID schema.RightID, executor schema.Principal, capitalUsed schema.Amount, pnl schema.Notional, covered schema.Amount, fee schema.Amount, settledAt time.Time) error
}

// Config wires the coordinator. Journal and Store are optional.
type Config struct {
	Self      schema.Principal
	Authority schema.Principal
	Rights    RightAuthority
	Vault     CapitalVault
	Breaker   LossTracker
	Reserve   Reserve
	Repute    Reputations
	Exposure  ExposureLedger
	Positions PositionCloser
	Journal   Journal
	Store     Store
	Metrics   *obs.Metrics
	Now       func() int64
}

// ExposureLedger unwinds asset exposure on settlement.
type ExposureLedger interface {
	RemoveExposure(asset string, amount schema.Notional)
}

// PositionCloser clears a right's open positions.
type PositionCloser interface {
	CloseAll(rightID schema.RightID) []position.Position
}

// Result summarizes one settlement.
type Result struct {
	RightID     schema.RightID
	Executor    schema.Principal
	CapitalUsed schema.Amount
	Pnl         schema.Notional
	Covered     schema.Amount
	Fee         schema.Amount
}

// Coordinator is the settlement authority's entry point into the core.
type Coordinator struct {
	cfg Config
}

// New creates a settlement coordinator.
func New(cfg Config) *Coordinator {
	if cfg.Now == nil {
		cfg.Now = func() int64 { return time.Now().UTC().Unix() }
	}
	return &Coordinator{cfg: cfg}
}

// Settle closes out a right: positions and exposure are cleared, capital
// returns to the vault with PnL applied, losses draw on the reserve and
// feed the breaker, and the executor's reputation is updated.
func (c *Coordinator) Settle(caller schema.Principal, rightID schema.RightID, pnl schema.Notional, volumeUsd schema.Notional) (Result, error) {
	return c.close(caller, rightID, pnl, volumeUsd, schema.StatusSettled)
}

// Liquidate force-closes a right, marking it liquidated.
func (c *Coordinator) Liquidate(caller schema.Principal, rightID schema.RightID, pnl schema.Notional, volumeUsd schema.Notional) (Result, error) {
	return c.close(caller, rightID, pnl, volumeUsd, schema.StatusLiquidated)
}

func (c *Coordinator) close(caller schema.Principal, rightID schema.RightID, pnl schema.Notional, volumeUsd schema.Notional, final schema.RightStatus) (Result, error) {
	start := time.Now()
	defer func() {
		if m := c.cfg.Metrics; m != nil {
			m.ObserveSettle(time.Since(start))
		}
	}()
	if caller != c.cfg.Authority {
		return Result{}, ErrNotAuthorized
	}
	right, ok := c.cfg.Rights.Right(rightID)
	if !ok {
		return Result{}, ErrRightNotFound
	}
	switch right.Status {
	case schema.StatusActive, schema.StatusExpired:
	default:
		return Result{}, ErrNotSettleable
	}

	now := c.cfg.Now()
	capitalUsed := c.cfg.Vault.Allocation(rightID)

	for _, p := range c.cfg.Positions.CloseAll(rightID) {
		c.cfg.Exposure.RemoveExposure(p.Asset, p.EntryValueUsd)
	}

	result := Result{
		RightID:     rightID,
		Executor:    right.Holder,
		CapitalUsed: capitalUsed,
		Pnl:         pnl,
	}
	if pnl < 0 {
		loss := schema.Amount(-pnl)
		result.Covered = c.cfg.Reserve.CoverLoss(loss)
		if c.cfg.Breaker.RecordLoss(loss, now) {
			logs.Infof("daily loss breaker tripped after right %d settled", rightID)
		}
	} else if pnl > 0 {
		result.Fee = c.cfg.Reserve.CollectFromProfit(schema.Amount(pnl))
		c.cfg.Breaker.RecordProfit(schema.Amount(pnl), now)
	}

	// Reserve coverage offsets the pool's realized loss; the insurance
	// fee comes out of the pool's realized profit.
	poolPnl := pnl + schema.Notional(result.Covered) - schema.Notional(result.Fee)
	if err := c.cfg.Vault.ReturnCapital(c.cfg.Self, rightID, capitalUsed, poolPnl); err != nil {
		return Result{}, errors.Wrap(err, "return capital")
	}

	if err := c.cfg.Rights.AddRealizedPnl(c.cfg.Self, rightID, pnl); err != nil {
		return Result{}, errors.Wrap(err, "record realized pnl")
	}
	var err error
	if final == schema.StatusLiquidated {
		err = c.cfg.Rights.MarkLiquidated(c.cfg.Self, rightID)
	} else {
		err = c.cfg.Rights.UpdateStatus(c.cfg.Self, rightID, final)
	}
	if err != nil {
		return Result{}, errors.Wrap(err, "update right status")
	}

	c.cfg.Repute.RecordSettlement(right.Holder, capitalUsed, pnl, reputation.SettlementMeta{VolumeUsd: volumeUsd})

	c.journal(result, final, now)
	c.persist(result, now)
	return result, nil
}

type settlementEntry struct {
	RightID  schema.RightID   `json:"rightId"`
	Executor schema.Principal `json:"executor"`
	Capital  schema.Amount    `json:"capital"`
	Pnl      schema.Notional  `json:"pnl"`
	Covered  schema.Amount    `json:"covered"`
	Fee      schema.Amount    `json:"fee"`
	Final    string           `json:"final"`
	Ts       int64            `json:"ts"`
}

func (c *Coordinator) journal(result Result, final schema.RightStatus, now int64) {
	if c.cfg.Journal == nil {
		return
	}
	_ = c.cfg.Journal.Record("settlement", settlementEntry{
		RightID:  result.RightID,
		Executor: result.Executor,
		Capital:  result.CapitalUsed,
		Pnl:      result.Pnl,
		Covered:  result.Covered,
		Fee:      result.Fee,
		Final:    final.String(),
		Ts:       now,
	})
}

func (c *Coordinator) persist(result Result, now int64) {
	if c.cfg.Store == nil {
		return
	}
	err := c.cfg.Store.SaveSettlement(result.RightID, result.Executor, result.CapitalUsed, result.Pnl, result.Covered, result.Fee, time.Unix(now, 0).UTC())
	if err != nil {
		logs.Errorf("persist settlement for right %d, err: %+v", result.RightID, err)
	}
}
