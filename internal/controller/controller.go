package controller

import (
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"riskcore/internal/obs"
	"riskcore/internal/position"
	"riskcore/internal/schema"
)

var (
	ErrBreakerPaused        = errors.New("controller: circuit breaker paused")
	ErrRightNotFound        = errors.New("controller: right not found")
	ErrNotHolder            = errors.New("controller: caller is not the holder")
	ErrRightNotActive       = errors.New("controller: right not active")
	ErrRightExpired         = errors.New("controller: right expired")
	ErrAdapterNotAllowed    = errors.New("controller: adapter not allowed")
	ErrAssetNotAllowed      = errors.New("controller: asset not allowed")
	ErrCapitalLimitExceeded = errors.New("controller: capital limit exceeded")
	ErrPositionSizeExceeded = errors.New("controller: position size exceeded")
	ErrDrawdownExceeded     = errors.New("controller: drawdown exceeded")
	ErrLeverageExceeded     = errors.New("controller: leverage exceeded")
	ErrExecutorBanned       = errors.New("controller: executor banned")
	ErrTierCapitalExceeded  = errors.New("controller: tier capital ceiling exceeded")
	ErrNotAuthorized        = errors.New("controller: caller not authorized")
	ErrEmptyBatch           = errors.New("controller: empty batch")
	ErrZeroAmount           = errors.New("controller: amount must be positive")
)

// RightSource is the issuing authority surface the controller consumes.
type RightSource interface {
	Right(id schema.RightID) (schema.Right, bool)
	RecordDeployment(caller schema.Principal, id schema.RightID, delta schema.Amount) error
}

// CapitalVault is the custody surface the controller consumes.
type CapitalVault interface {
	TotalAssets() schema.Amount
	AdapterRegistered(name string) bool
	AllocateCapital(caller schema.Principal, rightID schema.RightID, amount schema.Amount, now int64) error
	ReleaseCapital(caller schema.Principal, rightID schema.RightID, amount schema.Amount) error
	ExecuteThroughAdapter(caller schema.Principal, action schema.Action) (schema.Amount, error)
}

// ExposureLedger is the concentration-limit surface the controller consumes.
type ExposureLedger interface {
	RecordExposure(asset string, amount schema.Notional, totalVaultAssets schema.Amount) error
	RemoveExposure(asset string, amount schema.Notional)
}

// Gate blocks the pipeline while the system-wide breaker is tripped.
type Gate interface {
	Tripped(now int64) bool
}

// PositionBook records the positions executions open.
type PositionBook interface {
	Record(p position.Position) (string, error)
	Close(id string) (position.Position, error)
}

// PriceSource values deployed capital in USD.
type PriceSource interface {
	Price(asset string) (schema.Price, bool)
}

// Reputations gates capital requests by executor standing.
type Reputations interface {
	Banned(executor schema.Principal) bool
	MaxCapital(executor schema.Principal) schema.Amount
}

// Journal records committed mutations, nil to disable.
type Journal interface {
	Record(kind string, payload any) error
}

// ActionStore persists committed actions, nil to disable. It runs on the
// commit path after the unit succeeded, so a failed write never unwinds
// the execution.
type ActionStore interface {
	SaveAction(rightID schema.RightID, kind, adapter, asset, positionID string, amountIn schema.Amount, notional schema.Notional, executedAt time.Time) error
}

// Config wires the controller's collaborators. Gate, Reputation, Oracle,
// Journal and Metrics are optional.
type Config struct {
	Self       schema.Principal
	Operator   schema.Principal
	Rights     RightSource
	Vault      CapitalVault
	Exposure   ExposureLedger
	Positions  PositionBook
	Gate       Gate
	Reputation Reputations
	Oracle     PriceSource
	Journal    Journal
	Store      ActionStore
	Metrics    *obs.Metrics
	Now        func() int64
}

// Controller validates every proposed action against the right's
// constraints and the pool-wide limits, then records capital movement and
// open positions as one indivisible unit of work.
type Controller struct {
	cfg Config
}

// New creates a controller.
func New(cfg Config) *Controller {
	if cfg.Now == nil {
		cfg.Now = defaultNow
	}
	return &Controller{cfg: cfg}
}

func defaultNow() int64 {
	return time.Now().UTC().Unix()
}

// Validate runs the full validation pipeline without side effects. It is
// advisory only: the authoritative checks re-run inside Execute.
func (c *Controller) Validate(caller schema.Principal, rightID schema.RightID, action schema.Action) schema.Decision {
	start := time.Now()
	decision := c.check(caller, rightID, action, c.cfg.Now())
	if m := c.cfg.Metrics; m != nil {
		m.ObserveValidate(time.Since(start))
		m.IncReason(decision.Reason)
	}
	return decision
}

// check is the fixed-order pipeline; it short-circuits on first failure.
func (c *Controller) check(caller schema.Principal, rightID schema.RightID, action schema.Action, now int64) schema.Decision {
	if c.cfg.Gate != nil && c.cfg.Gate.Tripped(now) {
		return schema.Deny(schema.ReasonBreakerPaused)
	}

	right, ok := c.cfg.Rights.Right(rightID)
	if !ok {
		return schema.Deny(schema.ReasonRightNotFound)
	}
	if caller != right.Holder {
		return schema.Deny(schema.ReasonNotHolder)
	}
	// Status wins over expiry: an expired-but-reported-Active right fails
	// as "not active", keeping a single canonical failure mode.
	if right.Status != schema.StatusActive {
		return schema.Deny(schema.ReasonRightNotActive)
	}
	if right.Expired(now) {
		return schema.Deny(schema.ReasonRightExpired)
	}

	if !right.Constraints.AdapterAllowed(action.Adapter) || !c.cfg.Vault.AdapterRegistered(action.Adapter) {
		return schema.Deny(schema.ReasonAdapterNotAllowed)
	}

	if !right.Constraints.AssetAllowed(action.TokenIn) || !right.Constraints.AssetAllowed(action.TokenOut) {
		return schema.Deny(schema.ReasonAssetNotAllowed)
	}

	if action.AmountIn <= 0 {
		return schema.Deny(schema.ReasonZeroAmount)
	}

	if action.AmountIn+right.CapitalDeployed > right.CapitalLimit {
		return schema.Deny(schema.ReasonCapitalLimit)
	}

	if right.Constraints.MaxPositionSizeBps > 0 {
		if schema.BpsOf(int64(action.AmountIn), int64(right.CapitalLimit)) > right.Constraints.MaxPositionSizeBps {
			return schema.Deny(schema.ReasonPositionSize)
		}
	}

	if right.Drawdown() > right.Constraints.MaxDrawdownBps {
		return schema.Deny(schema.ReasonDrawdown)
	}

	if action.Kind.Leveraged() && action.Leverage > right.Constraints.MaxLeverage {
		return schema.Deny(schema.ReasonLeverage)
	}

	return schema.Allow()
}

// Execute validates and applies one action atomically.
func (c *Controller) Execute(caller schema.Principal, rightID schema.RightID, action schema.Action) error {
	start := time.Now()
	u := &unit{}
	err := c.apply(caller, rightID, action, u)
	if err != nil {
		u.rollback()
	} else {
		u.commit()
	}
	if m := c.cfg.Metrics; m != nil {
		m.ObserveExecute(time.Since(start))
		m.IncAction(action.Kind, err == nil)
	}
	return err
}

// ExecuteBatch applies a sequence of actions as one unit: a failure
// anywhere rolls back the entire batch.
func (c *Controller) ExecuteBatch(caller schema.Principal, rightID schema.RightID, actions []schema.Action) error {
	if len(actions) == 0 {
		return ErrEmptyBatch
	}
	start := time.Now()
	u := &unit{}
	var err error
	attempted := 0
	for _, action := range actions {
		attempted++
		if err = c.apply(caller, rightID, action, u); err != nil {
			u.rollback()
			break
		}
	}
	if err == nil {
		u.commit()
	}
	if m := c.cfg.Metrics; m != nil {
		m.ObserveExecute(time.Since(start))
		for _, action := range actions[:attempted] {
			m.IncAction(action.Kind, err == nil)
		}
	}
	return err
}

// apply re-runs the validation pipeline, then mutates vault, exposure,
// positions and the right's deployment counter, pushing an undo for every
// committed step onto the unit.
func (c *Controller) apply(caller schema.Principal, rightID schema.RightID, action schema.Action, u *unit) error {
	now := c.cfg.Now()
	if decision := c.check(caller, rightID, action, now); !decision.OK {
		if m := c.cfg.Metrics; m != nil {
			m.IncReason(decision.Reason)
		}
		return denyError(decision.Reason)
	}

	right, _ := c.cfg.Rights.Right(rightID)
	if rep := c.cfg.Reputation; rep != nil {
		if rep.Banned(right.Holder) {
			if m := c.cfg.Metrics; m != nil {
				m.IncReason(schema.ReasonExecutorBanned)
			}
			return ErrExecutorBanned
		}
		if ceiling := rep.MaxCapital(right.Holder); ceiling > 0 && right.CapitalDeployed+action.AmountIn > ceiling {
			if m := c.cfg.Metrics; m != nil {
				m.IncReason(schema.ReasonTierCapital)
			}
			return ErrTierCapitalExceeded
		}
	}

	notional := c.notionalOf(action.TokenIn, action.AmountIn)
	asset := action.ExposureAsset()

	if err := c.cfg.Exposure.RecordExposure(asset, notional, c.cfg.Vault.TotalAssets()); err != nil {
		if m := c.cfg.Metrics; m != nil {
			m.IncReason(schema.ReasonExposureLimit)
		}
		return errors.Wrap(err, "record exposure")
	}
	u.push(func() { c.cfg.Exposure.RemoveExposure(asset, notional) })

	if err := c.cfg.Vault.AllocateCapital(c.cfg.Self, rightID, action.AmountIn, now); err != nil {
		if m := c.cfg.Metrics; m != nil {
			m.IncReason(schema.ReasonUtilization)
		}
		return errors.Wrap(err, "allocate capital")
	}
	u.push(func() { _ = c.cfg.Vault.ReleaseCapital(c.cfg.Self, rightID, action.AmountIn) })

	amountOut, err := c.cfg.Vault.ExecuteThroughAdapter(c.cfg.Self, action)
	if err != nil {
		return errors.Wrap(err, "adapter execute")
	}

	size := int64(amountOut)
	if size <= 0 {
		size = int64(action.AmountIn)
	}
	positionID, err := c.cfg.Positions.Record(position.Position{
		RightID:       rightID,
		Adapter:       action.Adapter,
		Asset:         asset,
		Size:          size,
		EntryValueUsd: notional,
		Kind:          positionKind(action.Kind),
		Timestamp:     now,
	})
	if err != nil {
		return errors.Wrap(err, "record position")
	}
	u.push(func() { _, _ = c.cfg.Positions.Close(positionID) })

	if err := c.cfg.Rights.RecordDeployment(c.cfg.Self, rightID, action.AmountIn); err != nil {
		return errors.Wrap(err, "record deployment")
	}
	u.push(func() { _ = c.cfg.Rights.RecordDeployment(c.cfg.Self, rightID, -action.AmountIn) })

	u.after(func() {
		c.journalAction(rightID, action, positionID, notional, now)
		c.persistAction(rightID, action, positionID, asset, notional, now)
	})
	return nil
}

func (c *Controller) persistAction(rightID schema.RightID, action schema.Action, positionID, asset string, notional schema.Notional, now int64) {
	if c.cfg.Store == nil {
		return
	}
	err := c.cfg.Store.SaveAction(rightID, action.Kind.String(), action.Adapter, asset, positionID,
		action.AmountIn, notional, time.Unix(now, 0).UTC())
	if err != nil {
		logs.Errorf("persist action for right %d, err: %+v", rightID, err)
	}
}

// notionalOf values an amount of an asset in USD through the oracle,
// falling back to the raw amount when no feed is configured.
func (c *Controller) notionalOf(asset string, amount schema.Amount) schema.Notional {
	if c.cfg.Oracle != nil {
		if price, ok := c.cfg.Oracle.Price(asset); ok {
			if v, err := schema.PriceValue(int64(amount), price); err == nil {
				return v
			}
		}
	}
	return schema.Notional(amount)
}

func positionKind(kind schema.ActionKind) position.Kind {
	switch kind {
	case schema.ActionSupply:
		return position.KindSupply
	case schema.ActionStake:
		return position.KindStake
	case schema.ActionLeveragedOpen:
		return position.KindLeveraged
	default:
		return position.KindSpot
	}
}

func denyError(reason schema.Reason) error {
	switch reason {
	case schema.ReasonBreakerPaused:
		return ErrBreakerPaused
	case schema.ReasonRightNotFound:
		return ErrRightNotFound
	case schema.ReasonNotHolder:
		return ErrNotHolder
	case schema.ReasonRightNotActive:
		return ErrRightNotActive
	case schema.ReasonRightExpired:
		return ErrRightExpired
	case schema.ReasonAdapterNotAllowed:
		return ErrAdapterNotAllowed
	case schema.ReasonAssetNotAllowed:
		return ErrAssetNotAllowed
	case schema.ReasonCapitalLimit:
		return ErrCapitalLimitExceeded
	case schema.ReasonPositionSize:
		return ErrPositionSizeExceeded
	case schema.ReasonDrawdown:
		return ErrDrawdownExceeded
	case schema.ReasonLeverage:
		return ErrLeverageExceeded
	case schema.ReasonZeroAmount:
		return ErrZeroAmount
	default:
		return errors.New("controller: action denied")
	}
}

type actionEntry struct {
	RightID    schema.RightID  `json:"rightId"`
	Kind       string          `json:"kind"`
	Adapter    string          `json:"adapter"`
	TokenIn    string          `json:"tokenIn"`
	TokenOut   string          `json:"tokenOut,omitempty"`
	AmountIn   schema.Amount   `json:"amountIn"`
	Notional   schema.Notional `json:"notional"`
	PositionID string          `json:"positionId"`
	Ts         int64           `json:"ts"`
}

func (c *Controller) journalAction(rightID schema.RightID, action schema.Action, positionID string, notional schema.Notional, now int64) {
	if c.cfg.Journal == nil {
		return
	}
	_ = c.cfg.Journal.Record("action", actionEntry{
		RightID:    rightID,
		Kind:       action.Kind.String(),
		Adapter:    action.Adapter,
		TokenIn:    action.TokenIn,
		TokenOut:   action.TokenOut,
		AmountIn:   action.AmountIn,
		Notional:   notional,
		PositionID: positionID,
		Ts:         now,
	})
}
