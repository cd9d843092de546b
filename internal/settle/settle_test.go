package settle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskcore/internal/breaker"
	"riskcore/internal/exposure"
	"riskcore/internal/position"
	"riskcore/internal/reputation"
	"riskcore/internal/reserve"
	"riskcore/internal/rights"
	"riskcore/internal/schema"
	"riskcore/internal/vault"
)

const (
	controllerP = schema.Principal("controller")
	operatorP   = schema.Principal("operator")
	issuerP     = schema.Principal("issuer")
	settlementP = schema.Principal("settlement")
	executor    = schema.Principal("alice")

	testNow = int64(1_700_000_000)
)

type savedSettlement struct {
	rightID schema.RightID
	pnl     schema.Notional
	covered schema.Amount
	fee     schema.Amount
}

type recordingStore struct {
	saved []savedSettlement
	err   error
}

func (s *recordingStore) SaveSettlement(rightID schema.RightID, executor schema.Principal, capitalUsed schema.Amount, pnl schema.Notional, covered schema.Amount, fee schema.Amount, settledAt time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, savedSettlement{rightID: rightID, pnl: pnl, covered: covered, fee: fee})
	return nil
}

type env struct {
	authority   *rights.Authority
	vault       *vault.Vault
	breaker     *breaker.Breaker
	reserve     *reserve.Fund
	reputation  *reputation.Registry
	exposure    *exposure.Ledger
	positions   *position.Ledger
	store       *recordingStore
	coordinator *Coordinator
	rightID     schema.RightID
}

func newEnv(t *testing.T, reserveBalance schema.Amount) *env {
	t.Helper()

	brk, err := breaker.New(breaker.Config{SnapshotTotalAssets: 1_000_000}, testNow)
	require.NoError(t, err)
	fund, err := reserve.NewFund(reserveBalance, 100)
	require.NoError(t, err)
	rep, err := reputation.NewRegistry(nil)
	require.NoError(t, err)
	exp, err := exposure.NewLedger(exposure.DefaultLimitBps)
	require.NoError(t, err)

	vlt, err := vault.New(vault.Config{
		Controller: controllerP,
		Settlement: settlementP,
		Operator:   operatorP,
	})
	require.NoError(t, err)
	_, err = vlt.Deposit("lp", 1_000_000)
	require.NoError(t, err)

	authority := rights.New(rights.Config{
		Issuer:     issuerP,
		Settlement: settlementP,
		Controller: controllerP,
	})
	rightID, err := authority.Issue(issuerP, executor, 100_000, testNow+86_400, schema.Constraints{})
	require.NoError(t, err)
	require.NoError(t, authority.Activate(issuerP, rightID))

	positions := position.NewLedger()
	store := &recordingStore{}

	coordinator := New(Config{
		Self:      settlementP,
		Authority: settlementP,
		Rights:    authority,
		Vault:     vlt,
		Breaker:   brk,
		Reserve:   fund,
		Repute:    rep,
		Exposure:  exp,
		Positions: positions,
		Store:     store,
		Now:       func() int64 { return testNow },
	})

	return &env{
		authority:   authority,
		vault:       vlt,
		breaker:     brk,
		reserve:     fund,
		reputation:  rep,
		exposure:    exp,
		positions:   positions,
		store:       store,
		coordinator: coordinator,
		rightID:     rightID,
	}
}

// deploy allocates capital to the right and opens a matching position with
// recorded exposure, mimicking the execution path's bookkeeping.
func (e *env) deploy(t *testing.T, amount schema.Amount) {
	t.Helper()
	require.NoError(t, e.vault.AllocateCapital(controllerP, e.rightID, amount, testNow))
	require.NoError(t, e.exposure.RecordExposure("WETH", schema.Notional(amount), e.vault.TotalAssets()))
	_, err := e.positions.Record(position.Position{
		RightID:       e.rightID,
		Adapter:       "sim",
		Asset:         "WETH",
		Size:          int64(amount),
		EntryValueUsd: schema.Notional(amount),
		Timestamp:     testNow,
	})
	require.NoError(t, err)
}

func TestSettleProfit(t *testing.T) {
	e := newEnv(t, 0)
	e.deploy(t, 50_000)

	result, err := e.coordinator.Settle(settlementP, e.rightID, 10_000, 50_000)
	require.NoError(t, err)

	assert.Equal(t, schema.Amount(50_000), result.CapitalUsed)
	assert.Equal(t, schema.Notional(10_000), result.Pnl)
	assert.Equal(t, schema.Amount(0), result.Covered)
	// 1% insurance fee on the profit
	assert.Equal(t, schema.Amount(100), result.Fee)
	assert.Equal(t, schema.Amount(100), e.reserve.Balance())

	// pool receives the profit net of the fee
	assert.Equal(t, schema.Amount(1_009_900), e.vault.TotalAssets())
	assert.Equal(t, schema.Amount(0), e.vault.Allocation(e.rightID))

	// the books are clean
	assert.Equal(t, 0, e.positions.Count(e.rightID))
	assert.Equal(t, schema.Notional(0), e.exposure.Exposure("WETH"))

	right, ok := e.authority.Right(e.rightID)
	require.True(t, ok)
	assert.Equal(t, schema.StatusSettled, right.Status)
	assert.Equal(t, schema.Notional(10_000), right.RealizedPnl)

	rec := e.reputation.Record(executor)
	assert.Equal(t, uint64(1), rec.TotalSettlements)
	assert.Equal(t, uint64(1), rec.ProfitableSettlements)

	require.Len(t, e.store.saved, 1)
	assert.Equal(t, e.rightID, e.store.saved[0].rightID)
}

func TestSettleLossWithPartialReserveCoverage(t *testing.T) {
	// the fund holds less than the loss
	e := newEnv(t, 3_000)
	e.deploy(t, 50_000)

	result, err := e.coordinator.Settle(settlementP, e.rightID, -10_000, 50_000)
	require.NoError(t, err)

	assert.Equal(t, schema.Amount(3_000), result.Covered)
	assert.Equal(t, schema.Amount(0), e.reserve.Balance())

	// pool absorbs only the uncovered slice of the loss
	assert.Equal(t, schema.Amount(993_000), e.vault.TotalAssets())

	// the full loss feeds the breaker window
	assert.Equal(t, schema.Amount(10_000), e.breaker.DailyLoss())

	rec := e.reputation.Record(executor)
	assert.Equal(t, uint64(1), rec.ConsecutiveLosses)
	assert.Equal(t, int64(2_000), rec.LargestLossBps)
}

func TestSettleLossTripsBreaker(t *testing.T) {
	e := newEnv(t, 0)
	e.deploy(t, 100_000)

	// 6% of the 1M snapshot breaches the 5% default
	_, err := e.coordinator.Settle(settlementP, e.rightID, -60_000, 0)
	require.NoError(t, err)
	assert.True(t, e.breaker.Tripped(testNow+1))
}

func TestLiquidateMarksRight(t *testing.T) {
	e := newEnv(t, 0)
	e.deploy(t, 50_000)

	result, err := e.coordinator.Liquidate(settlementP, e.rightID, -5_000, 0)
	require.NoError(t, err)
	assert.Equal(t, schema.Notional(-5_000), result.Pnl)

	right, ok := e.authority.Right(e.rightID)
	require.True(t, ok)
	assert.Equal(t, schema.StatusLiquidated, right.Status)
}

func TestSettleGuards(t *testing.T) {
	e := newEnv(t, 0)

	_, err := e.coordinator.Settle(issuerP, e.rightID, 0, 0)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = e.coordinator.Settle(settlementP, 999, 0, 0)
	assert.ErrorIs(t, err, ErrRightNotFound)

	// settling twice fails on the terminal status
	_, err = e.coordinator.Settle(settlementP, e.rightID, 0, 0)
	require.NoError(t, err)
	_, err = e.coordinator.Settle(settlementP, e.rightID, 0, 0)
	assert.ErrorIs(t, err, ErrNotSettleable)
}

func TestSettleExpiredRight(t *testing.T) {
	e := newEnv(t, 0)
	require.NoError(t, e.authority.UpdateStatus(settlementP, e.rightID, schema.StatusExpired))

	_, err := e.coordinator.Settle(settlementP, e.rightID, 0, 0)
	assert.NoError(t, err)
}

func TestPersistFailureDoesNotBlockSettlement(t *testing.T) {
	e := newEnv(t, 0)
	e.deploy(t, 10_000)
	e.store.err = assert.AnError

	_, err := e.coordinator.Settle(settlementP, e.rightID, 500, 0)
	require.NoError(t, err)

	right, _ := e.authority.Right(e.rightID)
	assert.Equal(t, schema.StatusSettled, right.Status)
}
