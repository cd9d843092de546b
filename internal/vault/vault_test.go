package vault

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskcore/internal/schema"
)

const (
	controller = schema.Principal("controller")
	settlement = schema.Principal("settlement")
	operator   = schema.Principal("operator")
	lp         = schema.Principal("lp")
	right1     = schema.RightID(1)
	right2     = schema.RightID(2)
)

type stubGate struct{ tripped bool }

func (g *stubGate) Tripped(int64) bool { return g.tripped }

type stubAdapter struct {
	name string
	out  schema.Amount
	err  error
}

func (a stubAdapter) Name() string { return a.name }

func (a stubAdapter) Execute(schema.Action) (schema.Amount, error) {
	return a.out, a.err
}

func newVault(t *testing.T, gate Gate) *Vault {
	t.Helper()
	v, err := New(Config{
		Controller:            controller,
		Settlement:            settlement,
		Operator:              operator,
		UtilizationCeilingBps: 7_000,
		Gate:                  gate,
	})
	require.NoError(t, err)
	return v
}

func TestDepositMintsProportionalShares(t *testing.T) {
	v := newVault(t, nil)

	minted, err := v.Deposit(lp, 1_000)
	require.NoError(t, err)
	assert.Equal(t, schema.Amount(1_000), minted)
	assert.Equal(t, schema.Amount(1_000), v.TotalAssets())

	// second depositor at unchanged asset/share ratio mints 1:1
	minted, err = v.Deposit("lp-2", 500)
	require.NoError(t, err)
	assert.Equal(t, schema.Amount(500), minted)

	// after the pool gains 50%, the same deposit mints fewer shares
	require.NoError(t, v.ReturnCapital(settlement, right1, 0, 750))
	minted, err = v.Deposit("lp-3", 750)
	require.NoError(t, err)
	assert.Equal(t, schema.Amount(500), minted)

	_, err = v.Deposit(lp, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestWithdrawPaysProportionalAssets(t *testing.T) {
	v := newVault(t, nil)

	_, err := v.Deposit(lp, 1_000)
	require.NoError(t, err)
	// pool gains, so each share is worth more than a unit
	require.NoError(t, v.ReturnCapital(settlement, right1, 0, 500))

	payout, err := v.Withdraw(lp, 200)
	require.NoError(t, err)
	assert.Equal(t, schema.Amount(300), payout)
	assert.Equal(t, schema.Amount(1_200), v.TotalAssets())

	_, err = v.Withdraw(lp, 10_000)
	assert.ErrorIs(t, err, ErrInsufficientShares)
	_, err = v.Withdraw("stranger", 1)
	assert.ErrorIs(t, err, ErrInsufficientShares)
}

func TestWithdrawBlockedByUtilization(t *testing.T) {
	v := newVault(t, nil)

	_, err := v.Deposit(lp, 1_000)
	require.NoError(t, err)
	require.NoError(t, v.AllocateCapital(controller, right1, 700, 0))

	// any withdrawal now pushes allocated/assets past 70%
	_, err = v.Withdraw(lp, 1)
	assert.ErrorIs(t, err, ErrUtilizationExceeded)

	// returning the capital unblocks it
	require.NoError(t, v.ReturnCapital(settlement, right1, 700, 0))
	_, err = v.Withdraw(lp, 100)
	assert.NoError(t, err)
}

func TestAllocateCapitalCeiling(t *testing.T) {
	v := newVault(t, nil)

	_, err := v.Deposit(lp, 1_000)
	require.NoError(t, err)

	// exactly at the 70% ceiling
	require.NoError(t, v.AllocateCapital(controller, right1, 700, 0))
	assert.Equal(t, int64(7_000), v.UtilizationRate())

	// one unit past it
	err = v.AllocateCapital(controller, right2, 1, 0)
	assert.ErrorIs(t, err, ErrUtilizationExceeded)
	assert.Equal(t, schema.Amount(0), v.Allocation(right2))

	// empty vault allocates nothing
	empty := newVault(t, nil)
	assert.ErrorIs(t, empty.AllocateCapital(controller, right1, 1, 0), ErrUtilizationExceeded)
}

func TestAllocateCapitalAuthorization(t *testing.T) {
	v := newVault(t, nil)
	_, err := v.Deposit(lp, 1_000)
	require.NoError(t, err)

	assert.ErrorIs(t, v.AllocateCapital(operator, right1, 100, 0), ErrNotAuthorized)
	assert.ErrorIs(t, v.AllocateCapital(controller, right1, 0, 0), ErrInvalidAmount)
}

func TestAllocateCapitalGatedByBreaker(t *testing.T) {
	gate := &stubGate{}
	v := newVault(t, gate)
	_, err := v.Deposit(lp, 1_000)
	require.NoError(t, err)

	gate.tripped = true
	assert.ErrorIs(t, v.AllocateCapital(controller, right1, 100, 0), ErrBreakerPaused)

	gate.tripped = false
	assert.NoError(t, v.AllocateCapital(controller, right1, 100, 0))
}

func TestReleaseCapitalExactRollback(t *testing.T) {
	v := newVault(t, nil)
	_, err := v.Deposit(lp, 1_000)
	require.NoError(t, err)
	require.NoError(t, v.AllocateCapital(controller, right1, 300, 0))

	require.NoError(t, v.ReleaseCapital(controller, right1, 300))
	assert.Equal(t, schema.Amount(0), v.Allocation(right1))
	assert.Equal(t, schema.Amount(0), v.TotalAllocated())

	assert.ErrorIs(t, v.ReleaseCapital(controller, right1, 1), ErrAllocationUnderflow)
	assert.ErrorIs(t, v.ReleaseCapital(operator, right1, 1), ErrNotAuthorized)
}

func TestReturnCapitalIsFullExit(t *testing.T) {
	v := newVault(t, nil)
	_, err := v.Deposit(lp, 1_000)
	require.NoError(t, err)
	require.NoError(t, v.AllocateCapital(controller, right1, 500, 0))

	// a partial return still clears the right's entire allocation
	require.NoError(t, v.ReturnCapital(settlement, right1, 200, -50))
	assert.Equal(t, schema.Amount(0), v.Allocation(right1))
	assert.Equal(t, schema.Amount(300), v.TotalAllocated())
	assert.Equal(t, schema.Amount(950), v.TotalAssets())

	// negative pnl can never drive assets below zero
	require.NoError(t, v.ReturnCapital(settlement, right1, 0, -10_000))
	assert.Equal(t, schema.Amount(0), v.TotalAssets())

	assert.ErrorIs(t, v.ReturnCapital(operator, right1, 0, 0), ErrNotAuthorized)
	assert.ErrorIs(t, v.ReturnCapital(settlement, right1, -1, 0), ErrInvalidAmount)
}

func TestEmergencyReturn(t *testing.T) {
	v := newVault(t, nil)
	_, err := v.Deposit(lp, 1_000)
	require.NoError(t, err)
	require.NoError(t, v.AllocateCapital(controller, right1, 500, 0))

	assert.ErrorIs(t, v.EmergencyReturn(controller, right1), ErrNotAuthorized)
	require.NoError(t, v.EmergencyReturn(operator, right1))
	assert.Equal(t, schema.Amount(0), v.Allocation(right1))
	assert.Equal(t, schema.Amount(0), v.TotalAllocated())
	assert.Equal(t, schema.Amount(1_000), v.TotalAssets())
}

func TestAdapterRegistry(t *testing.T) {
	v := newVault(t, nil)
	sim := stubAdapter{name: "sim", out: 42}

	assert.ErrorIs(t, v.RegisterAdapter(controller, sim), ErrNotAuthorized)
	require.NoError(t, v.RegisterAdapter(operator, sim))
	assert.True(t, v.AdapterRegistered("sim"))

	got, err := v.AdapterByName("sim")
	require.NoError(t, err)
	assert.Equal(t, "sim", got.Name())

	out, err := v.ExecuteThroughAdapter(controller, schema.Action{Adapter: "sim"})
	require.NoError(t, err)
	assert.Equal(t, schema.Amount(42), out)

	_, err = v.ExecuteThroughAdapter(operator, schema.Action{Adapter: "sim"})
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = v.ExecuteThroughAdapter(controller, schema.Action{Adapter: "other"})
	assert.ErrorIs(t, err, ErrAdapterNotRegistered)

	// venue failures pass through unchanged
	boom := errors.New("venue rejected")
	require.NoError(t, v.RegisterAdapter(operator, stubAdapter{name: "bad", err: boom}))
	_, err = v.ExecuteThroughAdapter(controller, schema.Action{Adapter: "bad"})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, v.UnregisterAdapter(operator, "sim"))
	assert.False(t, v.AdapterRegistered("sim"))
}

func TestSetUtilizationCeiling(t *testing.T) {
	v := newVault(t, nil)

	assert.ErrorIs(t, v.SetUtilizationCeiling(controller, 5_000), ErrNotAuthorized)
	assert.ErrorIs(t, v.SetUtilizationCeiling(operator, 0), ErrInvalidCeiling)
	assert.ErrorIs(t, v.SetUtilizationCeiling(operator, schema.BPS+1), ErrInvalidCeiling)
	require.NoError(t, v.SetUtilizationCeiling(operator, 5_000))

	_, err := v.Deposit(lp, 1_000)
	require.NoError(t, err)
	require.NoError(t, v.AllocateCapital(controller, right1, 500, 0))
	assert.ErrorIs(t, v.AllocateCapital(controller, right2, 1, 0), ErrUtilizationExceeded)
}
