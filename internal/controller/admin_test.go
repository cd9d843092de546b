package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskcore/internal/breaker"
	"riskcore/internal/exposure"
	"riskcore/internal/oracle"
	"riskcore/internal/reputation"
	"riskcore/internal/reserve"
	"riskcore/internal/schema"
	"riskcore/internal/vault"
)

func newAdmin(t *testing.T) (*Admin, *env) {
	t.Helper()
	e := newEnv(t)

	fund, err := reserve.NewFund(0, 100)
	require.NoError(t, err)

	admin := NewAdmin(AdminConfig{
		Operator:   operatorP,
		Breaker:    e.breaker,
		Exposure:   e.exposure,
		Reputation: e.reputation,
		Vault:      e.vault,
		Reserve:    fund,
		Oracle:     oracle.NewStatic(nil),
		Now:        func() int64 { return testNow },
	})
	return admin, e
}

func TestAdminGatesEveryMutation(t *testing.T) {
	admin, _ := newAdmin(t)

	calls := []struct {
		desc string
		call func(caller schema.Principal) error
	}{
		{"pause", admin.Pause},
		{"unpause", admin.Unpause},
		{"force reset", admin.ForceResetBreaker},
		{"daily loss limit", func(c schema.Principal) error { return admin.SetDailyLossLimit(c, 100) }},
		{"unpause cooldown", func(c schema.Principal) error { return admin.SetUnpauseCooldown(c, 60) }},
		{"breaker snapshot", admin.UpdateBreakerSnapshot},
		{"asset limit", func(c schema.Principal) error { return admin.SetAssetLimit(c, "WETH", 1) }},
		{"clear asset limit", func(c schema.Principal) error { return admin.ClearAssetLimit(c, "WETH") }},
		{"default exposure limit", func(c schema.Principal) error { return admin.SetDefaultExposureLimit(c, 100) }},
		{"utilization ceiling", func(c schema.Principal) error { return admin.SetUtilizationCeiling(c, 100) }},
		{"unregister adapter", func(c schema.Principal) error { return admin.UnregisterAdapter(c, "sim") }},
		{"emergency return", func(c schema.Principal) error { return admin.EmergencyReturn(c, 1) }},
		{"ban", func(c schema.Principal) error { return admin.Ban(c, executor) }},
		{"unban", func(c schema.Principal) error { return admin.Unban(c, executor) }},
		{"whitelist", func(c schema.Principal) error { return admin.Whitelist(c, executor, true) }},
		{"insurance fee", func(c schema.Principal) error { return admin.SetInsuranceFee(c, 50) }},
		{"oracle price", func(c schema.Principal) error { return admin.SetPrice(c, "WETH", 1) }},
	}

	for _, tc := range calls {
		t.Run(tc.desc, func(t *testing.T) {
			assert.ErrorIs(t, tc.call("mallory"), ErrNotAuthorized)
		})
	}
}

func TestAdminPauseBlocksExecution(t *testing.T) {
	admin, e := newAdmin(t)
	rightID := e.issueActive(t, 100_000, defaultConstraints())

	require.NoError(t, admin.Pause(operatorP))
	err := e.controller.Execute(executor, rightID, swap(10_000))
	assert.ErrorIs(t, err, ErrBreakerPaused)

	// cooldown still applies to the operator
	assert.ErrorIs(t, admin.Unpause(operatorP), breaker.ErrCooldownActive)
	require.NoError(t, admin.SetUnpauseCooldown(operatorP, 0))
	require.NoError(t, admin.Unpause(operatorP))
	assert.NoError(t, e.controller.Execute(executor, rightID, swap(10_000)))
}

func TestAdminAssetLimitTakesEffect(t *testing.T) {
	admin, e := newAdmin(t)
	rightID := e.issueActive(t, 100_000, defaultConstraints())

	require.NoError(t, admin.SetAssetLimit(operatorP, "WETH", 5_000))
	err := e.controller.Execute(executor, rightID, swap(10_000))
	require.Error(t, err)

	require.NoError(t, admin.ClearAssetLimit(operatorP, "WETH"))
	assert.NoError(t, e.controller.Execute(executor, rightID, swap(10_000)))
}

func TestAdminBanAndEmergencyReturn(t *testing.T) {
	admin, e := newAdmin(t)
	rightID := e.issueActive(t, 100_000, defaultConstraints())
	require.NoError(t, e.controller.Execute(executor, rightID, swap(10_000)))

	require.NoError(t, admin.Ban(operatorP, executor))
	assert.ErrorIs(t, e.controller.Execute(executor, rightID, swap(10_000)), ErrExecutorBanned)

	require.NoError(t, admin.EmergencyReturn(operatorP, rightID))
	assert.Equal(t, schema.Amount(0), e.vault.Allocation(rightID))

	require.NoError(t, admin.Unban(operatorP, executor))
	assert.False(t, e.reputation.Banned(executor))
}

func TestAdminTierAndVaultSettings(t *testing.T) {
	admin, _ := newAdmin(t)

	require.NoError(t, admin.SetTierConfig(operatorP, reputation.TierNovice, reputation.TierConfig{
		MaxCapital:       1,
		RequiredStakeBps: 2_000,
		MaxDrawdownBps:   1_000,
	}))
	assert.ErrorIs(t, admin.SetTierConfig(operatorP, reputation.TierNovice, reputation.TierConfig{}),
		reputation.ErrInvalidTierConfig)

	require.NoError(t, admin.SetUtilizationCeiling(operatorP, 5_000))
	assert.ErrorIs(t, admin.SetUtilizationCeiling(operatorP, 0), vault.ErrInvalidCeiling)

	require.NoError(t, admin.SetDefaultExposureLimit(operatorP, 1_000))
	assert.ErrorIs(t, admin.SetDefaultExposureLimit(operatorP, 0), exposure.ErrInvalidLimit)
}
