package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = PlanCatalog{
	Free:    PlanLimits{QADailyLimit: 5, QARowLimit: 50},
	Premium: PlanLimits{QADailyLimit: 5000, QARowLimit: 500},
}

func TestPlanCatalogPremiumDominatesFree(t *testing.T) {
	holder, err := newPlanCatalogHolder(testDefaults, t.TempDir())
	require.NoError(t, err)

	free := holder.Limits(PlanFree)
	premium := holder.Limits(PlanPremium)
	assert.GreaterOrEqual(t, premium.QADailyLimit, free.QADailyLimit)
	assert.GreaterOrEqual(t, premium.QARowLimit, free.QARowLimit)
	assert.Equal(t, testDefaults, holder.Get())
}

func TestPlanCatalogUnknownPlanGetsFreeLimits(t *testing.T) {
	assert.Equal(t, testDefaults.Free, testDefaults.Limits("ENTERPRISE"))
	assert.Equal(t, testDefaults.Premium, testDefaults.Limits("premium"))
}

func TestPlanCatalogFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	body := "plans:\n  premium:\n    qaDailyLimit: 900\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plans.yml"), []byte(body), 0o600))

	holder, err := newPlanCatalogHolder(testDefaults, dir)
	require.NoError(t, err)

	got := holder.Get()
	assert.Equal(t, 900, got.Premium.QADailyLimit)
	assert.Equal(t, 500, got.Premium.QARowLimit)
	assert.Equal(t, testDefaults.Free, got.Free)
}

func TestPlanCatalogRejectsPremiumBelowFree(t *testing.T) {
	dir := t.TempDir()
	body := "plans:\n  premium:\n    qaRowLimit: 10\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plans.yml"), []byte(body), 0o600))

	_, err := newPlanCatalogHolder(testDefaults, dir)
	assert.Error(t, err)
}

func TestPlanCatalogReloadKeepsLastGoodCatalog(t *testing.T) {
	holder, err := NewStaticPlanCatalogHolder(testDefaults)
	require.NoError(t, err)

	bad := viper.New()
	bad.Set("plans.free.qaDailyLimit", 10)
	bad.Set("plans.free.qaRowLimit", 50)
	bad.Set("plans.premium.qaDailyLimit", 1)
	bad.Set("plans.premium.qaRowLimit", 500)
	holder.reload(bad, "test")
	assert.Equal(t, testDefaults, holder.Get())

	good := viper.New()
	good.Set("plans.free.qaDailyLimit", 10)
	good.Set("plans.free.qaRowLimit", 50)
	good.Set("plans.premium.qaDailyLimit", 100)
	good.Set("plans.premium.qaRowLimit", 500)
	holder.reload(good, "test")
	assert.Equal(t, 10, holder.Limits(PlanFree).QADailyLimit)
	assert.Equal(t, 100, holder.Limits(PlanPremium).QADailyLimit)
}
