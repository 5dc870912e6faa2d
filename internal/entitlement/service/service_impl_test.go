package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courtside/internal/config"
	"github.com/smallbiznis/courtside/internal/entitlement/domain"
	entrepo "github.com/smallbiznis/courtside/internal/entitlement/repository"
	subdomain "github.com/smallbiznis/courtside/internal/subscription/domain"
	subrepo "github.com/smallbiznis/courtside/internal/subscription/repository"
	userdomain "github.com/smallbiznis/courtside/internal/user/domain"
	userrepo "github.com/smallbiznis/courtside/internal/user/repository"
	"github.com/smallbiznis/courtside/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testCatalog = config.PlanCatalog{
	Free:    config.PlanLimits{QADailyLimit: 5, QARowLimit: 50},
	Premium: config.PlanLimits{QADailyLimit: 5000, QARowLimit: 500},
}

type countingRepo struct {
	domain.Repository
	upserts int
}

func (r *countingRepo) Upsert(ctx context.Context, ent *domain.Entitlement) error {
	r.upserts++
	return r.Repository.Upsert(ctx, ent)
}

type countingUsers struct {
	userdomain.Repository
	planUpdates int
}

func (u *countingUsers) UpdatePlan(ctx context.Context, id snowflake.ID, plan domain.Plan) error {
	u.planUpdates++
	return u.Repository.UpdatePlan(ctx, id, plan)
}

type billingMock struct {
	mock.Mock
}

func (m *billingMock) HasActiveSubscription(ctx context.Context, userID snowflake.ID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	repo  *countingRepo
	users *countingUsers
	subs  *subrepo.Repository
	svc   domain.Service
}

func newFixture(t *testing.T, cfg config.Config) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&userdomain.User{}, &domain.Entitlement{}, &subdomain.Subscription{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	plans, err := config.NewStaticPlanCatalogHolder(testCatalog)
	require.NoError(t, err)

	f := &fixture{
		db:    conn,
		node:  node,
		repo:  &countingRepo{Repository: entrepo.New(conn)},
		users: &countingUsers{Repository: userrepo.New(conn)},
		subs:  subrepo.New(conn),
	}
	f.svc = NewService(ServiceParam{
		Log:     zap.NewNop(),
		Cfg:     cfg,
		Repo:    f.repo,
		Users:   f.users,
		Billing: f.subs,
		Plans:   plans,
		GenID:   node,
	})
	return f
}

func (f *fixture) createUser(t *testing.T, plan domain.Plan) *userdomain.User {
	t.Helper()
	id := f.node.Generate()
	u := &userdomain.User{ID: id, ExternalKey: "auth:" + id.String(), Plan: plan}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) addSubscription(t *testing.T, userID snowflake.ID, stripeID string, status subdomain.Status) {
	t.Helper()
	sub := &subdomain.Subscription{
		ID:                   f.node.Generate(),
		UserID:               userID,
		StripeSubscriptionID: &stripeID,
		Status:               status,
		Plan:                 subdomain.PlanForStatus(status),
	}
	require.NoError(t, f.subs.UpsertByStripeID(context.Background(), sub))
}

func TestSynchronizeCreatesFreeEntitlement(t *testing.T) {
	f := newFixture(t, config.Config{})
	u := f.createUser(t, domain.PlanFree)

	ent, err := f.svc.Synchronize(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, ent)
	assert.Equal(t, u.ID, ent.UserID)
	assert.Equal(t, domain.PlanFree, ent.Plan)
	assert.Equal(t, 5, ent.QADailyLimit)
	assert.Equal(t, 50, ent.QARowLimit)
}

func TestSynchronizeSecondCallDoesNotWrite(t *testing.T) {
	f := newFixture(t, config.Config{})
	u := f.createUser(t, domain.PlanFree)
	ctx := context.Background()

	first, err := f.svc.Synchronize(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.upserts)

	second, err := f.svc.Synchronize(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.upserts)
	assert.Equal(t, 0, f.users.planUpdates)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.UpdatedAt.Unix(), second.UpdatedAt.Unix())
}

func TestSynchronizeActiveSubscriptionUpgradesToPremium(t *testing.T) {
	f := newFixture(t, config.Config{})
	u := f.createUser(t, domain.PlanFree)
	ctx := context.Background()

	ent, err := f.svc.Synchronize(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, ent.Plan)

	f.addSubscription(t, u.ID, "sub_1", subdomain.StatusActive)

	ent, err = f.svc.Synchronize(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, ent.Plan)
	assert.Equal(t, 5000, ent.QADailyLimit)
	assert.Equal(t, 500, ent.QARowLimit)

	stored, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, stored.Plan)
}

func TestSynchronizeNonActiveStatusesMapToFree(t *testing.T) {
	for _, status := range []subdomain.Status{
		subdomain.StatusCanceled,
		subdomain.StatusPastDue,
		subdomain.StatusIncomplete,
		subdomain.StatusCheckoutCompleted,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, config.Config{})
			u := f.createUser(t, domain.PlanPremium)
			f.addSubscription(t, u.ID, "sub_"+string(status), status)

			ent, err := f.svc.Synchronize(context.Background(), u.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.PlanFree, ent.Plan)
			assert.Equal(t, 1, f.users.planUpdates)
		})
	}
}

func TestSynchronizeDowngradeAfterCancellation(t *testing.T) {
	f := newFixture(t, config.Config{})
	u := f.createUser(t, domain.PlanFree)
	ctx := context.Background()

	f.addSubscription(t, u.ID, "sub_1", subdomain.StatusActive)
	ent, err := f.svc.Synchronize(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, ent.Plan)

	f.addSubscription(t, u.ID, "sub_1", subdomain.StatusCanceled)

	ent, err = f.svc.Synchronize(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, ent.Plan)
	assert.Equal(t, 5, ent.QADailyLimit)
}

func TestSynchronizeMissingUserReturnsNil(t *testing.T) {
	f := newFixture(t, config.Config{})

	ent, err := f.svc.Synchronize(context.Background(), f.node.Generate())
	assert.NoError(t, err)
	assert.Nil(t, ent)
	assert.Equal(t, 0, f.repo.upserts)
}

func TestSynchronizeOverrideForcesPremiumOutsideProduction(t *testing.T) {
	f := newFixture(t, config.Config{Environment: "development", DevPremiumBypass: true})
	u := f.createUser(t, domain.PlanFree)

	ent, err := f.svc.Synchronize(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, ent.Plan)

	prod := newFixture(t, config.Config{Environment: "production", DevPremiumBypass: true})
	pu := prod.createUser(t, domain.PlanFree)
	ent, err = prod.svc.Synchronize(context.Background(), pu.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, ent.Plan)
}

func TestSynchronizePropagatesBillingFailure(t *testing.T) {
	f := newFixture(t, config.Config{})
	plans, err := config.NewStaticPlanCatalogHolder(testCatalog)
	require.NoError(t, err)
	billing := new(billingMock)
	svc := NewService(ServiceParam{
		Log:     zap.NewNop(),
		Repo:    f.repo,
		Users:   f.users,
		Billing: billing,
		Plans:   plans,
		GenID:   f.node,
	})
	u := f.createUser(t, domain.PlanFree)
	billing.On("HasActiveSubscription", mock.Anything, u.ID).Return(false, errors.New("billing store unreachable"))

	_, err = svc.Synchronize(context.Background(), u.ID)
	assert.Error(t, err)
	billing.AssertNumberOfCalls(t, "HasActiveSubscription", 1)
	assert.Equal(t, 0, f.repo.upserts)
	assert.Equal(t, 0, f.users.planUpdates)
}

func TestSynchronizeReadsBillingTruth(t *testing.T) {
	f := newFixture(t, config.Config{})
	plans, err := config.NewStaticPlanCatalogHolder(testCatalog)
	require.NoError(t, err)
	billing := new(billingMock)
	svc := NewService(ServiceParam{
		Log:     zap.NewNop(),
		Repo:    f.repo,
		Users:   f.users,
		Billing: billing,
		Plans:   plans,
		GenID:   f.node,
	})
	u := f.createUser(t, domain.PlanFree)
	billing.On("HasActiveSubscription", mock.Anything, u.ID).Return(true, nil)

	ent, err := svc.Synchronize(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, ent.Plan)
	assert.Equal(t, 5000, ent.QADailyLimit)
	billing.AssertExpectations(t)
}

func TestGetCreatesWithFallbackPlanOnce(t *testing.T) {
	f := newFixture(t, config.Config{})
	u := f.createUser(t, domain.PlanFree)
	ctx := context.Background()

	ent, err := f.svc.Get(ctx, u.ID, domain.PlanPremium)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, ent.Plan)

	again, err := f.svc.Get(ctx, u.ID, domain.PlanFree)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, again.Plan)
	assert.Equal(t, 1, f.repo.upserts)
}

func TestGetUnknownUserFails(t *testing.T) {
	f := newFixture(t, config.Config{})

	_, err := f.svc.Get(context.Background(), f.node.Generate(), domain.PlanFree)
	assert.ErrorIs(t, err, userdomain.ErrUserNotFound)
	assert.Equal(t, 0, f.repo.upserts)
}

func TestApplyPlanUpdatesUserAndEntitlement(t *testing.T) {
	f := newFixture(t, config.Config{})
	u := f.createUser(t, domain.PlanFree)
	ctx := context.Background()

	ent, err := f.svc.ApplyPlan(ctx, u.ID, domain.PlanPremium)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, ent.Plan)

	stored, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPremium, stored.Plan)

	_, err = f.svc.ApplyPlan(ctx, f.node.Generate(), domain.PlanFree)
	assert.ErrorIs(t, err, userdomain.ErrUserNotFound)
}

func TestPremiumLimitsDominateFree(t *testing.T) {
	f := newFixture(t, config.Config{})
	free := f.svc.Limits(domain.PlanFree)
	premium := f.svc.Limits(domain.PlanPremium)
	assert.GreaterOrEqual(t, premium.QADailyLimit, free.QADailyLimit)
	assert.GreaterOrEqual(t, premium.QARowLimit, free.QARowLimit)
}
