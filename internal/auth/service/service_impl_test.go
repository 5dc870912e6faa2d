package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courtside/internal/auth/domain"
	"github.com/smallbiznis/courtside/internal/auth/token"
	"github.com/smallbiznis/courtside/internal/clock"
	"github.com/smallbiznis/courtside/internal/config"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
	entrepo "github.com/smallbiznis/courtside/internal/entitlement/repository"
	entservice "github.com/smallbiznis/courtside/internal/entitlement/service"
	subdomain "github.com/smallbiznis/courtside/internal/subscription/domain"
	subrepo "github.com/smallbiznis/courtside/internal/subscription/repository"
	userdomain "github.com/smallbiznis/courtside/internal/user/domain"
	userrepo "github.com/smallbiznis/courtside/internal/user/repository"
	"github.com/smallbiznis/courtside/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	svc    domain.Service
	users  userdomain.Repository
	ents   entdomain.Repository
	tokens *token.Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&userdomain.User{}, &entdomain.Entitlement{}, &subdomain.Subscription{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	plans, err := config.NewStaticPlanCatalogHolder(config.PlanCatalog{
		Free:    config.PlanLimits{QADailyLimit: 5, QARowLimit: 50},
		Premium: config.PlanLimits{QADailyLimit: 5000, QARowLimit: 500},
	})
	require.NoError(t, err)

	cfg := config.Config{AuthJWTSecret: "test-secret", AuthJWTTTL: time.Hour}
	users := userrepo.New(conn)
	ents := entrepo.New(conn)
	entSvc := entservice.NewService(entservice.ServiceParam{
		Log:     zap.NewNop(),
		Cfg:     cfg,
		Repo:    ents,
		Users:   users,
		Billing: subrepo.New(conn),
		Plans:   plans,
		GenID:   node,
	})
	tokens := token.NewIssuer(cfg, clock.SystemClock{})

	return &fixture{
		svc: NewService(ServiceParam{
			Log:          zap.NewNop(),
			Users:        users,
			Entitlements: entSvc,
			Tokens:       tokens,
			GenID:        node,
		}),
		users:  users,
		ents:   ents,
		tokens: tokens,
	}
}

func TestRegisterCreatesFreeUserWithEntitlement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, domain.Credentials{Email: "Alice@Example.com", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, entdomain.PlanFree, res.User.Plan)
	assert.NotEmpty(t, res.Token)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.String(), claims.Subject)

	user, err := f.users.FindByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^auth:[0-9a-f-]{36}$`, user.ExternalKey)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "long-enough", *user.PasswordHash)

	ent, err := f.ents.FindByUserID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, entdomain.PlanFree, ent.Plan)
	assert.Equal(t, 5, ent.QADailyLimit)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, domain.Credentials{Email: "bob@example.com", Password: "long-enough"})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, domain.Credentials{Email: "BOB@example.com", Password: "another-one"})
	assert.ErrorIs(t, err, domain.ErrEmailExists)
}

func TestRegisterValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, domain.Credentials{Email: "not-an-email", Password: "long-enough"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.svc.Register(ctx, domain.Credentials{Email: "carol@example.com", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	for _, email := range []string{
		"",
		"Bob Smith <bob@example.com>",
		"bob@localhost",
		" bob@example.com",
	} {
		_, err = f.svc.Register(ctx, domain.Credentials{Email: email, Password: "long-enough"})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest, email)
	}

	_, err = f.svc.Login(ctx, domain.Credentials{Email: "Bob Smith <bob@example.com>", Password: "long-enough"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, domain.Credentials{Email: "dan@example.com", Password: "correct-password"})
	require.NoError(t, err)

	res, err := f.svc.Login(ctx, domain.Credentials{Email: "dan@example.com", Password: "correct-password"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, res.User.ID)

	_, err = f.svc.Login(ctx, domain.Credentials{Email: "dan@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, domain.Credentials{Email: "nobody@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, domain.Credentials{Email: "erin@example.com", Password: "long-enough"})
	require.NoError(t, err)

	view, err := f.svc.Profile(ctx, res.User.ID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, "erin@example.com", view.Email)

	missing, err := f.svc.Profile(ctx, snowflake.ID(12345))
	require.NoError(t, err)
	assert.Nil(t, missing)
}
