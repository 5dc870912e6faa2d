package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courtside/internal/config"
	"github.com/smallbiznis/courtside/internal/entitlement/domain"
	obsmetrics "github.com/smallbiznis/courtside/internal/observability/metrics"
	userdomain "github.com/smallbiznis/courtside/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log      *zap.Logger
	repo     domain.Repository
	users    userdomain.Repository
	billing  domain.BillingSource
	plans    *config.PlanCatalogHolder
	genID    *snowflake.Node
	metrics  *obsmetrics.Metrics
	override bool
}

type ServiceParam struct {
	fx.In

	Log     *zap.Logger
	Cfg     config.Config
	Repo    domain.Repository
	Users   userdomain.Repository
	Billing domain.BillingSource
	Plans   *config.PlanCatalogHolder
	GenID   *snowflake.Node
	Metrics *obsmetrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:      p.Log.Named("entitlement.service"),
		repo:     p.Repo,
		users:    p.Users,
		billing:  p.Billing,
		plans:    p.Plans,
		genID:    p.GenID,
		metrics:  p.Metrics,
		override: p.Cfg.DevPremiumBypass && !p.Cfg.IsProduction(),
	}
}

func (s *Service) Limits(plan domain.Plan) domain.Limits {
	limits := s.plans.Limits(string(plan))
	return domain.Limits{
		QADailyLimit: limits.QADailyLimit,
		QARowLimit:   limits.QARowLimit,
	}
}

func (s *Service) Synchronize(ctx context.Context, userID snowflake.ID) (*domain.Entitlement, error) {
	desired, err := s.desiredPlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, userdomain.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}

	wrote := false
	if user.Plan != desired {
		if err := s.users.UpdatePlan(ctx, userID, desired); err != nil {
			return nil, fmt.Errorf("update user plan: %w", err)
		}
		wrote = true
		s.log.Info("user plan changed",
			zap.String("user_id", userID.String()),
			zap.String("from", string(user.Plan)),
			zap.String("to", string(desired)),
		)
	}

	ent, upserted, err := s.ensure(ctx, userID, desired)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		outcome := "unchanged"
		if wrote || upserted {
			outcome = "updated"
		}
		s.metrics.RecordEntitlementSync(ctx, outcome)
	}
	return ent, nil
}

func (s *Service) Get(ctx context.Context, userID snowflake.ID, fallback domain.Plan) (*domain.Entitlement, error) {
	existing, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load entitlement: %w", err)
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	ent, _, err := s.ensure(ctx, userID, fallback)
	return ent, err
}

func (s *Service) ApplyPlan(ctx context.Context, userID snowflake.ID, plan domain.Plan) (*domain.Entitlement, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Plan != plan {
		if err := s.users.UpdatePlan(ctx, userID, plan); err != nil {
			return nil, fmt.Errorf("update user plan: %w", err)
		}
	}
	ent, _, err := s.ensure(ctx, userID, plan)
	return ent, err
}

func (s *Service) desiredPlan(ctx context.Context, userID snowflake.ID) (domain.Plan, error) {
	if s.override {
		return domain.PlanPremium, nil
	}
	active, err := s.billing.HasActiveSubscription(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("read subscription status: %w", err)
	}
	if active {
		return domain.PlanPremium, nil
	}
	return domain.PlanFree, nil
}

// ensure makes the stored entitlement match plan, writing only when it differs.
func (s *Service) ensure(ctx context.Context, userID snowflake.ID, plan domain.Plan) (*domain.Entitlement, bool, error) {
	limits := s.Limits(plan)

	existing, err := s.repo.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		if existing.Matches(plan, limits) {
			return existing, false, nil
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, false, fmt.Errorf("load entitlement: %w", err)
	}

	ent := &domain.Entitlement{
		ID:           s.genID.Generate(),
		UserID:       userID,
		Plan:         plan,
		QADailyLimit: limits.QADailyLimit,
		QARowLimit:   limits.QARowLimit,
	}
	if err := s.repo.Upsert(ctx, ent); err != nil {
		return nil, false, fmt.Errorf("upsert entitlement: %w", err)
	}

	stored, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("reload entitlement: %w", err)
	}
	return stored, true, nil
}
