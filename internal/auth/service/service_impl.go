package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/smallbiznis/courtside/internal/auth/domain"
	"github.com/smallbiznis/courtside/internal/auth/password"
	"github.com/smallbiznis/courtside/internal/auth/token"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
	"github.com/smallbiznis/courtside/internal/observability/logger"
	userdomain "github.com/smallbiznis/courtside/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log          *zap.Logger
	users        userdomain.Repository
	entitlements entdomain.Service
	tokens       *token.Issuer
	genID        *snowflake.Node
}

type ServiceParam struct {
	fx.In

	Log          *zap.Logger
	Users        userdomain.Repository
	Entitlements entdomain.Service
	Tokens       *token.Issuer
	GenID        *snowflake.Node
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:          p.Log.Named("auth.service"),
		users:        p.Users,
		entitlements: p.Entitlements,
		tokens:       p.Tokens,
		genID:        p.GenID,
	}
}

func (s *Service) Register(ctx context.Context, req domain.Credentials) (*domain.Result, error) {
	email, err := validate(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, userdomain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &userdomain.User{
		ID:           s.genID.Generate(),
		ExternalKey:  "auth:" + uuid.NewString(),
		Email:        &email,
		PasswordHash: &hashed,
		Plan:         entdomain.PlanFree,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userdomain.ErrUserExists) {
			return nil, domain.ErrEmailExists
		}
		return nil, err
	}

	logger.WithContext(ctx, s.log).Info("user registered", zap.String("user_id", user.ID.String()))
	return s.issue(ctx, user.ID, email)
}

func (s *Service) Login(ctx context.Context, req domain.Credentials) (*domain.Result, error) {
	email, err := validate(req)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, userdomain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == nil || !password.Verify(req.Password, *user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(ctx, user.ID, email)
}

func (s *Service) Profile(ctx context.Context, userID snowflake.ID) (*domain.UserView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, userdomain.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Email == nil {
		return nil, nil
	}

	plan, err := s.currentPlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.UserView{ID: user.ID, Email: *user.Email, Plan: plan}, nil
}

// issue synchronizes the entitlement so the returned plan is fresh, then signs a token.
func (s *Service) issue(ctx context.Context, userID snowflake.ID, email string) (*domain.Result, error) {
	plan, err := s.currentPlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	raw, expiresAt, err := s.tokens.Sign(userID.String(), email)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &domain.Result{
		Token:     raw,
		ExpiresAt: expiresAt,
		User:      domain.UserView{ID: userID, Email: email, Plan: plan},
	}, nil
}

func (s *Service) currentPlan(ctx context.Context, userID snowflake.ID) (entdomain.Plan, error) {
	ent, err := s.entitlements.Synchronize(ctx, userID)
	if err != nil {
		return "", err
	}
	if ent == nil {
		return entdomain.PlanFree, nil
	}
	return ent.Plan, nil
}

// validate applies the same binding rules the HTTP layer uses and returns the
// normalized email.
func validate(req domain.Credentials) (string, error) {
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return "", domain.ErrInvalidRequest
	}
	return strings.ToLower(req.Email), nil
}
