package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courtside/internal/clock"
	"github.com/smallbiznis/courtside/internal/usage/domain"
	"go.uber.org/fx"
)

type Service struct {
	repo  domain.Repository
	clock clock.Clock
}

type ServiceParam struct {
	fx.In

	Repo  domain.Repository
	Clock clock.Clock
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		repo:  p.Repo,
		clock: p.Clock,
	}
}

func (s *Service) Today() string {
	return domain.DateKey(s.clock.Now())
}

func (s *Service) GetDailyUsage(ctx context.Context, userID snowflake.ID, dateKey string) (*domain.DailyUsage, error) {
	dateKey = s.resolveDateKey(dateKey)
	row, err := s.repo.Get(ctx, userID, dateKey)
	if err != nil {
		return nil, fmt.Errorf("read usage %s: %w", dateKey, err)
	}
	return row, nil
}

func (s *Service) IncrementUsage(ctx context.Context, userID snowflake.ID, delta domain.Delta, dateKey string) error {
	if err := delta.Validate(); err != nil {
		return err
	}
	if delta.IsZero() {
		return nil
	}
	dateKey = s.resolveDateKey(dateKey)
	if err := s.repo.Increment(ctx, userID, dateKey, delta); err != nil {
		return fmt.Errorf("increment usage %s: %w", dateKey, err)
	}
	return nil
}

func (s *Service) resolveDateKey(dateKey string) string {
	dateKey = strings.TrimSpace(dateKey)
	if dateKey == "" {
		return s.Today()
	}
	return dateKey
}
