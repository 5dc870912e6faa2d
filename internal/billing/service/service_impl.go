package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courtside/internal/billing/domain"
	"github.com/smallbiznis/courtside/internal/config"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
	"github.com/smallbiznis/courtside/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/courtside/internal/observability/metrics"
	subdomain "github.com/smallbiznis/courtside/internal/subscription/domain"
	userdomain "github.com/smallbiznis/courtside/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Service struct {
	log           *zap.Logger
	adapter       domain.Adapter
	subs          subdomain.Repository
	users         userdomain.Repository
	entitlements  entdomain.Service
	genID         *snowflake.Node
	metrics       *obsmetrics.Metrics
	missingSecret bool
}

type ServiceParam struct {
	fx.In

	Log          *zap.Logger
	Cfg          config.Config
	Adapter      domain.Adapter
	Subs         subdomain.Repository
	Users        userdomain.Repository
	Entitlements entdomain.Service
	GenID        *snowflake.Node
	Metrics      *obsmetrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) domain.Service {
	svc := &Service{
		log:           p.Log.Named("billing.service"),
		adapter:       p.Adapter,
		subs:          p.Subs,
		users:         p.Users,
		entitlements:  p.Entitlements,
		genID:         p.GenID,
		metrics:       p.Metrics,
		missingSecret: p.Cfg.IsProduction() && strings.TrimSpace(p.Cfg.Billing.StripeWebhookSecret) == "",
	}
	if svc.missingSecret {
		svc.log.Error("stripe webhook secret is not configured, all webhooks will be rejected")
	}
	return svc
}

func (s *Service) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) (domain.Outcome, error) {
	log := logger.WithContext(ctx, s.log)

	if s.missingSecret {
		return domain.Outcome{}, domain.ErrInvalidSignature
	}
	if err := s.adapter.Verify(payload, headers); err != nil {
		log.Warn("webhook signature rejected", zap.String("provider", s.adapter.Provider()))
		return domain.Outcome{}, err
	}

	event, err := s.adapter.Parse(payload)
	if errors.Is(err, domain.ErrEventIgnored) {
		return domain.Outcome{Received: true, Ignored: true}, nil
	}
	if err != nil {
		return domain.Outcome{}, err
	}
	log = log.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	user, err := s.resolveUser(ctx, event)
	if err != nil {
		return domain.Outcome{}, err
	}
	if user == nil {
		log.Warn("webhook event has no matching user")
		return domain.Outcome{Received: true, Ignored: true}, nil
	}

	switch {
	case event.Type == domain.EventCheckoutCompleted:
		err = s.handleCheckout(ctx, user, event)
	case event.IsSubscriptionChange():
		err = s.handleSubscription(ctx, user, event)
	default:
		return domain.Outcome{Received: true, Ignored: true}, nil
	}
	if err != nil {
		log.Error("webhook event failed", zap.Error(err))
		return domain.Outcome{}, err
	}

	s.metrics.RecordBillingEvent(ctx, event.Provider, event.Type)
	log.Info("webhook event applied", zap.String("user_id", user.ID.String()), zap.String("status", event.Status))
	return domain.Outcome{Received: true}, nil
}

func (s *Service) handleSubscription(ctx context.Context, user *userdomain.User, event *domain.Event) error {
	plan := subdomain.PlanForStatus(subdomain.Status(event.Status))
	sub := &subdomain.Subscription{
		ID:                   s.genID.Generate(),
		UserID:               user.ID,
		StripeCustomerID:     optional(event.CustomerID),
		StripeSubscriptionID: optional(event.SubscriptionID),
		Status:               subdomain.Status(event.Status),
		Plan:                 plan,
		CurrentPeriodEnd:     event.CurrentPeriodEnd,
		CancelAtPeriodEnd:    event.CancelAtPeriodEnd,
		Metadata:             metadataJSON(event.Metadata),
	}
	if err := s.subs.UpsertByStripeID(ctx, sub); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	if err := s.rememberCustomer(ctx, user, event.CustomerID); err != nil {
		return err
	}
	if _, err := s.entitlements.ApplyPlan(ctx, user.ID, plan); err != nil {
		return fmt.Errorf("apply plan: %w", err)
	}
	return nil
}

// handleCheckout records the pending subscription. The plan itself only changes
// on the subscription events that follow.
func (s *Service) handleCheckout(ctx context.Context, user *userdomain.User, event *domain.Event) error {
	if event.SubscriptionID != "" {
		_, err := s.subs.FindByStripeID(ctx, event.SubscriptionID)
		switch {
		case err == nil:
			// a subscription event already arrived and carries a fresher status
		case errors.Is(err, subdomain.ErrSubscriptionNotFound):
			if err := s.subs.UpsertByStripeID(ctx, s.pendingSubscription(user, event)); err != nil {
				return fmt.Errorf("record checkout: %w", err)
			}
		default:
			return err
		}
	} else if event.CustomerID != "" {
		if err := s.subs.UpsertByStripeID(ctx, s.pendingSubscription(user, event)); err != nil {
			return fmt.Errorf("record checkout: %w", err)
		}
	}
	return s.rememberCustomer(ctx, user, event.CustomerID)
}

func (s *Service) pendingSubscription(user *userdomain.User, event *domain.Event) *subdomain.Subscription {
	return &subdomain.Subscription{
		ID:                   s.genID.Generate(),
		UserID:               user.ID,
		StripeCustomerID:     optional(event.CustomerID),
		StripeSubscriptionID: optional(event.SubscriptionID),
		Status:               subdomain.StatusCheckoutCompleted,
		Plan:                 entdomain.PlanFree,
		Metadata:             metadataJSON(event.Metadata),
	}
}

func (s *Service) rememberCustomer(ctx context.Context, user *userdomain.User, customerID string) error {
	if customerID == "" || (user.StripeCustomerID != nil && *user.StripeCustomerID == customerID) {
		return nil
	}
	if err := s.users.UpdateStripeCustomerID(ctx, user.ID, customerID); err != nil {
		return fmt.Errorf("record stripe customer: %w", err)
	}
	return nil
}

// resolveUser tries metadata userId, the checkout reference, metadata actorKey
// and finally the payment customer id.
func (s *Service) resolveUser(ctx context.Context, event *domain.Event) (*userdomain.User, error) {
	for _, raw := range []string{event.Metadata["userId"], event.ClientReferenceID} {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		user, err := s.users.FindByID(ctx, id)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, userdomain.ErrUserNotFound) {
			return nil, err
		}
	}

	if actorKey := strings.TrimSpace(event.Metadata["actorKey"]); actorKey != "" {
		user, err := s.users.FindByExternalKey(ctx, actorKey)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, userdomain.ErrUserNotFound) {
			return nil, err
		}
	}

	if event.CustomerID == "" {
		return nil, nil
	}
	user, err := s.users.FindByStripeCustomerID(ctx, event.CustomerID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, userdomain.ErrUserNotFound) {
		return nil, err
	}

	sub, err := s.subs.FindLatestByCustomerID(ctx, event.CustomerID)
	if errors.Is(err, subdomain.ErrSubscriptionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user, err = s.users.FindByID(ctx, sub.UserID)
	if errors.Is(err, userdomain.ErrUserNotFound) {
		return nil, nil
	}
	return user, err
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func metadataJSON(m map[string]string) datatypes.JSON {
	if len(m) == 0 {
		return datatypes.JSON("{}")
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
