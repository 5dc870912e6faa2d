package billing

import (
	"github.com/smallbiznis/courtside/internal/billing/domain"
	"github.com/smallbiznis/courtside/internal/billing/service"
	"github.com/smallbiznis/courtside/internal/billing/stripe"
	"github.com/smallbiznis/courtside/internal/clock"
	"github.com/smallbiznis/courtside/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(func(cfg config.Config, clk clock.Clock) domain.Adapter {
		return stripe.NewAdapter(cfg.Billing.StripeWebhookSecret, clk)
	}),
	fx.Provide(func(cfg config.Config) domain.CheckoutProvider {
		return stripe.NewCheckoutClient(cfg.Billing)
	}),
	fx.Provide(service.NewService),
)
