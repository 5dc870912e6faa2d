package subscription

import (
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
	"github.com/smallbiznis/courtside/internal/subscription/domain"
	"github.com/smallbiznis/courtside/internal/subscription/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription",
	fx.Provide(repository.New),
	fx.Provide(
		func(r *repository.Repository) domain.Repository { return r },
		func(r *repository.Repository) entdomain.BillingSource { return r },
	),
)
