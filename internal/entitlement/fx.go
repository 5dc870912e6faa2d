package entitlement

import (
	"github.com/smallbiznis/courtside/internal/entitlement/repository"
	"github.com/smallbiznis/courtside/internal/entitlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
