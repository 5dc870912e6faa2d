package usage

import (
	"github.com/smallbiznis/courtside/internal/usage/repository"
	"github.com/smallbiznis/courtside/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
