package analytics

import (
	"github.com/smallbiznis/courtside/internal/analytics/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("analytics",
	fx.Provide(repository.New),
)
