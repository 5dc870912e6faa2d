package qa

import (
	"github.com/smallbiznis/courtside/internal/qa/repository"
	"github.com/smallbiznis/courtside/internal/qa/service"
	"github.com/smallbiznis/courtside/internal/qa/template"
	"go.uber.org/fx"
)

var Module = fx.Module("qa",
	fx.Provide(template.New),
	fx.Provide(repository.NewAuditRepository),
	fx.Provide(service.NewService),
)
