package identity

import (
	"github.com/smallbiznis/courtside/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity",
	fx.Provide(service.NewResolver),
)
