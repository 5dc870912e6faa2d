package auth

import (
	"github.com/smallbiznis/courtside/internal/auth/service"
	"github.com/smallbiznis/courtside/internal/auth/token"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(token.NewIssuer),
	fx.Provide(service.NewService),
)
