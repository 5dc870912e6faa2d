package user

import (
	"github.com/smallbiznis/courtside/internal/user/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("user",
	fx.Provide(repository.New),
)
