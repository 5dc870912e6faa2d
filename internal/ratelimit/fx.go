package ratelimit

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/courtside/internal/clock"
	"github.com/smallbiznis/courtside/internal/config"
	"github.com/smallbiznis/courtside/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewStore),
	fx.Provide(func(store Store, cfg config.Config, log *zap.Logger, m *metrics.Metrics) *Limiter {
		return NewLimiter(store, cfg.RateLimit, log, m)
	}),
)

// NewStore selects the shared backend when a Redis address is configured and
// the in-process table otherwise.
func NewStore(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, log *zap.Logger) Store {
	var store Store
	addr := strings.TrimSpace(cfg.RateLimit.RedisAddr)
	if addr != "" {
		store = NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: strings.TrimSpace(cfg.RateLimit.RedisPassword),
			DB:       cfg.RateLimit.RedisDB,
		}), clk)
		log.Info("rate limit backend", zap.String("backend", "redis"), zap.String("addr", addr))
	} else {
		store = NewMemoryStore(clk)
		log.Info("rate limit backend", zap.String("backend", "memory"))
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store
}
