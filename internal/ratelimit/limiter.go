package ratelimit

import (
	"context"
	"errors"

	"github.com/smallbiznis/courtside/internal/config"
	"github.com/smallbiznis/courtside/internal/observability/metrics"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when the store failed and the limiter fails closed.
var ErrUnavailable = errors.New("rate limiter unavailable")

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	Window    Window
	// Degraded is set when the store failed and the request was let through.
	Degraded bool
}

// Limiter applies the configured ceiling to a Store.
type Limiter struct {
	store   Store
	cfg     config.RateLimitConfig
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewLimiter(store Store, cfg config.RateLimitConfig, log *zap.Logger, m *metrics.Metrics) *Limiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Limiter{
		store:   store,
		cfg:     cfg,
		log:     log.Named("ratelimit"),
		metrics: m,
	}
}

func (l *Limiter) Limit() int64 {
	return l.cfg.RequestsPerWindow
}

func (l *Limiter) Check(ctx context.Context, key string) (Decision, error) {
	limit := l.cfg.RequestsPerWindow
	win, err := l.store.Increment(ctx, key, l.cfg.Window)
	if err != nil {
		l.metrics.RecordRateLimitDegraded(ctx, l.cfg.FailMode)
		if l.cfg.FailMode == config.FailModeClosed {
			l.log.Error("rate limit store failed, rejecting", zap.Error(err))
			return Decision{Limit: limit}, errors.Join(ErrUnavailable, err)
		}
		l.log.Warn("rate limit store failed, admitting", zap.Error(err))
		return Decision{Allowed: true, Limit: limit, Remaining: limit, Degraded: true}, nil
	}

	remaining := limit - win.Count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   win.Count <= limit,
		Limit:     limit,
		Remaining: remaining,
		Window:    win,
	}, nil
}
