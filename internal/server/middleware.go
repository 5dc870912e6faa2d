package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/courtside/internal/identity/domain"
	obscontext "github.com/smallbiznis/courtside/internal/observability/context"
	"github.com/smallbiznis/courtside/internal/observability/logger"
	"github.com/smallbiznis/courtside/internal/ratelimit"
	usagedomain "github.com/smallbiznis/courtside/internal/usage/domain"
	"go.uber.org/zap"
)

const contextActorKey = "actor_key"

// ResolveIdentity attaches the caller's ActorIdentity to the request context.
// It must run before RateLimit.
func (s *Server) ResolveIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := s.resolver.Resolve(c.Request.Context(), domain.RequestMeta{
			Authorization: c.GetHeader("Authorization"),
			ForwardedFor:  c.GetHeader("X-Forwarded-For"),
			PeerAddress:   c.RemoteIP(),
			Path:          c.Request.URL.Path,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := domain.WithActor(c.Request.Context(), actor)
		ctx = obscontext.WithActorKey(ctx, actor.ActorKey)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextActorKey, actor.ActorKey)
		c.Next()
	}
}

// RateLimit applies the fixed-window ceiling per actor and always reports the
// window in x-ratelimit-* headers. System actors are exempt.
func (s *Server) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		actor, ok := domain.ActorFromContext(ctx)
		if ok && actor.IsSystem() {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		actorType := "ip"
		if ok && actor.ActorKey != "" {
			key = actor.ActorKey
			actorType = actor.Type()
		}

		decision, err := s.limiter.Check(ctx, key)
		s.setRateLimitHeaders(c, decision)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		if !decision.Allowed {
			s.metrics.RecordRateLimitDenied(ctx, actorType, endpoint)
			logger.FromContext(ctx).Warn("rate limit exceeded",
				zap.String("actor_type", actorType),
				zap.String("endpoint", endpoint),
			)
			AbortWithError(c, ErrRateLimited)
			return
		}
		s.metrics.RecordRateLimitAllowed(ctx, actorType, endpoint)
		c.Next()
	}
}

// setRateLimitHeaders reports the window. A decision without a window, as
// returned when the store failed, resets one window from now.
func (s *Server) setRateLimitHeaders(c *gin.Context, decision ratelimit.Decision) {
	resetAt := decision.Window.ResetAt
	if resetAt.IsZero() {
		resetAt = s.clock.Now().Add(s.cfg.RateLimit.Window)
	}
	c.Header("x-ratelimit-limit", strconv.FormatInt(decision.Limit, 10))
	c.Header("x-ratelimit-remaining", strconv.FormatInt(decision.Remaining, 10))
	c.Header("x-ratelimit-reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// TrackUsage counts one API request per admitted authenticated call. The write
// runs in the background and never fails the request.
func (s *Server) TrackUsage() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/auth/") {
			c.Next()
			return
		}

		// System actors never carry a user id.
		actor, ok := domain.ActorFromContext(c.Request.Context())
		if !ok || !actor.Authenticated || actor.UserID == nil {
			c.Next()
			return
		}

		userID := *actor.UserID
		ctx := context.WithoutCancel(c.Request.Context())
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			err := s.usage.IncrementUsage(ctx, userID, usagedomain.Delta{APIRequests: 1}, "")
			if err != nil {
				s.metrics.RecordUsageIncrementFailure(ctx, "api_requests")
				logger.WithContext(ctx, s.log).Warn("api usage increment failed",
					zap.String("user_id", userID.String()),
					zap.Error(err),
				)
			}
		}()
		c.Next()
	}
}
