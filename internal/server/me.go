package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/courtside/internal/identity/domain"
)

// Me reports the caller's plan, quotas and today's usage.
func (s *Server) Me(c *gin.Context) {
	ctx := c.Request.Context()
	actor, ok := domain.ActorFromContext(ctx)
	if !ok || actor.UserID == nil {
		AbortWithError(c, newAPIError(http.StatusUnauthorized, "UNAUTHORIZED", "No user context was found for this request."))
		return
	}

	user, err := s.users.FindByID(ctx, *actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	ent, err := s.entitlements.Get(ctx, user.ID, user.Plan)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	date := s.usage.Today()
	usage, err := s.usage.GetDailyUsage(ctx, user.ID, date)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var qaQueries, apiRequests int64
	if usage != nil {
		qaQueries = usage.QAQueries
		apiRequests = usage.APIRequests
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":              user.ID.String(),
			"actorKey":        user.ExternalKey,
			"plan":            ent.Plan,
			"isAuthenticated": actor.Authenticated,
		},
		"limits": ent.Limits(),
		"usage": gin.H{
			"date":        date,
			"qaQueries":   qaQueries,
			"apiRequests": apiRequests,
			"qaRemaining": max(int64(ent.QADailyLimit)-qaQueries, 0),
		},
	})
}
