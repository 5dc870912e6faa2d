package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/courtside/internal/billing/domain"
	identitydomain "github.com/smallbiznis/courtside/internal/identity/domain"
	"go.uber.org/zap"
)

type checkoutRequest struct {
	Interval string `json:"interval"`
	Plan     string `json:"plan"`
}

// Checkout opens a premium subscription checkout for a signed-in user. The
// webhook later resolves the user from the metadata attached here.
func (s *Server) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	actor, ok := identitydomain.ActorFromContext(ctx)
	if !ok || !actor.Authenticated || actor.UserID == nil {
		AbortWithError(c, newAPIError(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication is required for checkout."))
		return
	}

	var req checkoutRequest
	// An empty body selects the monthly price.
	_ = c.ShouldBindJSON(&req)
	interval := req.Interval
	if interval == "" {
		interval = req.Plan
	}

	session, err := s.checkout.CreateCheckoutSession(ctx, billingdomain.CheckoutRequest{
		UserID:   actor.UserID.String(),
		ActorKey: actor.ActorKey,
		Interval: interval,
	})
	if err != nil {
		s.log.Warn("checkout session failed", zap.String("actor_key", actor.ActorKey), zap.Error(err))
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": session.URL})
}
