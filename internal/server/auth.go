package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/courtside/internal/auth/domain"
	"github.com/smallbiznis/courtside/internal/identity/domain"
)

func (s *Server) Register(c *gin.Context) {
	var req authdomain.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, authdomain.ErrInvalidRequest)
		return
	}

	result, err := s.authsvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) Login(c *gin.Context) {
	var req authdomain.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, authdomain.ErrInvalidRequest)
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) AuthMe(c *gin.Context) {
	actor, ok := domain.ActorFromContext(c.Request.Context())
	if !ok || !actor.Authenticated || actor.UserID == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	profile, err := s.authsvc.Profile(c.Request.Context(), *actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if profile == nil {
		AbortWithError(c, newAPIError(http.StatusNotFound, "USER_NOT_FOUND", "Authenticated user no longer exists."))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":              profile.ID.String(),
			"email":           profile.Email,
			"plan":            profile.Plan,
			"actorKey":        actor.ActorKey,
			"isAuthenticated": true,
		},
	})
}
