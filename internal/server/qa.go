package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/courtside/internal/identity/domain"
	qadomain "github.com/smallbiznis/courtside/internal/qa/domain"
)

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

func (s *Server) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		AbortWithError(c, qadomain.ErrEmptyQuestion)
		return
	}

	ctx := c.Request.Context()
	actor, ok := domain.ActorFromContext(ctx)
	if !ok || actor.UserID == nil {
		AbortWithError(c, newAPIError(http.StatusUnauthorized, "UNAUTHORIZED", "Missing user context for Q&A request."))
		return
	}

	answer, err := s.qasvc.Ask(ctx, qadomain.AskRequest{
		Question:     req.Question,
		UserID:       *actor.UserID,
		FallbackPlan: actor.Plan,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("qa_intent", string(answer.Meta.Intent))
	c.JSON(http.StatusOK, answer)
}
