package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
)

const (
	LimitReachedMessage = "Daily Q&A limit reached for your plan. Upgrade to premium for higher limits."
	TimedOutMessage     = "The query timed out. Please ask a narrower question."

	// SummaryMaxLen bounds the answer text kept in audit records.
	SummaryMaxLen = 240
)

var ErrEmptyQuestion = errors.New("question must not be empty")

type AskRequest struct {
	Question     string
	UserID       snowflake.ID
	FallbackPlan entdomain.Plan
}

type Service interface {
	// Ask writes exactly one audit record per call. Quota and timeout declines
	// are returned as answers, storage failures as errors.
	Ask(ctx context.Context, req AskRequest) (*Answer, error)
}
