package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Synchronize reconciles the user's plan and entitlement row with billing. It returns
	// nil without error when the user does not exist.
	Synchronize(ctx context.Context, userID snowflake.ID) (*Entitlement, error)
	// Get returns the stored entitlement, creating one for fallback when none exists.
	Get(ctx context.Context, userID snowflake.ID, fallback Plan) (*Entitlement, error)
	// ApplyPlan moves the user and their entitlement to plan.
	ApplyPlan(ctx context.Context, userID snowflake.ID, plan Plan) (*Entitlement, error)
	Limits(plan Plan) Limits
}
