package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	FindByUserID(ctx context.Context, userID snowflake.ID) (*Entitlement, error)
	// Upsert inserts the row or overwrites plan and limits on the existing row for the user.
	Upsert(ctx context.Context, entitlement *Entitlement) error
}

// BillingSource is the read side of the billing truth source.
type BillingSource interface {
	HasActiveSubscription(ctx context.Context, userID snowflake.ID) (bool, error)
}
