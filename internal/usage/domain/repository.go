package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	// Get returns nil without error when no row exists for the day.
	Get(ctx context.Context, userID snowflake.ID, dateKey string) (*DailyUsage, error)
	// Increment adds delta in a single create-or-add statement.
	Increment(ctx context.Context, userID snowflake.ID, dateKey string, delta Delta) error
}
