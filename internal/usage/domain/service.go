package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Today is the date key for the current UTC day.
	Today() string
	// GetDailyUsage returns nil when the user has no counters for dateKey. An empty dateKey means today.
	GetDailyUsage(ctx context.Context, userID snowflake.ID, dateKey string) (*DailyUsage, error)
	// IncrementUsage atomically adds delta to the counters for dateKey. An empty dateKey means today.
	IncrementUsage(ctx context.Context, userID snowflake.ID, delta Delta, dateKey string) error
}
