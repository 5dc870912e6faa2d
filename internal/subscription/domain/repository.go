package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type Repository interface {
	// FindLatestActive returns the most recently updated active subscription for the user.
	FindLatestActive(ctx context.Context, userID snowflake.ID) (*Subscription, error)
	FindByStripeID(ctx context.Context, stripeSubscriptionID string) (*Subscription, error)
	// FindLatestByCustomerID returns the most recently updated subscription for a payment customer.
	FindLatestByCustomerID(ctx context.Context, customerID string) (*Subscription, error)
	// UpsertByStripeID creates the subscription or updates status, plan and period fields
	// on the row with the same stripe subscription id.
	UpsertByStripeID(ctx context.Context, sub *Subscription) error
}
