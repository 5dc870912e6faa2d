package domain

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrCheckoutNotConfigured = errors.New("checkout is not configured")
	ErrCheckoutFailed        = errors.New("checkout session could not be created")
	ErrCheckoutURLMissing    = errors.New("checkout session has no redirect url")
)

const (
	IntervalMonthly = "monthly"
	IntervalAnnual  = "annual"
)

// NormalizeInterval maps "annual" and "yearly" to IntervalAnnual and anything else to IntervalMonthly.
func NormalizeInterval(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "annual", "yearly":
		return IntervalAnnual
	}
	return IntervalMonthly
}

// CheckoutRequest starts a premium subscription for an authenticated user.
// UserID and ActorKey are echoed back in the webhook metadata.
type CheckoutRequest struct {
	UserID   string
	ActorKey string
	Interval string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
}
