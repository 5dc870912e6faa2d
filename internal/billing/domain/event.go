// Package domain describes payment provider events that change a user's plan.
package domain

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrEventIgnored     = errors.New("webhook event ignored")
)

const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Event is the provider-neutral shape of a handled webhook.
type Event struct {
	Provider          string
	ID                string
	Type              string
	SubscriptionID    string
	CustomerID        string
	Status            string
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
	// Metadata carries userId and actorKey set at checkout.
	Metadata          map[string]string
	ClientReferenceID string
	OccurredAt        time.Time
	RawPayload        []byte
}

func (e Event) IsSubscriptionChange() bool {
	switch e.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		return true
	}
	return false
}

// Adapter verifies and decodes one provider's webhooks.
type Adapter interface {
	Provider() string
	Verify(payload []byte, headers http.Header) error
	// Parse returns ErrEventIgnored for event types that do not affect plans.
	Parse(payload []byte) (*Event, error)
}

// Outcome is reported back to the provider.
type Outcome struct {
	Received bool `json:"received"`
	Ignored  bool `json:"ignored,omitempty"`
}

type Service interface {
	HandleWebhook(ctx context.Context, payload []byte, headers http.Header) (Outcome, error)
}
