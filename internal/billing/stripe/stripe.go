package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/courtside/internal/billing/domain"
	"github.com/smallbiznis/courtside/internal/clock"
)

const (
	provider = "stripe"

	// DefaultTolerance bounds how old a signed timestamp may be.
	DefaultTolerance = 5 * time.Minute
)

type Adapter struct {
	webhookSecret string
	tolerance     time.Duration
	clock         clock.Clock
}

// NewAdapter returns an adapter that skips signature checks when secret is empty.
func NewAdapter(secret string, clk clock.Clock) *Adapter {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Adapter{
		webhookSecret: strings.TrimSpace(secret),
		tolerance:     DefaultTolerance,
		clock:         clk,
	}
}

func (a *Adapter) Provider() string {
	return provider
}

func (a *Adapter) Verify(payload []byte, headers http.Header) error {
	if a.webhookSecret == "" {
		return nil
	}
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return domain.ErrInvalidSignature
	}

	ts, signatures, err := parseStripeSignature(sigHeader)
	if err != nil {
		return domain.ErrInvalidSignature
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return domain.ErrInvalidSignature
	}
	if age := a.clock.Now().Sub(time.Unix(unix, 0)); age > a.tolerance || age < -a.tolerance {
		return domain.ErrInvalidSignature
	}

	expected := Sign(a.webhookSecret, ts, payload)
	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}
	return domain.ErrInvalidSignature
}

func (a *Adapter) Parse(payload []byte) (*domain.Event, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, domain.ErrInvalidPayload
	}

	eventType := strings.TrimSpace(event.Type)
	switch eventType {
	case domain.EventCheckoutCompleted:
		return parseCheckout(event, payload)
	case domain.EventSubscriptionCreated, domain.EventSubscriptionUpdated, domain.EventSubscriptionDeleted:
		return parseSubscription(event, payload)
	default:
		return nil, domain.ErrEventIgnored
	}
}

// Sign computes the v1 signature for a timestamp and payload.
func Sign(secret, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(timestamp + "." + string(payload)))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeader builds a Stripe-Signature header value.
func SignatureHeader(secret string, at time.Time, payload []byte) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return fmt.Sprintf("t=%s,v1=%s", ts, Sign(secret, ts, payload))
}

type stripeEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeCheckoutSession struct {
	ID                string            `json:"id"`
	Customer          json.RawMessage   `json:"customer"`
	Subscription      json.RawMessage   `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

type stripeSubscription struct {
	ID                string            `json:"id"`
	Customer          json.RawMessage   `json:"customer"`
	Status            string            `json:"status"`
	CurrentPeriodEnd  int64             `json:"current_period_end"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	Metadata          map[string]string `json:"metadata"`
}

func parseCheckout(event stripeEvent, payload []byte) (*domain.Event, error) {
	var session stripeCheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	return &domain.Event{
		Provider:          provider,
		ID:                event.ID,
		Type:              domain.EventCheckoutCompleted,
		SubscriptionID:    expandableID(session.Subscription),
		CustomerID:        expandableID(session.Customer),
		Status:            "checkout_completed",
		Metadata:          session.Metadata,
		ClientReferenceID: strings.TrimSpace(session.ClientReferenceID),
		OccurredAt:        unixTime(event.Created),
		RawPayload:        payload,
	}, nil
}

func parseSubscription(event stripeEvent, payload []byte) (*domain.Event, error) {
	var sub stripeSubscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(sub.ID) == "" {
		return nil, domain.ErrInvalidPayload
	}

	var periodEnd *time.Time
	if sub.CurrentPeriodEnd > 0 {
		t := unixTime(sub.CurrentPeriodEnd)
		periodEnd = &t
	}
	return &domain.Event{
		Provider:          provider,
		ID:                event.ID,
		Type:              strings.TrimSpace(event.Type),
		SubscriptionID:    sub.ID,
		CustomerID:        expandableID(sub.Customer),
		Status:            strings.TrimSpace(sub.Status),
		CurrentPeriodEnd:  periodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		Metadata:          sub.Metadata,
		OccurredAt:        unixTime(event.Created),
		RawPayload:        payload,
	}, nil
}

// expandableID reads a field that is either an id string or an expanded object.
func expandableID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return strings.TrimSpace(id)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.ID)
	}
	return ""
}

func parseStripeSignature(header string) (string, []string, error) {
	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "t":
			timestamp = strings.TrimSpace(value)
		case "v1":
			signatures = append(signatures, strings.TrimSpace(value))
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func unixTime(v int64) time.Time {
	if v == 0 {
		return time.Now().UTC()
	}
	return time.Unix(v, 0).UTC()
}
