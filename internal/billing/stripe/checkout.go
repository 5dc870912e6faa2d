package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/courtside/internal/billing/domain"
	"github.com/smallbiznis/courtside/internal/config"
)

const apiBase = "https://api.stripe.com"

type checkoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CheckoutClient creates subscription checkout sessions over the Stripe REST API.
type CheckoutClient struct {
	apiKey     string
	baseURL    string
	prices     map[string]string
	successURL string
	cancelURL  string
	client     *http.Client
}

func NewCheckoutClient(cfg config.BillingConfig) *CheckoutClient {
	return &CheckoutClient{
		apiKey:  strings.TrimSpace(cfg.StripeSecretKey),
		baseURL: apiBase,
		prices: map[string]string{
			domain.IntervalMonthly: strings.TrimSpace(cfg.StripePriceMonthly),
			domain.IntervalAnnual:  strings.TrimSpace(cfg.StripePriceAnnual),
		},
		successURL: cfg.StripeSuccessURL,
		cancelURL:  cfg.StripeCancelURL,
		client:     &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *CheckoutClient) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutSession, error) {
	interval := domain.NormalizeInterval(req.Interval)
	priceID := c.prices[interval]
	if c.apiKey == "" || priceID == "" {
		return domain.CheckoutSession{}, fmt.Errorf("%w: %s price", domain.ErrCheckoutNotConfigured, interval)
	}

	values := url.Values{}
	values.Set("mode", "subscription")
	values.Set("success_url", c.successURL)
	values.Set("cancel_url", c.cancelURL)
	values.Set("line_items[0][price]", priceID)
	values.Set("line_items[0][quantity]", "1")
	values.Set("client_reference_id", req.UserID)
	for _, prefix := range []string{"metadata", "subscription_data[metadata]"} {
		values.Set(prefix+"[userId]", req.UserID)
		values.Set(prefix+"[actorKey]", req.ActorKey)
		values.Set(prefix+"[priceId]", priceID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", strings.NewReader(values.Encode()))
	if err != nil {
		return domain.CheckoutSession{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return domain.CheckoutSession{}, fmt.Errorf("%w: %v", domain.ErrCheckoutFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&stripeErr)
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = resp.Status
		}
		return domain.CheckoutSession{}, fmt.Errorf("%w: %s", domain.ErrCheckoutFailed, message)
	}

	var session checkoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return domain.CheckoutSession{}, fmt.Errorf("%w: %v", domain.ErrCheckoutFailed, err)
	}
	if session.URL == "" {
		return domain.CheckoutSession{}, domain.ErrCheckoutURLMissing
	}
	return domain.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}
