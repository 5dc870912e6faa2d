package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smallbiznis/courtside/internal/billing/domain"
	"github.com/smallbiznis/courtside/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckoutClient(t *testing.T, handler http.HandlerFunc) *CheckoutClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewCheckoutClient(config.BillingConfig{
		StripeSecretKey:    "sk_test",
		StripePriceMonthly: "price_month",
		StripePriceAnnual:  "price_year",
		StripeSuccessURL:   "http://localhost:3000/billing/success",
		StripeCancelURL:    "http://localhost:3000/billing/cancel",
	})
	client.baseURL = srv.URL
	return client
}

func TestCreateCheckoutSessionSendsMetadata(t *testing.T) {
	client := newCheckoutClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "subscription", r.PostForm.Get("mode"))
		assert.Equal(t, "price_year", r.PostForm.Get("line_items[0][price]"))
		assert.Equal(t, "42", r.PostForm.Get("client_reference_id"))
		assert.Equal(t, "42", r.PostForm.Get("metadata[userId]"))
		assert.Equal(t, "user:abc", r.PostForm.Get("subscription_data[metadata][actorKey]"))
		_, _ = w.Write([]byte(`{"id":"cs_1","url":"https://checkout.stripe.com/c/cs_1"}`))
	})

	session, err := client.CreateCheckoutSession(context.Background(), domain.CheckoutRequest{
		UserID: "42", ActorKey: "user:abc", Interval: "Yearly",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", session.URL)
}

func TestCreateCheckoutSessionFailures(t *testing.T) {
	unconfigured := NewCheckoutClient(config.BillingConfig{StripePriceMonthly: "price_month"})
	_, err := unconfigured.CreateCheckoutSession(context.Background(), domain.CheckoutRequest{UserID: "1"})
	assert.ErrorIs(t, err, domain.ErrCheckoutNotConfigured)

	rejected := newCheckoutClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"No such price"}}`))
	})
	_, err = rejected.CreateCheckoutSession(context.Background(), domain.CheckoutRequest{UserID: "1"})
	assert.ErrorIs(t, err, domain.ErrCheckoutFailed)
	assert.Contains(t, err.Error(), "No such price")

	noURL := newCheckoutClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"cs_2"}`))
	})
	_, err = noURL.CreateCheckoutSession(context.Background(), domain.CheckoutRequest{UserID: "1"})
	assert.ErrorIs(t, err, domain.ErrCheckoutURLMissing)
}

func TestNormalizeInterval(t *testing.T) {
	assert.Equal(t, domain.IntervalAnnual, domain.NormalizeInterval(" ANNUAL "))
	assert.Equal(t, domain.IntervalAnnual, domain.NormalizeInterval("yearly"))
	assert.Equal(t, domain.IntervalMonthly, domain.NormalizeInterval(""))
	assert.Equal(t, domain.IntervalMonthly, domain.NormalizeInterval("weekly"))
}
