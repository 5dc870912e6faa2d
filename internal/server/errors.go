package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/courtside/internal/auth/domain"
	billingdomain "github.com/smallbiznis/courtside/internal/billing/domain"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
	qadomain "github.com/smallbiznis/courtside/internal/qa/domain"
	"github.com/smallbiznis/courtside/internal/ratelimit"
	userdomain "github.com/smallbiznis/courtside/internal/user/domain"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// APIError is an error with a fixed status, code and client-facing message.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Status, errorPayload{Code: apiErr.Code, Message: apiErr.Message}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Code:    "UNAUTHORIZED",
			Message: "Authentication required.",
		}
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{
			Code:    "INVALID_CREDENTIALS",
			Message: "Email or password is incorrect.",
		}
	case errors.Is(err, authdomain.ErrEmailExists),
		errors.Is(err, userdomain.ErrUserExists):
		return http.StatusConflict, errorPayload{
			Code:    "EMAIL_ALREADY_EXISTS",
			Message: "An account with this email already exists.",
		}
	case errors.Is(err, authdomain.ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Code:    "INVALID_REQUEST",
			Message: "Body must include valid email and password (min 8 chars).",
		}
	case errors.Is(err, qadomain.ErrEmptyQuestion):
		return http.StatusBadRequest, errorPayload{
			Code:    "INVALID_QUESTION",
			Message: "Request body must include a non-empty question.",
		}
	case errors.Is(err, billingdomain.ErrInvalidSignature):
		return http.StatusBadRequest, errorPayload{
			Code:    "INVALID_STRIPE_SIGNATURE",
			Message: "Webhook signature verification failed.",
		}
	case errors.Is(err, billingdomain.ErrInvalidPayload):
		return http.StatusBadRequest, errorPayload{
			Code:    "INVALID_REQUEST",
			Message: "Webhook payload could not be parsed.",
		}
	case errors.Is(err, billingdomain.ErrCheckoutNotConfigured):
		return http.StatusServiceUnavailable, errorPayload{
			Code:    "STRIPE_NOT_CONFIGURED",
			Message: "Checkout is not configured for this plan.",
		}
	case errors.Is(err, billingdomain.ErrCheckoutURLMissing):
		return http.StatusBadGateway, errorPayload{
			Code:    "CHECKOUT_URL_UNAVAILABLE",
			Message: "Checkout session was created without a redirect URL.",
		}
	case errors.Is(err, billingdomain.ErrCheckoutFailed):
		return http.StatusBadGateway, errorPayload{
			Code:    "CHECKOUT_FAILED",
			Message: "Checkout session could not be created.",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Code:    "RATE_LIMITED",
			Message: "Too many requests, please try again shortly.",
		}
	case errors.Is(err, ratelimit.ErrUnavailable),
		errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Code:    "SERVICE_UNAVAILABLE",
			Message: "Service temporarily unavailable.",
		}
	case errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, entdomain.ErrNotFound):
		return http.StatusNotFound, errorPayload{
			Code:    "USER_NOT_FOUND",
			Message: "User context no longer exists.",
		}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, errorPayload{
			Code:    "NOT_FOUND",
			Message: "Route not found.",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error.",
		}
	}
}

// classifyErrorForLog reports the error class and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "server", payload.Code
	}
	return "client", payload.Code
}
