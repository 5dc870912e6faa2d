// Package context carries request-scoped correlation values for logs and traces.
package context

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	actorKeyKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithActorKey records the resolved actor key (user:, anon: or system:).
func WithActorKey(ctx context.Context, actorKey string) context.Context {
	return context.WithValue(ctx, actorKeyKey, actorKey)
}

func ActorKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(actorKeyKey).(string)
	return v
}
