// Package domain describes who a request is billed and rate limited against.
package domain

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
)

const (
	ActorStripeWebhook = "system:stripe-webhook"
	ActorHealthcheck   = "system:healthcheck"

	ActorTypeUser      = "user"
	ActorTypeAnonymous = "anon"
	ActorTypeSystem    = "system"
)

// RequestMeta is the transport data identity resolution reads.
type RequestMeta struct {
	Authorization string
	ForwardedFor  string
	PeerAddress   string
	Path          string
}

// ActorIdentity is the resolved caller for one request.
type ActorIdentity struct {
	ActorKey      string
	UserID        *snowflake.ID
	Authenticated bool
	Plan          entdomain.Plan
}

// Type is the actor key namespace: user, anon or system.
func (a ActorIdentity) Type() string {
	prefix, _, _ := strings.Cut(a.ActorKey, ":")
	return prefix
}

func (a ActorIdentity) IsSystem() bool {
	return a.Type() == ActorTypeSystem
}

type Resolver interface {
	Resolve(ctx context.Context, meta RequestMeta) (ActorIdentity, error)
}

type actorKey struct{}

func WithActor(ctx context.Context, actor ActorIdentity) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (ActorIdentity, bool) {
	if ctx == nil {
		return ActorIdentity{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(ActorIdentity)
	return actor, ok
}
