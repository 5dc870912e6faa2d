package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courtside/internal/auth/token"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
	"github.com/smallbiznis/courtside/internal/identity/domain"
	"github.com/smallbiznis/courtside/internal/observability/logger"
	userdomain "github.com/smallbiznis/courtside/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Resolver struct {
	log          *zap.Logger
	tokens       *token.Issuer
	users        userdomain.Repository
	entitlements entdomain.Service
}

type ResolverParam struct {
	fx.In

	Log          *zap.Logger
	Tokens       *token.Issuer
	Users        userdomain.Repository
	Entitlements entdomain.Service
}

func NewResolver(p ResolverParam) domain.Resolver {
	return &Resolver{
		log:          p.Log.Named("identity.resolver"),
		tokens:       p.Tokens,
		users:        p.Users,
		entitlements: p.Entitlements,
	}
}

func (r *Resolver) Resolve(ctx context.Context, meta domain.RequestMeta) (domain.ActorIdentity, error) {
	if key, ok := systemActor(meta.Path); ok {
		return domain.ActorIdentity{ActorKey: key, Plan: entdomain.PlanFree}, nil
	}

	user, err := r.authenticate(ctx, meta.Authorization)
	if err != nil {
		return domain.ActorIdentity{}, err
	}
	if user != nil {
		ent, err := r.entitlements.Synchronize(ctx, user.ID)
		if err != nil {
			return domain.ActorIdentity{}, fmt.Errorf("synchronize entitlement: %w", err)
		}
		plan := user.Plan
		if ent != nil {
			plan = ent.Plan
		}
		id := user.ID
		return domain.ActorIdentity{
			ActorKey:      user.ActorKey(),
			UserID:        &id,
			Authenticated: true,
			Plan:          plan,
		}, nil
	}

	actor := domain.ActorIdentity{
		ActorKey: AnonymousKey(meta.ForwardedFor, meta.PeerAddress),
		Plan:     entdomain.PlanFree,
	}
	r.healAnonymous(ctx, actor.ActorKey)
	return actor, nil
}

// authenticate returns nil when there is no usable token or no matching user.
// Only storage failures are returned as errors.
func (r *Resolver) authenticate(ctx context.Context, authorization string) (*userdomain.User, error) {
	raw, err := token.ExtractBearer(authorization)
	if err != nil {
		return nil, nil
	}
	claims, err := r.tokens.Verify(raw)
	if err != nil {
		return nil, nil
	}

	sub := strings.TrimSpace(claims.Subject)
	if id, err := strconv.ParseInt(sub, 10, 64); err == nil {
		user, err := r.users.FindByID(ctx, snowflake.ID(id))
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, userdomain.ErrUserNotFound) {
			return nil, err
		}
	}

	user, err := r.users.FindByExternalKey(ctx, "auth:"+sub)
	if errors.Is(err, userdomain.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// healAnonymous forces a stale persisted anonymous record back to FREE.
func (r *Resolver) healAnonymous(ctx context.Context, actorKey string) {
	log := logger.WithContext(ctx, r.log)

	user, err := r.users.FindByExternalKey(ctx, actorKey)
	if errors.Is(err, userdomain.ErrUserNotFound) {
		return
	}
	if err != nil {
		log.Warn("anonymous record lookup failed", zap.Error(err))
		return
	}
	if user.Plan == entdomain.PlanFree {
		return
	}

	log.Warn("anonymous actor held a paid plan, downgrading",
		zap.String("user_id", user.ID.String()),
		zap.String("plan", string(user.Plan)),
	)
	if _, err := r.entitlements.ApplyPlan(ctx, user.ID, entdomain.PlanFree); err != nil {
		log.Warn("anonymous downgrade failed", zap.Error(err))
	}
}

func systemActor(path string) (string, bool) {
	switch {
	case strings.HasPrefix(path, "/billing/webhook"):
		return domain.ActorStripeWebhook, true
	case strings.HasPrefix(path, "/health"):
		return domain.ActorHealthcheck, true
	}
	return "", false
}

// AnonymousKey hashes the first forwarded address, or the peer address when
// there is none.
func AnonymousKey(forwardedFor, peer string) string {
	ip := strings.TrimSpace(peer)
	if first, _, _ := strings.Cut(forwardedFor, ","); strings.TrimSpace(first) != "" {
		ip = strings.TrimSpace(first)
	}
	sum := sha256.Sum256([]byte(ip))
	return "anon:" + hex.EncodeToString(sum[:])
}
