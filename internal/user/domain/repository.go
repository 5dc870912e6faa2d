package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	FindByExternalKey(ctx context.Context, externalKey string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (*User, error)
	UpdatePlan(ctx context.Context, id snowflake.ID, plan entdomain.Plan) error
	UpdateStripeCustomerID(ctx context.Context, id snowflake.ID, customerID string) error
}
