// Package domain describes email and password authentication.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
)

type Service interface {
	Register(ctx context.Context, req Credentials) (*Result, error)
	Login(ctx context.Context, req Credentials) (*Result, error)
	// Profile returns nil when the user no longer exists or has no email.
	Profile(ctx context.Context, userID snowflake.ID) (*UserView, error)
}

type Credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type UserView struct {
	ID    snowflake.ID   `json:"id,string"`
	Email string         `json:"email"`
	Plan  entdomain.Plan `json:"plan"`
}

type Result struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserView  `json:"user"`
}
