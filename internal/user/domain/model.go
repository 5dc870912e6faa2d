// Package domain contains the user account record shared by identity, auth and billing.
package domain

import (
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
)

// User is an account that can authenticate and hold a plan.
type User struct {
	ID               snowflake.ID   `gorm:"primaryKey"`
	ExternalKey      string         `gorm:"column:external_key;type:text;not null;uniqueIndex"`
	Email            *string        `gorm:"column:email;type:text;uniqueIndex"`
	PasswordHash     *string        `gorm:"column:password_hash;type:text"`
	Plan             entdomain.Plan `gorm:"column:plan;type:text;not null"`
	StripeCustomerID *string        `gorm:"column:stripe_customer_id;type:text;index"`
	CreatedAt        time.Time      `gorm:"not null"`
	UpdatedAt        time.Time      `gorm:"not null"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// ActorKey is the rate-limit and logging key for an authenticated user.
func (u User) ActorKey() string {
	return "user:" + strconv.FormatInt(u.ID.Int64(), 10)
}
