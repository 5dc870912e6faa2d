// Package domain holds subscription records mirrored from the payment provider.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusActive            Status = "active"
	StatusCheckoutCompleted Status = "checkout_completed"
	StatusCanceled          Status = "canceled"
	StatusPastDue           Status = "past_due"
	StatusIncomplete        Status = "incomplete"
)

// Subscription is the billing truth source for a user's plan.
type Subscription struct {
	ID                   snowflake.ID   `gorm:"primaryKey"`
	UserID               snowflake.ID   `gorm:"column:user_id;not null;index"`
	StripeCustomerID     *string        `gorm:"column:stripe_customer_id;type:text"`
	StripeSubscriptionID *string        `gorm:"column:stripe_subscription_id;type:text;uniqueIndex"`
	Status               Status         `gorm:"column:status;type:text;not null"`
	Plan                 entdomain.Plan `gorm:"column:plan;type:text;not null"`
	CurrentPeriodEnd     *time.Time     `gorm:"column:current_period_end"`
	CancelAtPeriodEnd    bool           `gorm:"column:cancel_at_period_end;not null;default:false"`
	Metadata             datatypes.JSON `gorm:"column:metadata;default:'{}'"`
	CreatedAt            time.Time      `gorm:"not null"`
	UpdatedAt            time.Time      `gorm:"not null;index"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// PlanForStatus maps a provider status to a plan. Only "active" grants PREMIUM;
// there is no grace period for past-due or canceled subscriptions.
func PlanForStatus(status Status) entdomain.Plan {
	if Status(strings.ToLower(strings.TrimSpace(string(status)))) == StatusActive {
		return entdomain.PlanPremium
	}
	return entdomain.PlanFree
}
