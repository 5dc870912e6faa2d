// Package domain contains plan and quota types for the entitlement synchronizer.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courtside/internal/config"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree    Plan = config.PlanFree
	PlanPremium Plan = config.PlanPremium
)

// Limits are the numeric quotas a plan grants.
type Limits struct {
	QADailyLimit int `json:"qaDailyLimit"`
	QARowLimit   int `json:"qaRowLimit"`
}

// Entitlement is the single quota row kept per user.
type Entitlement struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id,string"`
	UserID       snowflake.ID `gorm:"column:user_id;not null;uniqueIndex" json:"userId,string"`
	Plan         Plan         `gorm:"column:plan;type:text;not null" json:"plan"`
	QADailyLimit int          `gorm:"column:qa_daily_limit;not null" json:"qaDailyLimit"`
	QARowLimit   int          `gorm:"column:qa_row_limit;not null" json:"qaRowLimit"`
	CreatedAt    time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updatedAt"`
}

// TableName sets the database table name.
func (Entitlement) TableName() string { return "entitlements" }

func (e Entitlement) Limits() Limits {
	return Limits{QADailyLimit: e.QADailyLimit, QARowLimit: e.QARowLimit}
}

// Matches reports whether the row already reflects plan and limits.
func (e Entitlement) Matches(plan Plan, limits Limits) bool {
	return e.Plan == plan && e.Limits() == limits
}
