// Package domain holds per-user daily consumption counters.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// DateKeyLayout formats the UTC calendar day that partitions counters.
const DateKeyLayout = "2006-01-02"

var ErrNegativeDelta = errors.New("usage delta must not be negative")

// DailyUsage is one user's counters for one UTC day. A missing row means zero.
type DailyUsage struct {
	UserID      snowflake.ID `gorm:"column:user_id;primaryKey;autoIncrement:false" json:"-"`
	UsageDate   string       `gorm:"column:usage_date;primaryKey;type:text" json:"date"`
	QAQueries   int64        `gorm:"column:qa_queries;not null;default:0" json:"qaQueries"`
	APIRequests int64        `gorm:"column:api_requests;not null;default:0" json:"apiRequests"`
	UpdatedAt   time.Time    `gorm:"not null" json:"-"`
}

// TableName sets the database table name.
func (DailyUsage) TableName() string { return "usage_daily" }

// Delta is an amount to add to the day's counters.
type Delta struct {
	QAQueries   int64
	APIRequests int64
}

func (d Delta) IsZero() bool {
	return d.QAQueries == 0 && d.APIRequests == 0
}

func (d Delta) Validate() error {
	if d.QAQueries < 0 || d.APIRequests < 0 {
		return ErrNegativeDelta
	}
	return nil
}

// DateKey returns the counter partition for t.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}
