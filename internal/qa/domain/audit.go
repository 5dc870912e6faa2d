package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditRecord is the append-only log entry for one ask call.
type AuditRecord struct {
	ID              string         `gorm:"primaryKey;type:text"`
	UserID          snowflake.ID   `gorm:"column:user_id;not null;index"`
	Question        string         `gorm:"column:question;type:text;not null"`
	Intent          IntentType     `gorm:"column:intent;type:text;not null"`
	Parameters      datatypes.JSON `gorm:"column:parameters"`
	Limited         bool           `gorm:"column:limited;not null"`
	ResponseSummary string         `gorm:"column:response_summary;type:text;not null"`
	ElapsedMs       int64          `gorm:"column:elapsed_ms;not null"`
	CreatedAt       time.Time      `gorm:"not null;index"`
}

// TableName sets the database table name.
func (AuditRecord) TableName() string { return "qa_audit_records" }

type AuditRepository interface {
	Create(ctx context.Context, rec *AuditRecord) error
}
