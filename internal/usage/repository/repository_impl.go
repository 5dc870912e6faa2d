package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courtside/internal/usage/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Get(ctx context.Context, userID snowflake.ID, dateKey string) (*domain.DailyUsage, error) {
	var row domain.DailyUsage
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND usage_date = ?", userID, dateKey).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Increment is INSERT ... ON CONFLICT DO UPDATE SET col = col + delta, so parallel
// requests for the same user and day never lose an update.
func (r *repo) Increment(ctx context.Context, userID snowflake.ID, dateKey string, delta domain.Delta) error {
	row := domain.DailyUsage{
		UserID:      userID,
		UsageDate:   dateKey,
		QAQueries:   delta.QAQueries,
		APIRequests: delta.APIRequests,
		UpdatedAt:   time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "usage_date"}},
			DoUpdates: clause.Assignments(map[string]any{
				"qa_queries":   gorm.Expr("usage_daily.qa_queries + ?", delta.QAQueries),
				"api_requests": gorm.Expr("usage_daily.api_requests + ?", delta.APIRequests),
				"updated_at":   row.UpdatedAt,
			}),
		}).
		Create(&row).Error
}
