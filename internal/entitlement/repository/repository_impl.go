package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courtside/internal/entitlement/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) FindByUserID(ctx context.Context, userID snowflake.ID) (*domain.Entitlement, error) {
	var ent domain.Entitlement
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&ent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ent, nil
}

// Upsert relies on the unique user_id index so concurrent syncs for one user converge
// on a single row; the last writer wins.
func (r *repo) Upsert(ctx context.Context, ent *domain.Entitlement) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"plan", "qa_daily_limit", "qa_row_limit", "updated_at"}),
		}).
		Create(ent).Error
}
