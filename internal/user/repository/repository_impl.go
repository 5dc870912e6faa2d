package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
	"github.com/smallbiznis/courtside/internal/user/domain"
	"github.com/smallbiznis/courtside/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrUserExists
	}
	return err
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repo) FindByExternalKey(ctx context.Context, externalKey string) (*domain.User, error) {
	return r.findOne(ctx, "external_key = ?", externalKey)
}

func (r *repo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *repo) FindByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error) {
	return r.findOne(ctx, "stripe_customer_id = ?", customerID)
}

func (r *repo) findOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repo) UpdatePlan(ctx context.Context, id snowflake.ID, plan entdomain.Plan) error {
	return r.updateColumn(ctx, id, "plan", plan)
}

func (r *repo) UpdateStripeCustomerID(ctx context.Context, id snowflake.ID, customerID string) error {
	return r.updateColumn(ctx, id, "stripe_customer_id", customerID)
}

func (r *repo) updateColumn(ctx context.Context, id snowflake.ID, column string, value any) error {
	tx := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update(column, value)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
