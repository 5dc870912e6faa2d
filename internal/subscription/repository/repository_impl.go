package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/courtside/internal/subscription/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindLatestActive(ctx context.Context, userID snowflake.ID) (*domain.Subscription, error) {
	return r.findOne(r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.StatusActive).
		Order("updated_at DESC"))
}

func (r *Repository) FindByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	return r.findOne(r.db.WithContext(ctx).Where("stripe_subscription_id = ?", stripeSubscriptionID))
}

func (r *Repository) FindLatestByCustomerID(ctx context.Context, customerID string) (*domain.Subscription, error) {
	return r.findOne(r.db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).Order("updated_at DESC"))
}

func (r *Repository) findOne(q *gorm.DB) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := q.First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// HasActiveSubscription lets the entitlement synchronizer read billing truth.
func (r *Repository) HasActiveSubscription(ctx context.Context, userID snowflake.ID) (bool, error) {
	_, err := r.FindLatestActive(ctx, userID)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) UpsertByStripeID(ctx context.Context, sub *domain.Subscription) error {
	if sub.StripeSubscriptionID == nil || *sub.StripeSubscriptionID == "" {
		return r.db.WithContext(ctx).Create(sub).Error
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_subscription_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id",
				"stripe_customer_id",
				"status",
				"plan",
				"current_period_end",
				"cancel_at_period_end",
				"metadata",
				"updated_at",
			}),
		}).
		Create(sub).Error
}
