package repository

import (
	"context"

	"github.com/smallbiznis/courtside/internal/qa/domain"
	"gorm.io/gorm"
)

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) domain.AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, rec *domain.AuditRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}
