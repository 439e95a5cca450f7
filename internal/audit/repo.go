package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfrchat/backend/internal/repo"
	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
	"github.com/dfrchat/backend/pkg/pagination"
)

// Repository persists and queries immutable audit rows.
type Repository struct {
	repo.Base
}

// NewRepository constructs an audit repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Insert appends one audit row. Rows are never updated or deleted.
func (r *Repository) Insert(ctx context.Context, entry *models.AuditLog) error {
	return r.DB(ctx).Create(entry).Error
}

// ListQuery narrows the audit listing.
type ListQuery struct {
	UserID     *uuid.UUID
	Action     *enums.AuditAction
	EntityType *enums.EntityType
	DateFrom   *time.Time
	DateTo     *time.Time
	Pagination pagination.Params
}

// List returns a page of audit rows, newest first, with the total row count.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.AuditLog, int64, error) {
	tx := r.DB(ctx).Model(&models.AuditLog{})

	if q.UserID != nil {
		tx = tx.Where("user_id = ?", *q.UserID)
	}
	if q.Action != nil {
		tx = tx.Where("action = ?", *q.Action)
	}
	if q.EntityType != nil {
		tx = tx.Where("entity_type = ?", *q.EntityType)
	}
	if q.DateFrom != nil {
		tx = tx.Where("created_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		tx = tx.Where("created_at <= ?", *q.DateTo)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AuditLog
	err := tx.
		Preload("User").
		Order("created_at DESC").
		Offset(q.Pagination.Offset()).
		Limit(q.Pagination.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListRecent returns the newest rows up to the given cap, for exports.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	if err := r.DB(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
