package dashboard

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfrchat/backend/internal/repo"
	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
)

// Repository runs the aggregate queries behind the dashboard.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// visible scopes active messages to what the viewer received.
func (r *Repository) visible(ctx context.Context, viewerID uuid.UUID, role enums.Role) *gorm.DB {
	sub := r.DB(ctx).
		Model(&models.MessageRecipient{}).
		Select("message_id").
		Where("user_id = ? OR group_name = ?", viewerID, string(role))
	return r.DB(ctx).
		Model(&models.Message{}).
		Where("status = ?", enums.MessageStatusAtiva).
		Where("id IN (?)", sub)
}

func (r *Repository) CountActive(ctx context.Context, viewerID uuid.UUID, role enums.Role) (int64, error) {
	var count int64
	err := r.visible(ctx, viewerID, role).Count(&count).Error
	return count, err
}

func (r *Repository) CountUnread(ctx context.Context, viewerID uuid.UUID, role enums.Role) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.MessageRecipient{}).
		Joins("JOIN messages ON messages.id = message_recipients.message_id").
		Where("messages.status = ?", enums.MessageStatusAtiva).
		Where("message_recipients.read_at IS NULL").
		Where("message_recipients.user_id = ? OR message_recipients.group_name = ?", viewerID, string(role)).
		Count(&count).
		Error
	return count, err
}

type groupCount struct {
	Key   string
	Count int64
}

func (r *Repository) CountActiveByPriority(ctx context.Context, viewerID uuid.UUID, role enums.Role) (map[enums.Priority]int64, error) {
	var rows []groupCount
	err := r.visible(ctx, viewerID, role).
		Select("prioridade AS key, COUNT(*) AS count").
		Group("prioridade").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	out := map[enums.Priority]int64{}
	for _, row := range rows {
		out[enums.Priority(row.Key)] = row.Count
	}
	return out, nil
}

func (r *Repository) CountActiveByCategory(ctx context.Context, viewerID uuid.UUID, role enums.Role) (map[enums.Category]int64, error) {
	var rows []groupCount
	err := r.visible(ctx, viewerID, role).
		Select("categoria AS key, COUNT(*) AS count").
		Group("categoria").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	out := map[enums.Category]int64{}
	for _, row := range rows {
		out[enums.Category(row.Key)] = row.Count
	}
	return out, nil
}

func (r *Repository) RecentMessages(ctx context.Context, viewerID uuid.UUID, role enums.Role, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.visible(ctx, viewerID, role).
		Preload("Remetente").
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).
		Error
	return messages, err
}

func (r *Repository) CountUsers(ctx context.Context) (total int64, active int64, err error) {
	if err = r.DB(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = r.DB(ctx).Model(&models.User{}).Where("active = ?", true).Count(&active).Error; err != nil {
		return 0, 0, err
	}
	return total, active, nil
}
