package attachments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfrchat/backend/internal/repo"
	"github.com/dfrchat/backend/pkg/db/models"
)

// Repository persists attachment rows, blob included.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, attachment *models.MessageAttachment) error {
	return r.DB(ctx).Create(attachment).Error
}

// FindByID loads the full row including file_data.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MessageAttachment, error) {
	var attachment models.MessageAttachment
	if err := r.DB(ctx).First(&attachment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attachment, nil
}

// Link moves pending attachments onto a message. Rows already linked to
// another message are left alone.
func (r *Repository) Link(ctx context.Context, attachmentIDs []uuid.UUID, messageID uuid.UUID) error {
	if len(attachmentIDs) == 0 {
		return nil
	}
	return r.DB(ctx).
		Model(&models.MessageAttachment{}).
		Where("id IN ?", attachmentIDs).
		Where("message_id = ?", models.PendingMessageID).
		UpdateColumn("message_id", messageID.String()).
		Error
}
