package backup

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfrchat/backend/internal/repo"
	"github.com/dfrchat/backend/pkg/db/models"
)

// Repository persists backup records and runs the bulk reads and writes the
// export/import operations need.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) InsertRecord(ctx context.Context, record *models.Backup) error {
	return r.DB(ctx).Create(record).Error
}

// ListRecords returns the backup history, newest first.
func (r *Repository) ListRecords(ctx context.Context) ([]models.Backup, error) {
	var records []models.Backup
	err := r.DB(ctx).
		Preload("User").
		Order("created_at DESC").
		Find(&records).
		Error
	return records, err
}

func (r *Repository) ExportUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.DB(ctx).Order("name ASC").Find(&users).Error
	return users, err
}

func (r *Repository) ExportMessages(ctx context.Context) ([]models.Message, error) {
	var messages []models.Message
	err := r.DB(ctx).
		Preload("Recipients").
		Preload("EditHistory").
		Order("created_at ASC").
		Find(&messages).
		Error
	return messages, err
}

// ExportAttachmentsMeta returns every attachment row without its blob.
func (r *Repository) ExportAttachmentsMeta(ctx context.Context) ([]models.MessageAttachment, error) {
	var attachments []models.MessageAttachment
	err := r.DB(ctx).
		Select("id", "message_id", "file_name", "file_path", "file_type", "file_size", "created_at").
		Find(&attachments).
		Error
	return attachments, err
}

func (r *Repository) ExportPins(ctx context.Context) ([]models.PinnedMessage, error) {
	var pins []models.PinnedMessage
	err := r.DB(ctx).Find(&pins).Error
	return pins, err
}

func (r *Repository) MessageExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Message{}).
		Where("id = ?", id).
		Count(&count).
		Error
	return count > 0, err
}

// ImportMessage inserts a message with its satellite rows in one transaction.
func (r *Repository) ImportMessage(ctx context.Context, msg *models.Message, recipients []models.MessageRecipient, edits []models.MessageEdit) error {
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Remetente", "Recipients", "EditHistory").Create(msg).Error; err != nil {
			return err
		}
		for i := range recipients {
			recipients[i].MessageID = msg.ID
			if err := tx.Omit("User").Create(&recipients[i]).Error; err != nil {
				return err
			}
		}
		for i := range edits {
			edits[i].MessageID = msg.ID
			if err := tx.Omit("User").Create(&edits[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
