package messages

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

// Repository owns persistence for messages and their satellite rows.
type Repository struct {
	repo.Base
}

// NewRepository constructs a messages repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts the message and its recipient rows in one transaction.
func (r *Repository) Create(ctx context.Context, msg *models.Message, recipients []models.MessageRecipient) error {
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		for i := range recipients {
			recipients[i].MessageID = msg.ID
		}
		if len(recipients) > 0 {
			if err := tx.Create(&recipients).Error; err != nil {
				return err
			}
		}
		msg.Recipients = recipients
		return nil
	})
}

// FindByID loads the full message graph except attachments (those key on a
// text column and are loaded separately).
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := r.DB(ctx).
		Preload("Remetente").
		Preload("Recipients").
		Preload("Recipients.User").
		Preload("EditHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("edited_at DESC")
		}).
		Preload("EditHistory.User").
		First(&msg, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListQuery narrows the message listing for one caller.
type ListQuery struct {
	ViewerID   uuid.UUID
	ViewerRole enums.Role
	Sent       bool

	Search     string
	Siso       string
	Paciente   string
	DentistaID *uuid.UUID
	Prioridade *enums.Priority
	Categoria  *enums.Category
	Status     enums.MessageStatus
	DateFrom   *time.Time
	DateTo     *time.Time

	Pagination pagination.Params
}

// List returns one page of messages visible to the viewer, most urgent and
// newest first, plus the total match count.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Message, int64, error) {
	tx := r.DB(ctx).Model(&models.Message{})

	if q.Sent {
		tx = tx.Where("remetente_id = ?", q.ViewerID)
	} else {
		tx = tx.Where(
			"id IN (?)",
			r.DB(ctx).Model(&models.MessageRecipient{}).
				Select("message_id").
				Where("user_id = ? OR group_name = ?", q.ViewerID, string(q.ViewerRole)),
		)
	}

	tx = tx.Where("status = ?", q.Status)

	if q.Search != "" {
		tx = tx.Where("conteudo LIKE ?", "%"+q.Search+"%")
	}
	if q.Siso != "" {
		tx = tx.Where("siso LIKE ?", "%"+q.Siso+"%")
	}
	if q.Paciente != "" {
		tx = tx.Where("paciente LIKE ?", "%"+q.Paciente+"%")
	}
	if q.DentistaID != nil {
		tx = tx.Where("dentista_id = ?", *q.DentistaID)
	}
	if q.Prioridade != nil {
		tx = tx.Where("prioridade = ?", *q.Prioridade)
	}
	if q.Categoria != nil {
		tx = tx.Where("categoria = ?", *q.Categoria)
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

	var rows []models.Message
	err := tx.
		Preload("Remetente").
		Preload("Recipients").
		Preload("Recipients.User").
		Preload("EditHistory").
		Order("CASE prioridade WHEN 'CRITICA' THEN 2 WHEN 'URGENTE' THEN 1 ELSE 0 END DESC").
		Order("created_at DESC").
		Offset(q.Pagination.Offset()).
		Limit(q.Pagination.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// MarkRead stamps read_at on the viewer's unread recipient rows for the
// message. The read_at IS NULL guard makes the receipt idempotent. Returns
// how many rows were actually stamped.
func (r *Repository) MarkRead(ctx context.Context, messageID, userID uuid.UUID, role enums.Role, at time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.MessageRecipient{}).
		Where("message_id = ?", messageID).
		Where("user_id = ? OR group_name = ?", userID, string(role)).
		Where("read_at IS NULL").
		UpdateColumn("read_at", at)
	return res.RowsAffected, res.Error
}

// IsRecipient reports whether the viewer has any addressing row on the message.
func (r *Repository) IsRecipient(ctx context.Context, messageID, userID uuid.UUID, role enums.Role) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.MessageRecipient{}).
		Where("message_id = ?", messageID).
		Where("user_id = ? OR group_name = ?", userID, string(role)).
		Count(&count).Error
	return count > 0, err
}

// Update persists the mutated message row.
func (r *Repository) Update(ctx context.Context, msg *models.Message) error {
	return r.DB(ctx).Save(msg).Error
}

// AppendEdit writes one history row. History rows are never touched again.
func (r *Repository) AppendEdit(ctx context.Context, edit *models.MessageEdit) error {
	return r.DB(ctx).Create(edit).Error
}

// SetStatus flips the message status without touching other columns.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.MessageStatus) error {
	return r.DB(ctx).
		Model(&models.Message{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

// HasUnreadActive reports whether the user still has an unread recipient row
// on an ATIVA message whose deadline has not yet passed.
func (r *Repository) HasUnreadActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	var count int64
	err := r.DB(ctx).
		Model(&models.MessageRecipient{}).
		Joins("JOIN messages ON messages.id = message_recipients.message_id").
		Where("message_recipients.user_id = ?", userID).
		Where("message_recipients.read_at IS NULL").
		Where("messages.status = ?", enums.MessageStatusAtiva).
		Where("messages.data_limite > ? OR (messages.data_limite IS NULL AND (messages.data_consulta IS NULL OR messages.data_consulta > ?))", now, now).
		Count(&count).Error
	return count > 0, err
}

// Pin records the per-user pin; duplicate pins hit the unique index.
func (r *Repository) Pin(ctx context.Context, messageID, userID uuid.UUID) error {
	return r.DB(ctx).Create(&models.PinnedMessage{MessageID: messageID, UserID: userID}).Error
}

// Unpin removes the pin row, reporting whether one existed.
func (r *Repository) Unpin(ctx context.Context, messageID, userID uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Delete(&models.PinnedMessage{})
	return res.RowsAffected > 0, res.Error
}

// PinnedIDs returns the set of message ids the user has pinned.
func (r *Repository) PinnedIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	var rows []models.PinnedMessage
	if err := r.DB(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		out[row.MessageID] = true
	}
	return out, nil
}

// ListAttachments loads the attachment metadata rows linked to the message.
func (r *Repository) ListAttachments(ctx context.Context, messageID uuid.UUID) ([]models.MessageAttachment, error) {
	var rows []models.MessageAttachment
	err := r.DB(ctx).
		Select("id", "message_id", "file_name", "file_path", "file_type", "file_size", "created_at").
		Where("message_id = ?", messageID.String()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
