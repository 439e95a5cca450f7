package models

import (
	"time"

	"github.com/google/uuid"
)

// PendingMessageID marks an attachment uploaded before its parent message
// exists. The create-message flow rewrites it with the real message id.
const PendingMessageID = "pending"

// MessageAttachment stores file metadata plus the blob itself. MessageID is
// text rather than uuid so it can hold the pending sentinel.
type MessageAttachment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MessageID string    `gorm:"column:message_id;type:text;not null;index"`
	FileName  string    `gorm:"column:file_name;type:text;not null"`
	FilePath  string    `gorm:"column:file_path;type:text;not null"`
	FileType  string    `gorm:"column:file_type;type:text;not null"`
	FileSize  int64     `gorm:"column:file_size;not null"`
	FileData  []byte    `gorm:"column:file_data"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
