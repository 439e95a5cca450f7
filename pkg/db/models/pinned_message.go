package models

import (
	"time"

	"github.com/google/uuid"
)

// PinnedMessage marks a message a user keeps at the top of their inbox.
type PinnedMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MessageID uuid.UUID `gorm:"column:message_id;type:uuid;not null;uniqueIndex:idx_pinned_message_user"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_pinned_message_user"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
