package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageEdit is an append-only record of a content change. Rows are written
// only when the content actually changed and are never updated.
type MessageEdit struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MessageID       uuid.UUID `gorm:"column:message_id;type:uuid;not null;index"`
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	PreviousContent string    `gorm:"column:previous_content;type:text;not null"`
	NewContent      string    `gorm:"column:new_content;type:text;not null"`
	FieldChanged    string    `gorm:"column:field_changed;type:text;not null"`
	EditedAt        time.Time `gorm:"column:edited_at;autoCreateTime"`

	User *User `gorm:"foreignKey:UserID"`
}
