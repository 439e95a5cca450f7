package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageRecipient is one addressing row of a message fan-out. Exactly one of
// UserID and GroupName is set: a direct recipient or a role used as a
// broadcast group.
type MessageRecipient struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MessageID     uuid.UUID  `gorm:"column:message_id;type:uuid;not null;index"`
	UserID        *uuid.UUID `gorm:"column:user_id;type:uuid"`
	GroupName     *string    `gorm:"column:group_name;type:text"`
	ReadAt        *time.Time `gorm:"column:read_at"`
	ReadConfirmed bool       `gorm:"column:read_confirmed;not null;default:false"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`

	User *User `gorm:"foreignKey:UserID"`
}
