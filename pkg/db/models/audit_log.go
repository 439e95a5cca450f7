package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dfrchat/backend/pkg/enums"
)

// AuditLog is an immutable event record. Rows are only ever inserted.
type AuditLog struct {
	ID         uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     *uuid.UUID        `gorm:"column:user_id;type:uuid"`
	Action     enums.AuditAction `gorm:"type:text;not null;index"`
	EntityType enums.EntityType  `gorm:"column:entity_type;type:text;not null"`
	EntityID   *string           `gorm:"column:entity_id;type:text"`
	Details    *string           `gorm:"type:text"`
	IPAddress  *string           `gorm:"column:ip_address;type:text"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime;index"`

	User *User `gorm:"foreignKey:UserID"`
}
