package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dfrchat/backend/pkg/enums"
)

// Backup records one export or import run.
type Backup struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	FileName  string           `gorm:"column:file_name;type:text;not null"`
	FileSize  int64            `gorm:"column:file_size;not null"`
	Type      enums.BackupType `gorm:"type:text;not null"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`

	User *User `gorm:"foreignKey:UserID"`
}
