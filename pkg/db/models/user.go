package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dfrchat/backend/pkg/enums"
)

// User represents a clinic staff account. At most one row ever carries the
// ADMINISTRADOR role; the creation paths enforce it.
type User struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string     `gorm:"type:text;not null"`
	Email              string     `gorm:"type:text;not null;uniqueIndex"`
	Phone              string     `gorm:"type:text;not null"`
	PasswordHash       string     `gorm:"column:password_hash;not null"`
	Role               enums.Role `gorm:"type:text;not null"`
	Active             bool       `gorm:"not null;default:true"`
	MustChangePassword bool       `gorm:"column:must_change_password;not null;default:false"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
