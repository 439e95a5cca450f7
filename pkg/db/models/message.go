package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dfrchat/backend/pkg/enums"
)

// Message is the core communication entity. Deleting a message only flips its
// status to CANCELADA; rows are never physically removed.
type Message struct {
	ID           uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Siso         *string             `gorm:"type:text"`
	Paciente     *string             `gorm:"type:text"`
	DentistaID   *uuid.UUID          `gorm:"column:dentista_id;type:uuid"`
	DataConsulta *time.Time          `gorm:"column:data_consulta"`
	DataLimite   *time.Time          `gorm:"column:data_limite"`
	Conteudo     string              `gorm:"type:text;not null"`
	Prioridade   enums.Priority      `gorm:"type:text;not null;default:'NORMAL'"`
	Categoria    enums.Category      `gorm:"type:text;not null;default:'ADMINISTRATIVO'"`
	Status       enums.MessageStatus `gorm:"type:text;not null;default:'ATIVA'"`
	Edited       bool                `gorm:"not null;default:false"`
	RemetenteID  uuid.UUID           `gorm:"column:remetente_id;type:uuid;not null"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Remetente  *User              `gorm:"foreignKey:RemetenteID"`
	Recipients []MessageRecipient `gorm:"foreignKey:MessageID"`
	// Attachments key on a text column that holds "pending" before linking, so
	// they are loaded explicitly instead of through a typed association.
	Attachments []MessageAttachment `gorm:"-"`
	EditHistory []MessageEdit       `gorm:"foreignKey:MessageID"`
}

// Deadline returns the effective cutoff after which the message becomes
// immutable: data_limite, falling back to data_consulta.
func (m *Message) Deadline() *time.Time {
	if m.DataLimite != nil {
		return m.DataLimite
	}
	return m.DataConsulta
}
