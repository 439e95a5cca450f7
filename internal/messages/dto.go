package messages

import (
	"time"

	"github.com/google/uuid"

	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
	"github.com/dfrchat/backend/pkg/pagination"
	"github.com/dfrchat/backend/pkg/types"
)

// CreateMessageInput is the payload accepted when composing a message.
type CreateMessageInput struct {
	Conteudo         string      `json:"conteudo" validate:"required"`
	Siso             *string     `json:"siso"`
	Paciente         *string     `json:"paciente"`
	DentistaID       *uuid.UUID  `json:"dentistaId"`
	DataConsulta     *time.Time  `json:"dataConsulta"`
	DataLimite       *time.Time  `json:"dataLimite"`
	Prioridade       string      `json:"prioridade"`
	Categoria        string      `json:"categoria"`
	RecipientUserIDs []uuid.UUID `json:"recipientUserIds"`
	RecipientGroups  []string    `json:"recipientGroups"`
	AttachmentIDs    []uuid.UUID `json:"attachmentIds"`
}

// UpdateMessageInput is an explicit change set; absent fields stay untouched
// and JSON null clears a nullable column.
type UpdateMessageInput struct {
	Conteudo     *string              `json:"conteudo"`
	Siso         types.NullableString `json:"siso"`
	Paciente     types.NullableString `json:"paciente"`
	DentistaID   types.NullableUUID   `json:"dentistaId"`
	DataConsulta types.NullableTime   `json:"dataConsulta"`
	DataLimite   types.NullableTime   `json:"dataLimite"`
	Prioridade   *string              `json:"prioridade"`
	Categoria    *string              `json:"categoria"`
	Status       *string              `json:"status"`
}

// ListParams carries the query-string filters for the inbox listing.
type ListParams struct {
	Search     string
	Siso       string
	Paciente   string
	DentistaID string
	Prioridade string
	Categoria  string
	Status     string
	DateFrom   *time.Time
	DateTo     *time.Time
	Sent       bool
	Pagination pagination.Params
}

// UserSummary is the compact user shape embedded in message payloads.
type UserSummary struct {
	ID   uuid.UUID  `json:"id"`
	Name string     `json:"name"`
	Role enums.Role `json:"role"`
}

// RecipientDTO is one addressing row with its read state.
type RecipientDTO struct {
	ID            uuid.UUID    `json:"id"`
	UserID        *uuid.UUID   `json:"userId,omitempty"`
	GroupName     *string      `json:"groupName,omitempty"`
	User          *UserSummary `json:"user,omitempty"`
	ReadAt        *time.Time   `json:"readAt,omitempty"`
	ReadConfirmed bool         `json:"readConfirmed"`
}

// AttachmentDTO carries attachment metadata without the blob.
type AttachmentDTO struct {
	ID       uuid.UUID `json:"id"`
	FileName string    `json:"fileName"`
	FilePath string    `json:"filePath"`
	FileType string    `json:"fileType"`
	FileSize int64     `json:"fileSize"`
}

// EditDTO is one row of the append-only edit history.
type EditDTO struct {
	ID              uuid.UUID `json:"id"`
	PreviousContent string    `json:"previousContent"`
	NewContent      string    `json:"newContent"`
	FieldChanged    string    `json:"fieldChanged"`
	EditedBy        string    `json:"editedBy,omitempty"`
	EditedAt        time.Time `json:"editedAt"`
}

// MessageDTO is the full transport shape of a message.
type MessageDTO struct {
	ID           uuid.UUID           `json:"id"`
	Siso         *string             `json:"siso,omitempty"`
	Paciente     *string             `json:"paciente,omitempty"`
	DentistaID   *uuid.UUID          `json:"dentistaId,omitempty"`
	DataConsulta *time.Time          `json:"dataConsulta,omitempty"`
	DataLimite   *time.Time          `json:"dataLimite,omitempty"`
	Conteudo     string              `json:"conteudo"`
	Prioridade   enums.Priority      `json:"prioridade"`
	Categoria    enums.Category      `json:"categoria"`
	Status       enums.MessageStatus `json:"status"`
	Edited       bool                `json:"edited"`
	Remetente    *UserSummary        `json:"remetente,omitempty"`
	Recipients   []RecipientDTO      `json:"destinatarios"`
	Attachments  []AttachmentDTO     `json:"attachments,omitempty"`
	EditCount    int                 `json:"editCount"`
	EditHistory  []EditDTO           `json:"editHistory,omitempty"`
	Pinned       bool                `json:"pinned"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

func userSummary(u *models.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Role: u.Role}
}

func fromModel(m *models.Message) *MessageDTO {
	if m == nil {
		return nil
	}

	dto := &MessageDTO{
		ID:           m.ID,
		Siso:         m.Siso,
		Paciente:     m.Paciente,
		DentistaID:   m.DentistaID,
		DataConsulta: m.DataConsulta,
		DataLimite:   m.DataLimite,
		Conteudo:     m.Conteudo,
		Prioridade:   m.Prioridade,
		Categoria:    m.Categoria,
		Status:       m.Status,
		Edited:       m.Edited,
		Remetente:    userSummary(m.Remetente),
		Recipients:   make([]RecipientDTO, 0, len(m.Recipients)),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}

	for i := range m.Recipients {
		r := &m.Recipients[i]
		dto.Recipients = append(dto.Recipients, RecipientDTO{
			ID:            r.ID,
			UserID:        r.UserID,
			GroupName:     r.GroupName,
			User:          userSummary(r.User),
			ReadAt:        r.ReadAt,
			ReadConfirmed: r.ReadConfirmed,
		})
	}

	for i := range m.Attachments {
		a := &m.Attachments[i]
		dto.Attachments = append(dto.Attachments, AttachmentDTO{
			ID:       a.ID,
			FileName: a.FileName,
			FilePath: a.FilePath,
			FileType: a.FileType,
			FileSize: a.FileSize,
		})
	}

	for i := range m.EditHistory {
		e := &m.EditHistory[i]
		edit := EditDTO{
			ID:              e.ID,
			PreviousContent: e.PreviousContent,
			NewContent:      e.NewContent,
			FieldChanged:    e.FieldChanged,
			EditedAt:        e.EditedAt,
		}
		if e.User != nil {
			edit.EditedBy = e.User.Name
		}
		dto.EditHistory = append(dto.EditHistory, edit)
	}
	dto.EditCount = len(dto.EditHistory)

	return dto
}
