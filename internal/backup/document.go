package backup

import (
	"time"

	"github.com/google/uuid"

	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
)

// FormatVersion is the only document version the importer accepts.
const FormatVersion = "1.0"

// Document is the full JSON backup payload.
type Document struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	ExportedBy string    `json:"exportedBy"`
	Stats      Stats     `json:"stats"`
	Data       *Data     `json:"data"`
}

// Stats summarizes the document contents.
type Stats struct {
	Users          int `json:"users"`
	Messages       int `json:"messages"`
	AuditLogs      int `json:"auditLogs"`
	PinnedMessages int `json:"pinnedMessages"`
}

// Data holds the exported rows.
type Data struct {
	Users          []ExportedUser    `json:"users"`
	Messages       []ExportedMessage `json:"messages"`
	AuditLogs      []ExportedAudit   `json:"auditLogs"`
	PinnedMessages []ExportedPin     `json:"pinnedMessages"`
}

// ExportedUser deliberately omits the password hash.
type ExportedUser struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	Role               enums.Role `json:"role"`
	Active             bool       `json:"active"`
	MustChangePassword bool       `json:"mustChangePassword"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type ExportedMessage struct {
	ID           uuid.UUID            `json:"id"`
	Siso         *string              `json:"siso,omitempty"`
	Paciente     *string              `json:"paciente,omitempty"`
	DentistaID   *uuid.UUID           `json:"dentistaId,omitempty"`
	DataConsulta *time.Time           `json:"dataConsulta,omitempty"`
	DataLimite   *time.Time           `json:"dataLimite,omitempty"`
	Conteudo     string               `json:"conteudo"`
	Prioridade   enums.Priority       `json:"prioridade"`
	Categoria    enums.Category       `json:"categoria"`
	Status       enums.MessageStatus  `json:"status"`
	Edited       bool                 `json:"edited"`
	RemetenteID  uuid.UUID            `json:"remetenteId"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
	Recipients   []ExportedRecipient  `json:"recipients"`
	Attachments  []ExportedAttachment `json:"attachments"`
	EditHistory  []ExportedEdit       `json:"editHistory"`
}

type ExportedRecipient struct {
	ID            uuid.UUID  `json:"id"`
	UserID        *uuid.UUID `json:"userId,omitempty"`
	GroupName     *string    `json:"groupName,omitempty"`
	ReadAt        *time.Time `json:"readAt,omitempty"`
	ReadConfirmed bool       `json:"readConfirmed"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ExportedAttachment carries metadata only; blobs stay in the database.
type ExportedAttachment struct {
	ID        uuid.UUID `json:"id"`
	FileName  string    `json:"fileName"`
	FilePath  string    `json:"filePath"`
	FileType  string    `json:"fileType"`
	FileSize  int64     `json:"fileSize"`
	CreatedAt time.Time `json:"createdAt"`
}

type ExportedEdit struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"userId"`
	PreviousContent string    `json:"previousContent"`
	NewContent      string    `json:"newContent"`
	FieldChanged    string    `json:"fieldChanged"`
	EditedAt        time.Time `json:"editedAt"`
}

type ExportedAudit struct {
	ID         uuid.UUID         `json:"id"`
	UserID     *uuid.UUID        `json:"userId,omitempty"`
	Action     enums.AuditAction `json:"action"`
	EntityType enums.EntityType  `json:"entityType"`
	EntityID   *string           `json:"entityId,omitempty"`
	Details    *string           `json:"details,omitempty"`
	IPAddress  *string           `json:"ipAddress,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

type ExportedPin struct {
	ID        uuid.UUID `json:"id"`
	MessageID uuid.UUID `json:"messageId"`
	UserID    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func exportUser(u *models.User) ExportedUser {
	return ExportedUser{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Phone:              u.Phone,
		Role:               u.Role,
		Active:             u.Active,
		MustChangePassword: u.MustChangePassword,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func exportMessage(m *models.Message, attachments []models.MessageAttachment) ExportedMessage {
	out := ExportedMessage{
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
		RemetenteID:  m.RemetenteID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		Recipients:   make([]ExportedRecipient, 0, len(m.Recipients)),
		Attachments:  make([]ExportedAttachment, 0, len(attachments)),
		EditHistory:  make([]ExportedEdit, 0, len(m.EditHistory)),
	}
	for _, r := range m.Recipients {
		out.Recipients = append(out.Recipients, ExportedRecipient{
			ID:            r.ID,
			UserID:        r.UserID,
			GroupName:     r.GroupName,
			ReadAt:        r.ReadAt,
			ReadConfirmed: r.ReadConfirmed,
			CreatedAt:     r.CreatedAt,
		})
	}
	for _, a := range attachments {
		out.Attachments = append(out.Attachments, ExportedAttachment{
			ID:        a.ID,
			FileName:  a.FileName,
			FilePath:  a.FilePath,
			FileType:  a.FileType,
			FileSize:  a.FileSize,
			CreatedAt: a.CreatedAt,
		})
	}
	for _, e := range m.EditHistory {
		out.EditHistory = append(out.EditHistory, ExportedEdit{
			ID:              e.ID,
			UserID:          e.UserID,
			PreviousContent: e.PreviousContent,
			NewContent:      e.NewContent,
			FieldChanged:    e.FieldChanged,
			EditedAt:        e.EditedAt,
		})
	}
	return out
}

func exportAudit(a *models.AuditLog) ExportedAudit {
	return ExportedAudit{
		ID:         a.ID,
		UserID:     a.UserID,
		Action:     a.Action,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Details:    a.Details,
		IPAddress:  a.IPAddress,
		CreatedAt:  a.CreatedAt,
	}
}

func exportPin(p *models.PinnedMessage) ExportedPin {
	return ExportedPin{
		ID:        p.ID,
		MessageID: p.MessageID,
		UserID:    p.UserID,
		CreatedAt: p.CreatedAt,
	}
}
