package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dfrchat/backend/internal/audit"
	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
	"github.com/dfrchat/backend/pkg/logger"
)

// defaultAuditRowLimit caps how many audit rows travel with a backup when the
// config does not say otherwise.
const defaultAuditRowLimit = 1000

type store interface {
	InsertRecord(ctx context.Context, record *models.Backup) error
	ListRecords(ctx context.Context) ([]models.Backup, error)
	ExportUsers(ctx context.Context) ([]models.User, error)
	ExportMessages(ctx context.Context) ([]models.Message, error)
	ExportAttachmentsMeta(ctx context.Context) ([]models.MessageAttachment, error)
	ExportPins(ctx context.Context) ([]models.PinnedMessage, error)
	MessageExists(ctx context.Context, id uuid.UUID) (bool, error)
	ImportMessage(ctx context.Context, msg *models.Message, recipients []models.MessageRecipient, edits []models.MessageEdit) error
}

type auditLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

type recorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Export is the serialized document plus its download name.
type Export struct {
	FileName string
	Payload  []byte
}

// ImportResult reports what the merge actually did.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// RecordDTO is one row of the backup history.
type RecordDTO struct {
	ID        uuid.UUID        `json:"id"`
	FileName  string           `json:"fileName"`
	FileSize  int64            `json:"fileSize"`
	Type      enums.BackupType `json:"type"`
	CreatedBy string           `json:"createdBy"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Service exposes backup export, merge import and history.
type Service interface {
	ExportBackup(ctx context.Context, actor audit.Actor) (*Export, error)
	ImportBackup(ctx context.Context, actor audit.Actor, doc Document) (*ImportResult, error)
	History(ctx context.Context) ([]RecordDTO, error)
}

type service struct {
	store      store
	auditRows  auditLister
	audit      recorder
	logg       *logger.Logger
	auditLimit int
}

// ServiceParams bundles the backup service dependencies.
type ServiceParams struct {
	Store         store
	AuditRows     auditLister
	Recorder      recorder
	Logger        *logger.Logger
	AuditRowLimit int
}

// NewService constructs the backup service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("backup store is required")
	}
	if params.AuditRows == nil {
		return nil, fmt.Errorf("audit lister is required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	limit := params.AuditRowLimit
	if limit <= 0 {
		limit = defaultAuditRowLimit
	}
	return &service{
		store:      params.Store,
		auditRows:  params.AuditRows,
		audit:      params.Recorder,
		logg:       params.Logger,
		auditLimit: limit,
	}, nil
}

func (s *service) ExportBackup(ctx context.Context, actor audit.Actor) (*Export, error) {
	users, err := s.store.ExportUsers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export users")
	}
	messages, err := s.store.ExportMessages(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export messages")
	}
	attachments, err := s.store.ExportAttachmentsMeta(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export attachments")
	}
	auditRows, err := s.auditRows.ListRecent(ctx, s.auditLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export audit rows")
	}
	pins, err := s.store.ExportPins(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "export pins")
	}

	byMessage := map[string][]models.MessageAttachment{}
	for _, a := range attachments {
		byMessage[a.MessageID] = append(byMessage[a.MessageID], a)
	}

	now := time.Now().UTC()
	doc := Document{
		Version:    FormatVersion,
		ExportedAt: now,
		ExportedBy: actor.ID.String(),
		Stats: Stats{
			Users:          len(users),
			Messages:       len(messages),
			AuditLogs:      len(auditRows),
			PinnedMessages: len(pins),
		},
		Data: &Data{
			Users:          make([]ExportedUser, 0, len(users)),
			Messages:       make([]ExportedMessage, 0, len(messages)),
			AuditLogs:      make([]ExportedAudit, 0, len(auditRows)),
			PinnedMessages: make([]ExportedPin, 0, len(pins)),
		},
	}
	for i := range users {
		doc.Data.Users = append(doc.Data.Users, exportUser(&users[i]))
	}
	for i := range messages {
		msg := &messages[i]
		doc.Data.Messages = append(doc.Data.Messages, exportMessage(msg, byMessage[msg.ID.String()]))
	}
	for i := range auditRows {
		doc.Data.AuditLogs = append(doc.Data.AuditLogs, exportAudit(&auditRows[i]))
	}
	for i := range pins {
		doc.Data.PinnedMessages = append(doc.Data.PinnedMessages, exportPin(&pins[i]))
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize backup")
	}

	fileName := fmt.Sprintf("dfrchat-backup-%s.json", now.Format("2006-01-02"))
	record := &models.Backup{
		UserID:   actor.ID,
		FileName: fileName,
		FileSize: int64(len(payload)),
		Type:     enums.BackupTypeExport,
	}
	if err := s.store.InsertRecord(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record export")
	}

	entityID := record.ID.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID(),
		Action:     enums.AuditBackupExported,
		EntityType: enums.EntityBackup,
		EntityID:   &entityID,
		Details:    audit.Detail(fmt.Sprintf("exported %d messages and %d users", len(messages), len(users))),
		IPAddress:  actor.IPAddress(),
	})

	return &Export{FileName: fileName, Payload: payload}, nil
}

func (s *service) ImportBackup(ctx context.Context, actor audit.Actor, doc Document) (*ImportResult, error) {
	if doc.Version != FormatVersion {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unsupported backup version %q", doc.Version))
	}
	if doc.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "backup document has no data")
	}

	result := &ImportResult{}
	var soft error
	for i := range doc.Data.Messages {
		row := &doc.Data.Messages[i]
		exists, err := s.store.MessageExists(ctx, row.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check message")
		}
		if exists {
			result.Skipped++
			continue
		}

		msg, recipients, edits, err := importMessage(row)
		if err != nil {
			soft = multierr.Append(soft, err)
			result.Skipped++
			continue
		}
		if err := s.store.ImportMessage(ctx, msg, recipients, edits); err != nil {
			soft = multierr.Append(soft, fmt.Errorf("message %s: %w", row.ID, err))
			result.Skipped++
			continue
		}
		result.Inserted++
	}

	if soft != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"skipped":  result.Skipped,
			"inserted": result.Inserted,
			"errors":   soft.Error(),
		})
		s.logg.Warn(logCtx, "backup.import_partial")
	}

	record := &models.Backup{
		UserID:   actor.ID,
		FileName: fmt.Sprintf("dfrchat-import-%s.json", time.Now().UTC().Format("2006-01-02")),
		FileSize: 0,
		Type:     enums.BackupTypeImport,
	}
	if err := s.store.InsertRecord(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record import")
	}

	entityID := record.ID.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID(),
		Action:     enums.AuditBackupImported,
		EntityType: enums.EntityBackup,
		EntityID:   &entityID,
		Details:    audit.Detail(fmt.Sprintf("imported %d messages, skipped %d", result.Inserted, result.Skipped)),
		IPAddress:  actor.IPAddress(),
	})

	return result, nil
}

func (s *service) History(ctx context.Context) ([]RecordDTO, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list backups")
	}

	out := make([]RecordDTO, 0, len(records))
	for _, r := range records {
		dto := RecordDTO{
			ID:        r.ID,
			FileName:  r.FileName,
			FileSize:  r.FileSize,
			Type:      r.Type,
			CreatedAt: r.CreatedAt,
		}
		if r.User != nil {
			dto.CreatedBy = r.User.Name
		}
		out = append(out, dto)
	}
	return out, nil
}

// importMessage rebuilds the model graph from one exported row. The original
// timestamps are carried over; leaving them zero would let gorm restamp the
// rows with import time.
func importMessage(row *ExportedMessage) (*models.Message, []models.MessageRecipient, []models.MessageEdit, error) {
	msg := &models.Message{
		ID:           row.ID,
		Siso:         row.Siso,
		Paciente:     row.Paciente,
		DentistaID:   row.DentistaID,
		DataConsulta: row.DataConsulta,
		DataLimite:   row.DataLimite,
		Conteudo:     row.Conteudo,
		Prioridade:   row.Prioridade,
		Categoria:    row.Categoria,
		Status:       row.Status,
		Edited:       row.Edited,
		RemetenteID:  row.RemetenteID,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}

	recipients := make([]models.MessageRecipient, 0, len(row.Recipients))
	for _, r := range row.Recipients {
		// each addressing row targets exactly one of user and group
		if (r.UserID == nil) == (r.GroupName == nil) {
			return nil, nil, nil, fmt.Errorf("recipient %s must target exactly one of user and group", r.ID)
		}
		recipients = append(recipients, models.MessageRecipient{
			ID:            r.ID,
			UserID:        r.UserID,
			GroupName:     r.GroupName,
			ReadAt:        r.ReadAt,
			ReadConfirmed: r.ReadConfirmed,
			CreatedAt:     r.CreatedAt,
		})
	}

	edits := make([]models.MessageEdit, 0, len(row.EditHistory))
	for _, e := range row.EditHistory {
		edits = append(edits, models.MessageEdit{
			ID:              e.ID,
			UserID:          e.UserID,
			PreviousContent: e.PreviousContent,
			NewContent:      e.NewContent,
			FieldChanged:    e.FieldChanged,
			EditedAt:        e.EditedAt,
		})
	}

	return msg, recipients, edits, nil
}
