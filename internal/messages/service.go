package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfrchat/backend/internal/audit"
	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
	"github.com/dfrchat/backend/pkg/pagination"
)

// DefaultPageSize applies when the caller does not request a limit.
const DefaultPageSize = 20

type messageRepository interface {
	Create(ctx context.Context, msg *models.Message, recipients []models.MessageRecipient) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	List(ctx context.Context, q ListQuery) ([]models.Message, int64, error)
	MarkRead(ctx context.Context, messageID, userID uuid.UUID, role enums.Role, at time.Time) (int64, error)
	IsRecipient(ctx context.Context, messageID, userID uuid.UUID, role enums.Role) (bool, error)
	Update(ctx context.Context, msg *models.Message) error
	AppendEdit(ctx context.Context, edit *models.MessageEdit) error
	SetStatus(ctx context.Context, id uuid.UUID, status enums.MessageStatus) error
	Pin(ctx context.Context, messageID, userID uuid.UUID) error
	Unpin(ctx context.Context, messageID, userID uuid.UUID) (bool, error)
	PinnedIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error)
	ListAttachments(ctx context.Context, messageID uuid.UUID) ([]models.MessageAttachment, error)
}

type attachmentLinker interface {
	Link(ctx context.Context, attachmentIDs []uuid.UUID, messageID uuid.UUID) error
}

type recorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// ListResult carries one page of messages.
type ListResult struct {
	Messages []MessageDTO
	Page     pagination.Page
}

// Service exposes the messaging operations.
type Service interface {
	ListMessages(ctx context.Context, actor audit.Actor, params ListParams) (*ListResult, error)
	CreateMessage(ctx context.Context, actor audit.Actor, input CreateMessageInput) (*MessageDTO, error)
	GetMessage(ctx context.Context, actor audit.Actor, id uuid.UUID) (*MessageDTO, error)
	UpdateMessage(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateMessageInput) (*MessageDTO, error)
	CancelMessage(ctx context.Context, actor audit.Actor, id uuid.UUID) error
	PinMessage(ctx context.Context, actor audit.Actor, id uuid.UUID) error
	UnpinMessage(ctx context.Context, actor audit.Actor, id uuid.UUID) error
}

type service struct {
	repo        messageRepository
	attachments attachmentLinker
	audit       recorder
}

// NewService constructs the messaging service.
func NewService(repo messageRepository, attachments attachmentLinker, rec recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("message repository is required")
	}
	if attachments == nil {
		return nil, fmt.Errorf("attachment linker is required")
	}
	if rec == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}
	return &service{repo: repo, attachments: attachments, audit: rec}, nil
}

func (s *service) ListMessages(ctx context.Context, actor audit.Actor, params ListParams) (*ListResult, error) {
	q := ListQuery{
		ViewerID:   actor.ID,
		ViewerRole: actor.Role,
		Sent:       params.Sent,
		Search:     strings.TrimSpace(params.Search),
		Siso:       strings.TrimSpace(params.Siso),
		Paciente:   strings.TrimSpace(params.Paciente),
		DateFrom:   params.DateFrom,
		DateTo:     params.DateTo,
		Status:     enums.MessageStatusAtiva,
		Pagination: params.Pagination.Normalize(DefaultPageSize),
	}

	if params.Status != "" {
		status, err := enums.ParseMessageStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
		q.Status = status
	}
	if params.Prioridade != "" {
		priority, err := enums.ParsePriority(params.Prioridade)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid prioridade filter")
		}
		q.Prioridade = &priority
	}
	if params.Categoria != "" {
		category, err := enums.ParseCategory(params.Categoria)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid categoria filter")
		}
		q.Categoria = &category
	}
	if params.DentistaID != "" {
		id, err := uuid.Parse(params.DentistaID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid dentista filter")
		}
		q.DentistaID = &id
	}

	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list messages")
	}

	pinned, err := s.repo.PinnedIDs(ctx, actor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pins")
	}

	out := make([]MessageDTO, 0, len(rows))
	for i := range rows {
		msg := &rows[i]
		attachments, err := s.repo.ListAttachments(ctx, msg.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load attachments")
		}
		msg.Attachments = attachments

		dto := fromModel(msg)
		dto.Pinned = pinned[msg.ID]
		// list items carry the count only; the full history stays on detail
		dto.EditHistory = nil
		out = append(out, *dto)
	}

	return &ListResult{
		Messages: out,
		Page:     pagination.NewPage(q.Pagination, total),
	}, nil
}

func (s *service) CreateMessage(ctx context.Context, actor audit.Actor, input CreateMessageInput) (*MessageDTO, error) {
	conteudo := strings.TrimSpace(input.Conteudo)
	if conteudo == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conteudo is required")
	}

	priority := enums.PriorityNormal
	if input.Prioridade != "" {
		parsed, err := enums.ParsePriority(input.Prioridade)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid prioridade")
		}
		priority = parsed
	}

	category := enums.CategoryAdministrativo
	if input.Categoria != "" {
		parsed, err := enums.ParseCategory(input.Categoria)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid categoria")
		}
		category = parsed
	}

	recipients, err := buildRecipients(input)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one recipient is required")
	}

	msg := &models.Message{
		Siso:         trimPtr(input.Siso),
		Paciente:     trimPtr(input.Paciente),
		DentistaID:   input.DentistaID,
		DataConsulta: input.DataConsulta,
		DataLimite:   input.DataLimite,
		Conteudo:     conteudo,
		Prioridade:   priority,
		Categoria:    category,
		Status:       enums.MessageStatusAtiva,
		RemetenteID:  actor.ID,
	}

	if err := s.repo.Create(ctx, msg, recipients); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create message")
	}

	if len(input.AttachmentIDs) > 0 {
		if err := s.attachments.Link(ctx, input.AttachmentIDs, msg.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link attachments")
		}
	}

	entityID := msg.ID.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID(),
		Action:     enums.AuditMessageCreated,
		EntityType: enums.EntityMessage,
		EntityID:   &entityID,
		Details:    audit.Detail(fmt.Sprintf("message created with %d recipients", len(recipients))),
		IPAddress:  actor.IPAddress(),
	})

	return s.loadDTO(ctx, actor, msg.ID)
}

func (s *service) GetMessage(ctx context.Context, actor audit.Actor, id uuid.UUID) (*MessageDTO, error) {
	if _, err := s.findMessage(ctx, id); err != nil {
		return nil, err
	}

	// any authenticated user may read; only addressed recipients get a receipt
	isRecipient, err := s.repo.IsRecipient(ctx, id, actor.ID, actor.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check recipient")
	}
	if isRecipient {
		stamped, err := s.repo.MarkRead(ctx, id, actor.ID, actor.Role, time.Now().UTC())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark read")
		}
		// second read stamps nothing and emits no second receipt
		if stamped > 0 {
			entityID := id.String()
			s.audit.Record(ctx, audit.Entry{
				UserID:     actor.UserID(),
				Action:     enums.AuditMessageRead,
				EntityType: enums.EntityMessage,
				EntityID:   &entityID,
				IPAddress:  actor.IPAddress(),
			})
		}
	}

	return s.loadDTO(ctx, actor, id)
}

func (s *service) UpdateMessage(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateMessageInput) (*MessageDTO, error) {
	msg, err := s.findMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	isAuthor := msg.RemetenteID == actor.ID
	if !isAuthor && !enums.IsAdminOrDiretoria(actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the author can edit this message")
	}

	if deadline := msg.Deadline(); deadline != nil && time.Now().UTC().After(*deadline) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message can no longer be edited after its deadline")
	}

	if input.Conteudo != nil {
		newContent := strings.TrimSpace(*input.Conteudo)
		if newContent == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "conteudo cannot be empty")
		}
		if newContent != msg.Conteudo {
			edit := &models.MessageEdit{
				MessageID:       msg.ID,
				UserID:          actor.ID,
				PreviousContent: msg.Conteudo,
				NewContent:      newContent,
				FieldChanged:    "conteudo",
			}
			if err := s.repo.AppendEdit(ctx, edit); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append edit")
			}
			msg.Conteudo = newContent
			msg.Edited = true
		}
	}

	if input.Prioridade != nil {
		priority, err := enums.ParsePriority(*input.Prioridade)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid prioridade")
		}
		msg.Prioridade = priority
	}
	if input.Categoria != nil {
		category, err := enums.ParseCategory(*input.Categoria)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid categoria")
		}
		msg.Categoria = category
	}
	if input.Status != nil {
		status, err := enums.ParseMessageStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		msg.Status = status
	}

	if input.Siso.Valid {
		msg.Siso = trimPtr(input.Siso.Value)
	}
	if input.Paciente.Valid {
		msg.Paciente = trimPtr(input.Paciente.Value)
	}
	if input.DentistaID.Valid {
		msg.DentistaID = input.DentistaID.Value
	}
	if input.DataConsulta.Valid {
		msg.DataConsulta = input.DataConsulta.Value
	}
	if input.DataLimite.Valid {
		msg.DataLimite = input.DataLimite.Value
	}

	if err := s.repo.Update(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update message")
	}

	detail := "message edited by author"
	if !isAuthor {
		detail = fmt.Sprintf("message edited by %s", actor.Role)
	}
	entityID := msg.ID.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID(),
		Action:     enums.AuditMessageEdited,
		EntityType: enums.EntityMessage,
		EntityID:   &entityID,
		Details:    audit.Detail(detail),
		IPAddress:  actor.IPAddress(),
	})

	return s.loadDTO(ctx, actor, msg.ID)
}

func (s *service) CancelMessage(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	if !enums.IsAdminOrDiretoria(actor.Role) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions")
	}

	msg, err := s.findMessage(ctx, id)
	if err != nil {
		return err
	}
	if msg.Status == enums.MessageStatusCancelada {
		return pkgerrors.New(pkgerrors.CodeValidation, "message is already cancelled")
	}

	if err := s.repo.SetStatus(ctx, id, enums.MessageStatusCancelada); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel message")
	}

	entityID := id.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID(),
		Action:     enums.AuditMessageDeleted,
		EntityType: enums.EntityMessage,
		EntityID:   &entityID,
		IPAddress:  actor.IPAddress(),
	})
	return nil
}

func (s *service) PinMessage(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	if _, err := s.findMessage(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Pin(ctx, id, actor.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "message already pinned")
	}

	entityID := id.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID(),
		Action:     enums.AuditMessagePinned,
		EntityType: enums.EntityMessage,
		EntityID:   &entityID,
		IPAddress:  actor.IPAddress(),
	})
	return nil
}

func (s *service) UnpinMessage(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	removed, err := s.repo.Unpin(ctx, id, actor.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unpin message")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "message is not pinned")
	}

	entityID := id.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID(),
		Action:     enums.AuditMessageUnpinned,
		EntityType: enums.EntityMessage,
		EntityID:   &entityID,
		IPAddress:  actor.IPAddress(),
	})
	return nil
}

func (s *service) findMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup message")
	}
	return msg, nil
}

func (s *service) loadDTO(ctx context.Context, actor audit.Actor, id uuid.UUID) (*MessageDTO, error) {
	msg, err := s.findMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	attachments, err := s.repo.ListAttachments(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load attachments")
	}
	msg.Attachments = attachments

	pinned, err := s.repo.PinnedIDs(ctx, actor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pins")
	}

	dto := fromModel(msg)
	dto.Pinned = pinned[id]
	return dto, nil
}

// buildRecipients dedups user ids and group names independently; dentistaId
// joins the user recipients unless already present.
func buildRecipients(input CreateMessageInput) ([]models.MessageRecipient, error) {
	seenUsers := map[uuid.UUID]bool{}
	seenGroups := map[string]bool{}
	var recipients []models.MessageRecipient

	userIDs := input.RecipientUserIDs
	if input.DentistaID != nil {
		userIDs = append(userIDs, *input.DentistaID)
	}
	for _, id := range userIDs {
		if id == uuid.Nil || seenUsers[id] {
			continue
		}
		seenUsers[id] = true
		userID := id
		recipients = append(recipients, models.MessageRecipient{UserID: &userID})
	}

	for _, group := range input.RecipientGroups {
		name := strings.ToUpper(strings.TrimSpace(group))
		if name == "" || seenGroups[name] {
			continue
		}
		if _, err := enums.ParseRole(name); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown recipient group %s", group))
		}
		seenGroups[name] = true
		groupName := name
		recipients = append(recipients, models.MessageRecipient{GroupName: &groupName})
	}

	return recipients, nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
