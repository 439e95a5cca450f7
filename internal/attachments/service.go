package attachments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfrchat/backend/internal/audit"
	"github.com/dfrchat/backend/pkg/config"
	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
)

const fallbackContentType = "application/octet-stream"

// Storage abstracts where blobs live. The database-backed Repository is the
// default implementation.
type Storage interface {
	Create(ctx context.Context, attachment *models.MessageAttachment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.MessageAttachment, error)
	Link(ctx context.Context, attachmentIDs []uuid.UUID, messageID uuid.UUID) error
}

type recorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// UploadFile is one decoded multipart part.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// AttachmentDTO is the metadata payload returned after an upload.
type AttachmentDTO struct {
	ID       uuid.UUID `json:"id"`
	FileName string    `json:"fileName"`
	FilePath string    `json:"filePath"`
	FileType string    `json:"fileType"`
	FileSize int64     `json:"fileSize"`
}

// Service exposes upload and download of message attachments.
type Service interface {
	Upload(ctx context.Context, actor audit.Actor, messageID *uuid.UUID, files []UploadFile) ([]AttachmentDTO, error)
	Download(ctx context.Context, actor audit.Actor, id uuid.UUID) (*models.MessageAttachment, error)
}

type service struct {
	storage Storage
	audit   recorder
	cfg     config.UploadConfig
}

// NewService constructs the attachment service.
func NewService(storage Storage, rec recorder, cfg config.UploadConfig) (Service, error) {
	if storage == nil {
		return nil, fmt.Errorf("attachment storage is required")
	}
	if rec == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}
	return &service{storage: storage, audit: rec, cfg: cfg}, nil
}

func (s *service) Upload(ctx context.Context, actor audit.Actor, messageID *uuid.UUID, files []UploadFile) ([]AttachmentDTO, error) {
	if len(files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no files provided")
	}

	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	out := make([]AttachmentDTO, 0, len(files))
	for _, file := range files {
		name := strings.TrimSpace(file.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
		}
		if len(file.Data) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file %s is empty", name))
		}
		if int64(len(file.Data)) > maxBytes {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("file %s exceeds the %dMB limit", name, s.cfg.MaxUploadMB))
		}

		contentType := file.ContentType
		if contentType == "" {
			contentType = fallbackContentType
		}

		owner := models.PendingMessageID
		if messageID != nil {
			owner = messageID.String()
		}

		attachment := &models.MessageAttachment{
			ID:        uuid.New(),
			MessageID: owner,
			FileName:  name,
			FileType:  contentType,
			FileSize:  int64(len(file.Data)),
			FileData:  file.Data,
		}
		attachment.FilePath = fmt.Sprintf("/api/v1/upload/%s", attachment.ID)

		if err := s.storage.Create(ctx, attachment); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store attachment")
		}

		entityID := attachment.ID.String()
		s.audit.Record(ctx, audit.Entry{
			UserID:     actor.UserID(),
			Action:     enums.AuditAttachmentUploaded,
			EntityType: enums.EntityAttachment,
			EntityID:   &entityID,
			Details:    audit.Detail(fmt.Sprintf("uploaded %s (%d bytes)", name, attachment.FileSize)),
			IPAddress:  actor.IPAddress(),
		})

		out = append(out, AttachmentDTO{
			ID:       attachment.ID,
			FileName: attachment.FileName,
			FilePath: attachment.FilePath,
			FileType: attachment.FileType,
			FileSize: attachment.FileSize,
		})
	}

	return out, nil
}

func (s *service) Download(ctx context.Context, actor audit.Actor, id uuid.UUID) (*models.MessageAttachment, error) {
	attachment, err := s.storage.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "attachment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup attachment")
	}

	entityID := attachment.ID.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID(),
		Action:     enums.AuditAttachmentDownloaded,
		EntityType: enums.EntityAttachment,
		EntityID:   &entityID,
		Details:    audit.Detail(fmt.Sprintf("downloaded %s", attachment.FileName)),
		IPAddress:  actor.IPAddress(),
	})

	return attachment, nil
}
