package attachments

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfrchat/backend/internal/audit"
	"github.com/dfrchat/backend/pkg/config"
	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
)

type fakeStorage struct {
	byID map[uuid.UUID]*models.MessageAttachment
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{byID: map[uuid.UUID]*models.MessageAttachment{}}
}

func (f *fakeStorage) Create(ctx context.Context, attachment *models.MessageAttachment) error {
	f.byID[attachment.ID] = attachment
	return nil
}

func (f *fakeStorage) FindByID(ctx context.Context, id uuid.UUID) (*models.MessageAttachment, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStorage) Link(ctx context.Context, attachmentIDs []uuid.UUID, messageID uuid.UUID) error {
	for _, id := range attachmentIDs {
		if a, ok := f.byID[id]; ok && a.MessageID == models.PendingMessageID {
			a.MessageID = messageID.String()
		}
	}
	return nil
}

type fakeRecorder struct {
	entries []audit.Entry
}

func (f *fakeRecorder) Record(ctx context.Context, entry audit.Entry) {
	f.entries = append(f.entries, entry)
}

func (f *fakeRecorder) lastAction() enums.AuditAction {
	if len(f.entries) == 0 {
		return ""
	}
	return f.entries[len(f.entries)-1].Action
}

func buildAttachmentService(t *testing.T, storage *fakeStorage) (Service, *fakeRecorder) {
	t.Helper()
	rec := &fakeRecorder{}
	svc, err := NewService(storage, rec, config.UploadConfig{MaxUploadMB: 1})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, rec
}

func uploaderActor() audit.Actor {
	return audit.Actor{ID: uuid.New(), Role: enums.RoleDentista, IP: "10.0.0.9"}
}

func TestUploadStoresPendingAttachment(t *testing.T) {
	storage := newFakeStorage()
	svc, rec := buildAttachmentService(t, storage)

	out, err := svc.Upload(context.Background(), uploaderActor(), nil, []UploadFile{
		{Name: "raio-x.png", ContentType: "image/png", Data: []byte("png-bytes")},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one attachment, got %d", len(out))
	}

	stored := storage.byID[out[0].ID]
	if stored == nil {
		t.Fatal("attachment not stored")
	}
	if stored.MessageID != models.PendingMessageID {
		t.Fatalf("expected pending sentinel, got %q", stored.MessageID)
	}
	if want := "/api/v1/upload/" + out[0].ID.String(); out[0].FilePath != want {
		t.Fatalf("expected file path %s, got %s", want, out[0].FilePath)
	}
	if !bytes.Equal(stored.FileData, []byte("png-bytes")) {
		t.Fatal("blob was not stored intact")
	}
	if rec.lastAction() != enums.AuditAttachmentUploaded {
		t.Fatalf("expected ATTACHMENT_UPLOADED audit, got %s", rec.lastAction())
	}
}

func TestUploadLinksDirectlyWhenMessageGiven(t *testing.T) {
	storage := newFakeStorage()
	svc, _ := buildAttachmentService(t, storage)

	messageID := uuid.New()
	out, err := svc.Upload(context.Background(), uploaderActor(), &messageID, []UploadFile{
		{Name: "orcamento.pdf", ContentType: "application/pdf", Data: []byte("pdf")},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if storage.byID[out[0].ID].MessageID != messageID.String() {
		t.Fatalf("expected direct link to %s, got %s", messageID, storage.byID[out[0].ID].MessageID)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc, _ := buildAttachmentService(t, newFakeStorage())

	_, err := svc.Upload(context.Background(), uploaderActor(), nil, []UploadFile{
		{Name: "grande.bin", Data: bytes.Repeat([]byte{0x1}, 2<<20)},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(typed.Error(), "1MB") {
		t.Fatalf("expected the limit in the message, got %q", typed.Error())
	}
}

func TestUploadRejectsEmptyBatch(t *testing.T) {
	svc, _ := buildAttachmentService(t, newFakeStorage())

	_, err := svc.Upload(context.Background(), uploaderActor(), nil, nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadDefaultsContentType(t *testing.T) {
	storage := newFakeStorage()
	svc, _ := buildAttachmentService(t, storage)

	out, err := svc.Upload(context.Background(), uploaderActor(), nil, []UploadFile{
		{Name: "sem-tipo", Data: []byte("x")},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if out[0].FileType != "application/octet-stream" {
		t.Fatalf("expected fallback content type, got %s", out[0].FileType)
	}
}

func TestDownloadAuditsAndReturnsBlob(t *testing.T) {
	storage := newFakeStorage()
	svc, rec := buildAttachmentService(t, storage)

	id := uuid.New()
	storage.byID[id] = &models.MessageAttachment{
		ID:       id,
		FileName: "raio-x.png",
		FileType: "image/png",
		FileData: []byte("png-bytes"),
	}

	attachment, err := svc.Download(context.Background(), uploaderActor(), id)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !bytes.Equal(attachment.FileData, []byte("png-bytes")) {
		t.Fatal("blob mismatch")
	}
	if rec.lastAction() != enums.AuditAttachmentDownloaded {
		t.Fatalf("expected ATTACHMENT_DOWNLOADED audit, got %s", rec.lastAction())
	}
}

func TestDownloadUnknownAttachment(t *testing.T) {
	svc, _ := buildAttachmentService(t, newFakeStorage())

	_, err := svc.Download(context.Background(), uploaderActor(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
