package backup

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dfrchat/backend/internal/audit"
	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
	"github.com/dfrchat/backend/pkg/logger"
)

type fakeBackupStore struct {
	users       []models.User
	messages    []models.Message
	attachments []models.MessageAttachment
	pins        []models.PinnedMessage
	records     []models.Backup

	existing           map[uuid.UUID]bool
	imported           []*models.Message
	importedRecipients map[uuid.UUID][]models.MessageRecipient
	importedEdits      map[uuid.UUID][]models.MessageEdit
	failImport         map[uuid.UUID]bool
}

func newFakeBackupStore() *fakeBackupStore {
	return &fakeBackupStore{
		existing:           map[uuid.UUID]bool{},
		importedRecipients: map[uuid.UUID][]models.MessageRecipient{},
		importedEdits:      map[uuid.UUID][]models.MessageEdit{},
		failImport:         map[uuid.UUID]bool{},
	}
}

func (f *fakeBackupStore) InsertRecord(ctx context.Context, record *models.Backup) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeBackupStore) ListRecords(ctx context.Context) ([]models.Backup, error) {
	return f.records, nil
}

func (f *fakeBackupStore) ExportUsers(ctx context.Context) ([]models.User, error) {
	return f.users, nil
}

func (f *fakeBackupStore) ExportMessages(ctx context.Context) ([]models.Message, error) {
	return f.messages, nil
}

func (f *fakeBackupStore) ExportAttachmentsMeta(ctx context.Context) ([]models.MessageAttachment, error) {
	return f.attachments, nil
}

func (f *fakeBackupStore) ExportPins(ctx context.Context) ([]models.PinnedMessage, error) {
	return f.pins, nil
}

func (f *fakeBackupStore) MessageExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.existing[id], nil
}

func (f *fakeBackupStore) ImportMessage(ctx context.Context, msg *models.Message, recipients []models.MessageRecipient, edits []models.MessageEdit) error {
	if f.failImport[msg.ID] {
		return io.ErrUnexpectedEOF
	}
	f.imported = append(f.imported, msg)
	f.importedRecipients[msg.ID] = recipients
	f.importedEdits[msg.ID] = edits
	return nil
}

type fakeAuditLister struct {
	rows []models.AuditLog
}

func (f *fakeAuditLister) ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if len(f.rows) > limit {
		return f.rows[:limit], nil
	}
	return f.rows, nil
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

func buildBackupService(t *testing.T, store *fakeBackupStore, lister *fakeAuditLister) (Service, *fakeRecorder) {
	t.Helper()
	if lister == nil {
		lister = &fakeAuditLister{}
	}
	rec := &fakeRecorder{}
	svc, err := NewService(ServiceParams{
		Store:     store,
		AuditRows: lister,
		Recorder:  rec,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, rec
}

func backupActor() audit.Actor {
	return audit.Actor{ID: uuid.New(), Role: enums.RoleAdministrador, IP: "10.0.0.2"}
}

func TestExportBackupOmitsPasswordHashes(t *testing.T) {
	store := newFakeBackupStore()
	store.users = []models.User{{
		ID:           uuid.New(),
		Name:         "Admin",
		Email:        "admin@clinic.example",
		PasswordHash: "argon2id$super-secret",
		Role:         enums.RoleAdministrador,
		Active:       true,
	}}
	svc, rec := buildBackupService(t, store, nil)

	export, err := svc.ExportBackup(context.Background(), backupActor())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if strings.Contains(string(export.Payload), "super-secret") {
		t.Fatal("export leaked a password hash")
	}

	var doc Document
	if err := json.Unmarshal(export.Payload, &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if doc.Version != FormatVersion {
		t.Fatalf("expected version %s, got %s", FormatVersion, doc.Version)
	}
	if doc.Stats.Users != 1 {
		t.Fatalf("expected 1 user in stats, got %d", doc.Stats.Users)
	}
	if rec.lastAction() != enums.AuditBackupExported {
		t.Fatalf("expected BACKUP_EXPORTED audit, got %s", rec.lastAction())
	}
}

func TestExportBackupRecordsRunAndNamesFile(t *testing.T) {
	store := newFakeBackupStore()
	svc, _ := buildBackupService(t, store, nil)

	export, err := svc.ExportBackup(context.Background(), backupActor())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	want := "dfrchat-backup-" + time.Now().UTC().Format("2006-01-02") + ".json"
	if export.FileName != want {
		t.Fatalf("expected file name %s, got %s", want, export.FileName)
	}
	if len(store.records) != 1 || store.records[0].Type != enums.BackupTypeExport {
		t.Fatalf("expected one EXPORT record, got %+v", store.records)
	}
	if store.records[0].FileSize != int64(len(export.Payload)) {
		t.Fatal("recorded file size does not match the payload")
	}
}

func TestExportBackupBundlesMessageGraph(t *testing.T) {
	store := newFakeBackupStore()
	msgID := uuid.New()
	reader := uuid.New()
	store.messages = []models.Message{{
		ID:          msgID,
		Conteudo:    "exportar",
		Prioridade:  enums.PriorityCritica,
		Categoria:   enums.CategoryUrgencia,
		Status:      enums.MessageStatusAtiva,
		RemetenteID: uuid.New(),
		Recipients:  []models.MessageRecipient{{ID: uuid.New(), MessageID: msgID, UserID: &reader}},
	}}
	store.attachments = []models.MessageAttachment{{
		ID:        uuid.New(),
		MessageID: msgID.String(),
		FileName:  "raio-x.png",
		FileType:  "image/png",
		FileSize:  10,
	}}
	svc, _ := buildBackupService(t, store, nil)

	export, err := svc.ExportBackup(context.Background(), backupActor())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(export.Payload, &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(doc.Data.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(doc.Data.Messages))
	}
	msg := doc.Data.Messages[0]
	if len(msg.Recipients) != 1 || len(msg.Attachments) != 1 {
		t.Fatalf("expected recipients and attachments in the export, got %+v", msg)
	}
}

func TestImportBackupRejectsUnknownVersion(t *testing.T) {
	svc, _ := buildBackupService(t, newFakeBackupStore(), nil)

	_, err := svc.ImportBackup(context.Background(), backupActor(), Document{Version: "2.0", Data: &Data{}})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestImportBackupRejectsMissingData(t *testing.T) {
	svc, _ := buildBackupService(t, newFakeBackupStore(), nil)

	_, err := svc.ImportBackup(context.Background(), backupActor(), Document{Version: FormatVersion})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestImportBackupMergesOnlyNewMessages(t *testing.T) {
	store := newFakeBackupStore()
	existing := uuid.New()
	fresh := uuid.New()
	broken := uuid.New()
	store.existing[existing] = true
	store.failImport[broken] = true
	svc, rec := buildBackupService(t, store, nil)

	result, err := svc.ImportBackup(context.Background(), backupActor(), Document{
		Version: FormatVersion,
		Data: &Data{
			Messages: []ExportedMessage{
				{ID: existing, Conteudo: "ja existe", RemetenteID: uuid.New()},
				{ID: fresh, Conteudo: "nova", RemetenteID: uuid.New()},
				{ID: broken, Conteudo: "quebrada", RemetenteID: uuid.New()},
			},
		},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if result.Inserted != 1 {
		t.Fatalf("expected 1 inserted, got %d", result.Inserted)
	}
	if result.Skipped != 2 {
		t.Fatalf("expected 2 skipped, got %d", result.Skipped)
	}
	if len(store.imported) != 1 || store.imported[0].ID != fresh {
		t.Fatalf("expected only the fresh message to be imported, got %+v", store.imported)
	}
	if len(store.records) != 1 || store.records[0].Type != enums.BackupTypeImport {
		t.Fatalf("expected one IMPORT record, got %+v", store.records)
	}
	if rec.lastAction() != enums.AuditBackupImported {
		t.Fatalf("expected BACKUP_IMPORTED audit, got %s", rec.lastAction())
	}
}

func TestImportBackupPreservesOriginalTimestamps(t *testing.T) {
	store := newFakeBackupStore()
	svc, _ := buildBackupService(t, store, nil)

	id := uuid.New()
	reader := uuid.New()
	created := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	updated := created.Add(2 * time.Hour)
	readAt := created.Add(time.Hour)
	edited := created.Add(90 * time.Minute)

	_, err := svc.ImportBackup(context.Background(), backupActor(), Document{
		Version: FormatVersion,
		Data: &Data{
			Messages: []ExportedMessage{{
				ID:          id,
				Conteudo:    "historico",
				RemetenteID: uuid.New(),
				CreatedAt:   created,
				UpdatedAt:   updated,
				Recipients: []ExportedRecipient{{
					ID:        uuid.New(),
					UserID:    &reader,
					ReadAt:    &readAt,
					CreatedAt: created,
				}},
				EditHistory: []ExportedEdit{{
					ID:           uuid.New(),
					UserID:       uuid.New(),
					NewContent:   "historico",
					FieldChanged: "conteudo",
					EditedAt:     edited,
				}},
			}},
		},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if len(store.imported) != 1 {
		t.Fatalf("expected one imported message, got %d", len(store.imported))
	}
	msg := store.imported[0]
	if !msg.CreatedAt.Equal(created) || !msg.UpdatedAt.Equal(updated) {
		t.Fatalf("timestamps restamped: created %v updated %v", msg.CreatedAt, msg.UpdatedAt)
	}
	recipients := store.importedRecipients[id]
	if len(recipients) != 1 || !recipients[0].CreatedAt.Equal(created) {
		t.Fatalf("recipient timestamp lost: %+v", recipients)
	}
	edits := store.importedEdits[id]
	if len(edits) != 1 || !edits[0].EditedAt.Equal(edited) {
		t.Fatalf("edit timestamp lost: %+v", edits)
	}
}

func TestImportBackupRejectsAmbiguousRecipients(t *testing.T) {
	store := newFakeBackupStore()
	svc, _ := buildBackupService(t, store, nil)

	user := uuid.New()
	group := string(enums.RoleDentista)
	bothSet := uuid.New()
	noneSet := uuid.New()
	valid := uuid.New()

	result, err := svc.ImportBackup(context.Background(), backupActor(), Document{
		Version: FormatVersion,
		Data: &Data{
			Messages: []ExportedMessage{
				{
					ID:          bothSet,
					Conteudo:    "alvo duplo",
					RemetenteID: uuid.New(),
					Recipients:  []ExportedRecipient{{ID: uuid.New(), UserID: &user, GroupName: &group}},
				},
				{
					ID:          noneSet,
					Conteudo:    "sem alvo",
					RemetenteID: uuid.New(),
					Recipients:  []ExportedRecipient{{ID: uuid.New()}},
				},
				{
					ID:          valid,
					Conteudo:    "ok",
					RemetenteID: uuid.New(),
					Recipients:  []ExportedRecipient{{ID: uuid.New(), UserID: &user}},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if result.Inserted != 1 || result.Skipped != 2 {
		t.Fatalf("expected 1 inserted / 2 skipped, got %d / %d", result.Inserted, result.Skipped)
	}
	if len(store.imported) != 1 || store.imported[0].ID != valid {
		t.Fatalf("expected only the well-formed message to land, got %+v", store.imported)
	}
}

func TestHistoryJoinsActorName(t *testing.T) {
	store := newFakeBackupStore()
	store.records = []models.Backup{{
		ID:       uuid.New(),
		FileName: "dfrchat-backup-2026-08-30.json",
		FileSize: 2048,
		Type:     enums.BackupTypeExport,
		User:     &models.User{Name: "Admin"},
	}}
	svc, _ := buildBackupService(t, store, nil)

	history, err := svc.History(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].CreatedBy != "Admin" {
		t.Fatalf("expected actor name in history, got %+v", history)
	}
}
