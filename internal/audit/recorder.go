package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
	"github.com/dfrchat/backend/pkg/logger"
)

// Entry describes one event to be recorded.
type Entry struct {
	UserID     *uuid.UUID
	Action     enums.AuditAction
	EntityType enums.EntityType
	EntityID   *string
	Details    *string
	IPAddress  *string
}

type insertRepository interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
}

// Recorder writes audit rows as a side effect of domain operations. A failed
// write is logged and swallowed so it never breaks the operation itself.
type Recorder struct {
	repo insertRepository
	logg *logger.Logger
}

// NewRecorder builds a recorder backed by the audit repository.
func NewRecorder(repo insertRepository, logg *logger.Logger) *Recorder {
	return &Recorder{repo: repo, logg: logg}
}

// Record persists the entry, logging instead of returning on failure.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.repo == nil {
		return
	}

	row := &models.AuditLog{
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
		IPAddress:  entry.IPAddress,
	}

	if err := r.repo.Insert(ctx, row); err != nil && r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"audit_action": string(entry.Action),
			"entity_type":  string(entry.EntityType),
		})
		r.logg.Error(logCtx, "audit.record_failed", err)
	}
}

// Detail returns a pointer to the given string, for Entry literals.
func Detail(value string) *string {
	return &value
}
