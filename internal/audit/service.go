package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
	"github.com/dfrchat/backend/pkg/pagination"
)

// DefaultPageSize applies when the caller does not request a limit.
const DefaultPageSize = 50

type listRepository interface {
	List(ctx context.Context, q ListQuery) ([]models.AuditLog, int64, error)
}

// Service exposes the read side of the audit trail.
type Service interface {
	ListEntries(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo listRepository
}

// NewService builds the audit listing service.
func NewService(repo listRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository is required")
	}
	return &service{repo: repo}, nil
}

// ListParams holds the raw filter values from the query string.
type ListParams struct {
	UserID     string
	Action     string
	EntityType string
	DateFrom   *time.Time
	DateTo     *time.Time
	Pagination pagination.Params
}

// EntryDTO is the transport shape of one audit row.
type EntryDTO struct {
	ID         uuid.UUID  `json:"id"`
	UserID     *uuid.UUID `json:"userId,omitempty"`
	UserName   string     `json:"userName,omitempty"`
	Action     string     `json:"action"`
	EntityType string     `json:"entityType"`
	EntityID   *string    `json:"entityId,omitempty"`
	Details    *string    `json:"details,omitempty"`
	IPAddress  *string    `json:"ipAddress,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ListResult carries one page of entries.
type ListResult struct {
	Entries []EntryDTO
	Page    pagination.Page
}

func (s *service) ListEntries(ctx context.Context, params ListParams) (*ListResult, error) {
	q := ListQuery{
		DateFrom:   params.DateFrom,
		DateTo:     params.DateTo,
		Pagination: params.Pagination.Normalize(DefaultPageSize),
	}

	if params.UserID != "" {
		id, err := uuid.Parse(params.UserID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid userId filter")
		}
		q.UserID = &id
	}
	if params.Action != "" {
		action, err := enums.ParseAuditAction(params.Action)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid action filter")
		}
		q.Action = &action
	}
	if params.EntityType != "" {
		entity, err := enums.ParseEntityType(params.EntityType)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid entityType filter")
		}
		q.EntityType = &entity
	}

	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list audit entries")
	}

	entries := make([]EntryDTO, 0, len(rows))
	for i := range rows {
		entries = append(entries, fromModel(&rows[i]))
	}

	return &ListResult{
		Entries: entries,
		Page:    pagination.NewPage(q.Pagination, total),
	}, nil
}

func fromModel(row *models.AuditLog) EntryDTO {
	dto := EntryDTO{
		ID:         row.ID,
		UserID:     row.UserID,
		Action:     string(row.Action),
		EntityType: string(row.EntityType),
		EntityID:   row.EntityID,
		Details:    row.Details,
		IPAddress:  row.IPAddress,
		CreatedAt:  row.CreatedAt,
	}
	if row.User != nil {
		dto.UserName = row.User.Name
	}
	return dto
}
