package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dfrchat/backend/internal/audit"
	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
)

// recentLimit caps the recent-messages strip.
const recentLimit = 10

type statsRepository interface {
	CountActive(ctx context.Context, viewerID uuid.UUID, role enums.Role) (int64, error)
	CountUnread(ctx context.Context, viewerID uuid.UUID, role enums.Role) (int64, error)
	CountActiveByPriority(ctx context.Context, viewerID uuid.UUID, role enums.Role) (map[enums.Priority]int64, error)
	CountActiveByCategory(ctx context.Context, viewerID uuid.UUID, role enums.Role) (map[enums.Category]int64, error)
	RecentMessages(ctx context.Context, viewerID uuid.UUID, role enums.Role, limit int) ([]models.Message, error)
	CountUsers(ctx context.Context) (total int64, active int64, err error)
}

// RecentMessageDTO is the compact row shown on the dashboard strip.
type RecentMessageDTO struct {
	ID         uuid.UUID           `json:"id"`
	Conteudo   string              `json:"conteudo"`
	Prioridade enums.Priority      `json:"prioridade"`
	Categoria  enums.Category      `json:"categoria"`
	Status     enums.MessageStatus `json:"status"`
	Remetente  string              `json:"remetente"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// StatsDTO is the dashboard payload, scoped to the calling user.
type StatsDTO struct {
	TotalMessages    int64              `json:"totalMessages"`
	UnreadMessages   int64              `json:"unreadMessages"`
	UrgentMessages   int64              `json:"urgentMessages"`
	CriticalMessages int64              `json:"criticalMessages"`
	TotalUsers       int64              `json:"totalUsers"`
	ActiveUsers      int64              `json:"activeUsers"`
	ByPrioridade     map[string]int64   `json:"byPrioridade"`
	ByCategoria      map[string]int64   `json:"byCategoria"`
	RecentMessages   []RecentMessageDTO `json:"recentMessages"`
}

// Service computes the per-user dashboard.
type Service interface {
	Stats(ctx context.Context, actor audit.Actor) (*StatsDTO, error)
}

type service struct {
	repo statsRepository
}

// NewService constructs the dashboard service.
func NewService(repo statsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Stats(ctx context.Context, actor audit.Actor) (*StatsDTO, error) {
	total, err := s.repo.CountActive(ctx, actor.ID, actor.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count active messages")
	}
	unread, err := s.repo.CountUnread(ctx, actor.ID, actor.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count unread messages")
	}
	byPriority, err := s.repo.CountActiveByPriority(ctx, actor.ID, actor.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count by priority")
	}
	byCategory, err := s.repo.CountActiveByCategory(ctx, actor.ID, actor.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count by category")
	}
	recent, err := s.repo.RecentMessages(ctx, actor.ID, actor.Role, recentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent messages")
	}
	totalUsers, activeUsers, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
	}

	stats := &StatsDTO{
		TotalMessages:    total,
		UnreadMessages:   unread,
		UrgentMessages:   byPriority[enums.PriorityUrgente],
		CriticalMessages: byPriority[enums.PriorityCritica],
		TotalUsers:       totalUsers,
		ActiveUsers:      activeUsers,
		ByPrioridade:     map[string]int64{},
		ByCategoria:      map[string]int64{},
		RecentMessages:   make([]RecentMessageDTO, 0, len(recent)),
	}
	for priority, count := range byPriority {
		stats.ByPrioridade[string(priority)] = count
	}
	for category, count := range byCategory {
		stats.ByCategoria[string(category)] = count
	}
	for i := range recent {
		msg := &recent[i]
		row := RecentMessageDTO{
			ID:         msg.ID,
			Conteudo:   msg.Conteudo,
			Prioridade: msg.Prioridade,
			Categoria:  msg.Categoria,
			Status:     msg.Status,
			CreatedAt:  msg.CreatedAt,
		}
		if msg.Remetente != nil {
			row.Remetente = msg.Remetente.Name
		}
		stats.RecentMessages = append(stats.RecentMessages, row)
	}

	return stats, nil
}
