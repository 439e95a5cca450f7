package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfrchat/backend/internal/audit"
	"github.com/dfrchat/backend/pkg/config"
	"github.com/dfrchat/backend/pkg/db"
	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
	"github.com/dfrchat/backend/pkg/security"
)

type userRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, mustChange bool) error
}

type pendingMessageChecker interface {
	HasUnreadActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

type recorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service exposes the account management operations available to admins.
type Service interface {
	ListUsers(ctx context.Context) ([]UserDTO, error)
	GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	CreateUser(ctx context.Context, actor audit.Actor, input CreateUserInput) (*UserDTO, error)
	UpdateUser(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateUserInput) (*UserDTO, error)
	DeactivateUser(ctx context.Context, actor audit.Actor, id uuid.UUID) error
	ResetPassword(ctx context.Context, actor audit.Actor, id uuid.UUID, newPassword string) error
}

type service struct {
	repo        userRepository
	pending     pendingMessageChecker
	audit       recorder
	passwordCfg config.PasswordConfig
}

// NewService constructs the user admin service. The pending checker guards
// deactivation against unread active messages.
func NewService(repo userRepository, pending pendingMessageChecker, rec recorder, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if pending == nil {
		return nil, fmt.Errorf("pending message checker is required")
	}
	if rec == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}
	return &service{repo: repo, pending: pending, audit: rec, passwordCfg: passwordCfg}, nil
}

func (s *service) ListUsers(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return FromModels(rows), nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) CreateUser(ctx context.Context, actor audit.Actor, input CreateUserInput) (*UserDTO, error) {
	role, err := enums.ParseRole(input.Role)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if role == enums.RoleAdministrador {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "the administrator account is created during setup")
	}

	if len(input.Password) < s.passwordCfg.MinLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must have at least %d characters", s.passwordCfg.MinLength))
	}

	email := normalizeEmail(input.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Name:               strings.TrimSpace(input.Name),
		Email:              email,
		Phone:              strings.TrimSpace(input.Phone),
		PasswordHash:       hash,
		Role:               role,
		Active:             true,
		MustChangePassword: true,
	}
	if _, err := s.repo.Create(ctx, user); err != nil {
		// FindByEmail above races with concurrent creates; the unique index wins
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	entityID := user.ID.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID(),
		Action:     enums.AuditUserCreated,
		EntityType: enums.EntityUser,
		EntityID:   &entityID,
		Details:    audit.Detail(fmt.Sprintf("user %s created with role %s", user.Email, user.Role)),
		IPAddress:  actor.IPAddress(),
	})

	return FromModel(user), nil
}

func (s *service) UpdateUser(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email != user.Email {
			if _, err := s.repo.FindByEmail(ctx, email); err == nil {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
			}
			user.Email = email
		}
	}

	// the administrator keeps their role no matter what the payload says
	if input.Role != nil && user.Role != enums.RoleAdministrador {
		role, err := enums.ParseRole(*input.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		if role == enums.RoleAdministrador {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot promote to administrator")
		}
		user.Role = role
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}

	entityID := user.ID.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID(),
		Action:     enums.AuditUserUpdated,
		EntityType: enums.EntityUser,
		EntityID:   &entityID,
		Details:    audit.Detail(fmt.Sprintf("user %s updated", user.Email)),
		IPAddress:  actor.IPAddress(),
	})

	return FromModel(user), nil
}

func (s *service) DeactivateUser(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}

	if user.Role == enums.RoleAdministrador {
		return pkgerrors.New(pkgerrors.CodeValidation, "the administrator account cannot be deactivated")
	}
	if !user.Active {
		return pkgerrors.New(pkgerrors.CodeValidation, "user is already inactive")
	}

	hasPending, err := s.pending.HasUnreadActive(ctx, user.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check pending messages")
	}
	if hasPending {
		return pkgerrors.New(pkgerrors.CodeValidation, "user still has unread active messages")
	}

	user.Active = false
	if err := s.repo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate user")
	}

	entityID := user.ID.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID(),
		Action:     enums.AuditUserDeactivated,
		EntityType: enums.EntityUser,
		EntityID:   &entityID,
		Details:    audit.Detail(fmt.Sprintf("user %s deactivated", user.Email)),
		IPAddress:  actor.IPAddress(),
	})
	return nil
}

func (s *service) ResetPassword(ctx context.Context, actor audit.Actor, id uuid.UUID, newPassword string) error {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}

	if len(newPassword) < s.passwordCfg.MinLength {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must have at least %d characters", s.passwordCfg.MinLength))
	}

	hash, err := security.HashPassword(newPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	// admin reset forces the user to pick a new password at next login
	if err := s.repo.UpdatePassword(ctx, user.ID, hash, true); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset password")
	}

	entityID := user.ID.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID(),
		Action:     enums.AuditPasswordReset,
		EntityType: enums.EntityUser,
		EntityID:   &entityID,
		Details:    audit.Detail(fmt.Sprintf("password reset for %s", user.Email)),
		IPAddress:  actor.IPAddress(),
	})
	return nil
}

func (s *service) findUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
