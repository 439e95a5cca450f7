package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfrchat/backend/internal/audit"
	"github.com/dfrchat/backend/internal/users"
	pkgAuth "github.com/dfrchat/backend/pkg/auth"
	"github.com/dfrchat/backend/pkg/config"
	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
	"github.com/dfrchat/backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, ip string, req LoginRequest) (*LoginResponse, error)
	SetupStatus(ctx context.Context) (*SetupStatusResponse, error)
	Setup(ctx context.Context, ip string, req SetupRequest) (*LoginResponse, error)
	ChangePassword(ctx context.Context, actor audit.Actor, req ChangePasswordRequest) error
}

type userRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CountByRole(ctx context.Context, role enums.Role) (int64, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, mustChange bool) error
}

type recorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type service struct {
	users       userRepository
	audit       recorder
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	Recorder       recorder
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("audit recorder is required")
	}
	return &service{
		users:       params.UserRepo,
		audit:       params.Recorder,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) Login(ctx context.Context, ip string, req LoginRequest) (*LoginResponse, error) {
	// missing fields are a malformed request, not a credential failure
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	ipPtr := ipAddress(ip)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// unknown account: no user to attribute, recorded against the system
			s.audit.Record(ctx, audit.Entry{
				Action:     enums.AuditLoginFailed,
				EntityType: enums.EntitySystem,
				Details:    audit.Detail(fmt.Sprintf("login attempt for unknown email %s", email)),
				IPAddress:  ipPtr,
			})
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if !user.Active {
		s.audit.Record(ctx, audit.Entry{
			Action:     enums.AuditLoginFailed,
			EntityType: enums.EntitySystem,
			Details:    audit.Detail(fmt.Sprintf("login attempt for inactive account %s", email)),
			IPAddress:  ipPtr,
		})
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		entityID := user.ID.String()
		s.audit.Record(ctx, audit.Entry{
			UserID:     &user.ID,
			Action:     enums.AuditLoginFailed,
			EntityType: enums.EntityUser,
			EntityID:   &entityID,
			Details:    audit.Detail("wrong password"),
			IPAddress:  ipPtr,
		})
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	token, err := s.mintToken(user)
	if err != nil {
		return nil, err
	}

	entityID := user.ID.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     &user.ID,
		Action:     enums.AuditLoginSuccess,
		EntityType: enums.EntityUser,
		EntityID:   &entityID,
		IPAddress:  ipPtr,
	})

	return &LoginResponse{
		Token:              token,
		User:               users.FromModel(user),
		MustChangePassword: user.MustChangePassword,
	}, nil
}

func (s *service) SetupStatus(ctx context.Context) (*SetupStatusResponse, error) {
	admins, err := s.users.CountByRole(ctx, enums.RoleAdministrador)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count administrators")
	}
	return &SetupStatusResponse{AdminExists: admins > 0}, nil
}

// Setup bootstraps the clinic administrator. It is only available while no
// ADMINISTRADOR account exists.
func (s *service) Setup(ctx context.Context, ip string, req SetupRequest) (*LoginResponse, error) {
	admins, err := s.users.CountByRole(ctx, enums.RoleAdministrador)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count administrators")
	}
	if admins > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "setup already completed")
	}

	if len(req.Password) < s.passwordCfg.MinLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must have at least %d characters", s.passwordCfg.MinLength))
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		Role:         enums.RoleAdministrador,
		Active:       true,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create administrator")
	}

	token, err := s.mintToken(user)
	if err != nil {
		return nil, err
	}

	entityID := user.ID.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     &user.ID,
		Action:     enums.AuditUserCreated,
		EntityType: enums.EntityUser,
		EntityID:   &entityID,
		Details:    audit.Detail("administrator account created during setup"),
		IPAddress:  ipAddress(ip),
	})

	return &LoginResponse{
		Token: token,
		User:  users.FromModel(user),
	}, nil
}

func (s *service) ChangePassword(ctx context.Context, actor audit.Actor, req ChangePasswordRequest) error {
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	if len(req.NewPassword) < s.passwordCfg.MinLength {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must have at least %d characters", s.passwordCfg.MinLength))
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, false); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}

	entityID := user.ID.String()
	s.audit.Record(ctx, audit.Entry{
		UserID:     actor.UserID(),
		Action:     enums.AuditPasswordChanged,
		EntityType: enums.EntityUser,
		EntityID:   &entityID,
		IPAddress:  actor.IPAddress(),
	})
	return nil
}

func (s *service) mintToken(user *models.User) (string, error) {
	token, err := pkgAuth.MintToken(s.jwtCfg, time.Now().UTC(), pkgAuth.TokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Name:   user.Name,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func ipAddress(ip string) *string {
	if ip == "" {
		return nil
	}
	return &ip
}
