package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dfrchat/backend/internal/audit"
	"github.com/dfrchat/backend/pkg/config"
	"github.com/dfrchat/backend/pkg/db/models"
	"github.com/dfrchat/backend/pkg/enums"
	pkgerrors "github.com/dfrchat/backend/pkg/errors"
	"github.com/dfrchat/backend/pkg/security"
)

type fakeUserRepo struct {
	byID map[uuid.UUID]*models.User

	lastPasswordHash string
	lastMustChange   bool
}

func newFakeUserRepo(seed ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: map[uuid.UUID]*models.User{}}
	for _, u := range seed {
		f.put(u)
	}
	return f
}

func (f *fakeUserRepo) put(u *models.User) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.byID[u.ID] = u
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	f.put(user)
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) List(ctx context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.put(user)
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, mustChange bool) error {
	f.lastPasswordHash = hash
	f.lastMustChange = mustChange
	if u, ok := f.byID[id]; ok {
		u.PasswordHash = hash
		u.MustChangePassword = mustChange
	}
	return nil
}

type fakePendingChecker struct {
	pending bool
}

func (f *fakePendingChecker) HasUnreadActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	return f.pending, nil
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

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		MinLength:        6,
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func buildUserService(t *testing.T, repo *fakeUserRepo, pending *fakePendingChecker) (Service, *fakeRecorder) {
	t.Helper()
	if pending == nil {
		pending = &fakePendingChecker{}
	}
	rec := &fakeRecorder{}
	svc, err := NewService(repo, pending, rec, testPasswordConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, rec
}

func adminActor() audit.Actor {
	return audit.Actor{ID: uuid.New(), Role: enums.RoleAdministrador, IP: "10.0.0.1"}
}

func TestCreateUserHashesPasswordAndAudits(t *testing.T) {
	repo := newFakeUserRepo()
	svc, rec := buildUserService(t, repo, nil)

	dto, err := svc.CreateUser(context.Background(), adminActor(), CreateUserInput{
		Name:     "Maria Souza",
		Email:    "  Maria@Clinic.Example ",
		Password: "segredo1",
		Role:     "DENTISTA",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if dto.Email != "maria@clinic.example" {
		t.Fatalf("expected normalized email, got %q", dto.Email)
	}
	if !dto.MustChangePassword {
		t.Fatal("expected provisioned account to force a password change")
	}

	stored, err := repo.FindByEmail(context.Background(), "maria@clinic.example")
	if err != nil {
		t.Fatalf("lookup stored user: %v", err)
	}
	if stored.PasswordHash == "segredo1" {
		t.Fatal("password stored in plain text")
	}
	if ok, err := security.VerifyPassword("segredo1", stored.PasswordHash); err != nil || !ok {
		t.Fatalf("stored hash does not verify: ok=%v err=%v", ok, err)
	}
	if rec.lastAction() != enums.AuditUserCreated {
		t.Fatalf("expected USER_CREATED audit, got %s", rec.lastAction())
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo(&models.User{Email: "dup@clinic.example", Role: enums.RoleVendas})
	svc, _ := buildUserService(t, repo, nil)

	_, err := svc.CreateUser(context.Background(), adminActor(), CreateUserInput{
		Name:     "Someone",
		Email:    "dup@clinic.example",
		Password: "segredo1",
		Role:     "VENDAS",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestCreateUserRejectsAdministratorRole(t *testing.T) {
	svc, _ := buildUserService(t, newFakeUserRepo(), nil)

	_, err := svc.CreateUser(context.Background(), adminActor(), CreateUserInput{
		Name:     "Second Admin",
		Email:    "admin2@clinic.example",
		Password: "segredo1",
		Role:     "ADMINISTRADOR",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateUserIgnoresRoleChangeForAdministrator(t *testing.T) {
	admin := &models.User{Email: "admin@clinic.example", Role: enums.RoleAdministrador, Active: true}
	repo := newFakeUserRepo(admin)
	svc, _ := buildUserService(t, repo, nil)

	role := "DENTISTA"
	dto, err := svc.UpdateUser(context.Background(), adminActor(), admin.ID, UpdateUserInput{Role: &role})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if dto.Role != enums.RoleAdministrador {
		t.Fatalf("administrator role must not change, got %s", dto.Role)
	}
}

func TestUpdateUserRejectsPromotionToAdministrator(t *testing.T) {
	target := &models.User{Email: "dentista@clinic.example", Role: enums.RoleDentista, Active: true}
	repo := newFakeUserRepo(target)
	svc, _ := buildUserService(t, repo, nil)

	role := "ADMINISTRADOR"
	_, err := svc.UpdateUser(context.Background(), adminActor(), target.ID, UpdateUserInput{Role: &role})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeactivateUserRefusesAdministrator(t *testing.T) {
	admin := &models.User{Email: "admin@clinic.example", Role: enums.RoleAdministrador, Active: true}
	repo := newFakeUserRepo(admin)
	svc, _ := buildUserService(t, repo, nil)

	err := svc.DeactivateUser(context.Background(), adminActor(), admin.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeactivateUserRefusesWithUnreadMessages(t *testing.T) {
	target := &models.User{Email: "asb@clinic.example", Role: enums.RoleASB, Active: true}
	repo := newFakeUserRepo(target)
	svc, _ := buildUserService(t, repo, &fakePendingChecker{pending: true})

	err := svc.DeactivateUser(context.Background(), adminActor(), target.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeactivateUserAudits(t *testing.T) {
	target := &models.User{Email: "asb@clinic.example", Role: enums.RoleASB, Active: true}
	repo := newFakeUserRepo(target)
	svc, rec := buildUserService(t, repo, nil)

	if err := svc.DeactivateUser(context.Background(), adminActor(), target.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if target.Active {
		t.Fatal("expected user to be deactivated")
	}
	if rec.lastAction() != enums.AuditUserDeactivated {
		t.Fatalf("expected USER_DEACTIVATED audit, got %s", rec.lastAction())
	}
}

func TestResetPasswordForcesChange(t *testing.T) {
	target := &models.User{Email: "dentista@clinic.example", Role: enums.RoleDentista, Active: true}
	repo := newFakeUserRepo(target)
	svc, rec := buildUserService(t, repo, nil)

	if err := svc.ResetPassword(context.Background(), adminActor(), target.ID, "trocar123"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if !repo.lastMustChange {
		t.Fatal("expected repo to store must_change_password=true")
	}
	if rec.lastAction() != enums.AuditPasswordReset {
		t.Fatalf("expected PASSWORD_RESET audit, got %s", rec.lastAction())
	}
}

func TestResetPasswordEnforcesMinLength(t *testing.T) {
	target := &models.User{Email: "dentista@clinic.example", Role: enums.RoleDentista, Active: true}
	repo := newFakeUserRepo(target)
	svc, _ := buildUserService(t, repo, nil)

	err := svc.ResetPassword(context.Background(), adminActor(), target.ID, "curta")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
