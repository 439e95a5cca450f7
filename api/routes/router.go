package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dfrchat/backend/api/controllers"
	"github.com/dfrchat/backend/api/middleware"
	"github.com/dfrchat/backend/internal/attachments"
	"github.com/dfrchat/backend/internal/audit"
	"github.com/dfrchat/backend/internal/auth"
	"github.com/dfrchat/backend/internal/backup"
	"github.com/dfrchat/backend/internal/dashboard"
	"github.com/dfrchat/backend/internal/messages"
	"github.com/dfrchat/backend/internal/users"
	"github.com/dfrchat/backend/pkg/config"
	"github.com/dfrchat/backend/pkg/db"
	"github.com/dfrchat/backend/pkg/logger"
	"github.com/dfrchat/backend/pkg/metrics"
	"github.com/dfrchat/backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      *db.Client
	Redis   *redis.Client
	Metrics *metrics.HTTPMetrics

	Auth        auth.Service
	Users       users.Service
	Messages    messages.Service
	Attachments attachments.Service
	Audit       audit.Service
	Backup      backup.Service
	Dashboard   dashboard.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(deps.DB, deps.Redis, logg))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Get("/setup", controllers.AuthSetupStatus(deps.Auth, logg))
		r.Post("/setup", controllers.AuthSetup(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Post("/change-password", controllers.AuthChangePassword(deps.Auth, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", controllers.MessagesList(deps.Messages, logg))
			r.Post("/", controllers.MessagesCreate(deps.Messages, logg))
			r.Get("/{id}", controllers.MessagesGet(deps.Messages, logg))
			r.Put("/{id}", controllers.MessagesUpdate(deps.Messages, logg))
			r.With(middleware.RequireAdminOrDiretoria(logg)).
				Delete("/{id}", controllers.MessagesDelete(deps.Messages, logg))
			r.Post("/{id}/pin", controllers.MessagePin(deps.Messages, logg))
			r.Delete("/{id}/pin", controllers.MessageUnpin(deps.Messages, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))
			r.Get("/", controllers.UsersList(deps.Users, logg))
			r.Post("/", controllers.UsersCreate(deps.Users, logg))
			r.Get("/{id}", controllers.UsersGet(deps.Users, logg))
			r.Put("/{id}", controllers.UsersUpdate(deps.Users, logg))
			r.Delete("/{id}", controllers.UsersDeactivate(deps.Users, logg))
			r.Patch("/{id}", controllers.UsersResetPassword(deps.Users, logg))
		})

		r.Route("/upload", func(r chi.Router) {
			r.Post("/", controllers.UploadFiles(deps.Attachments, cfg.Upload, logg))
			r.Get("/{id}", controllers.DownloadAttachment(deps.Attachments, logg))
		})

		r.With(middleware.RequireAdminOrDiretoria(logg)).
			Get("/audit-log", controllers.AuditLogList(deps.Audit, logg))

		r.Route("/backup", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))
			r.Get("/export", controllers.BackupExport(deps.Backup, logg))
			r.Post("/import", controllers.BackupImport(deps.Backup, logg))
			r.Get("/import", controllers.BackupHistory(deps.Backup, logg))
		})

		r.Get("/dashboard", controllers.DashboardStats(deps.Dashboard, logg))
	})

	return r
}
