package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dfrchat/backend/api/routes"
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
	"github.com/dfrchat/backend/pkg/migrate"
	"github.com/dfrchat/backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	auditRepo := audit.NewRepository(gormDB)
	userRepo := users.NewRepository(gormDB)
	messageRepo := messages.NewRepository(gormDB)
	attachmentRepo := attachments.NewRepository(gormDB)
	backupRepo := backup.NewRepository(gormDB)
	dashboardRepo := dashboard.NewRepository(gormDB)

	recorder := audit.NewRecorder(auditRepo, logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		Recorder:       recorder,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(userRepo, messageRepo, recorder, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	messageService, err := messages.NewService(messageRepo, attachmentRepo, recorder)
	if err != nil {
		logg.Error(context.Background(), "failed to create messages service", err)
		os.Exit(1)
	}

	attachmentService, err := attachments.NewService(attachmentRepo, recorder, cfg.Upload)
	if err != nil {
		logg.Error(context.Background(), "failed to create attachments service", err)
		os.Exit(1)
	}

	auditService, err := audit.NewService(auditRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	backupService, err := backup.NewService(backup.ServiceParams{
		Store:         backupRepo,
		AuditRows:     auditRepo,
		Recorder:      recorder,
		Logger:        logg,
		AuditRowLimit: cfg.Backup.AuditRowLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create backup service", err)
		os.Exit(1)
	}

	dashboardService, err := dashboard.NewService(dashboardRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Metrics:     httpMetrics,
			Auth:        authService,
			Users:       userService,
			Messages:    messageService,
			Attachments: attachmentService,
			Audit:       auditService,
			Backup:      backupService,
			Dashboard:   dashboardService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
