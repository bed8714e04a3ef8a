package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/media"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/security"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/coachhub-backend/internal/store"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout) until the DB sink is available
	logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if err := database.SeedRoles(context.Background(), db, models.RolesToSeed(cfg.DefaultRole)...); err != nil {
		slog.Error("role seeding failed", "error", err)
		os.Exit(1)
	}

	// ERROR+ records are also batched into system_logs
	dbLog := logging.NewDBHandler(db, 5*time.Second,
		logging.WithFallback(slog.New(logging.NewJSONHandler(os.Stdout, "error"))),
	)
	logging.Setup(cfg.LogLevel, dbLog)

	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cfg.LogRetention, 24*time.Hour, cleanupDone)

	// Mail
	var sender mailer.Sender
	if cfg.SMTPEnabled() {
		smtp, err := mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
		})
		if err != nil {
			slog.Error("smtp setup failed", "error", err)
			os.Exit(1)
		}
		sender = smtp
	} else {
		slog.Warn("SMTP_HOST not set, outgoing mail will only be logged")
		sender = mailer.NewLogSender(nil)
	}
	dispatcher := mailer.NewDispatcher(sender, cfg.MailWorkers, cfg.MailQueueSize)
	notifier := mailer.New(dispatcher, cfg.AppBaseURL)

	// Media
	storage, err := newStorage(cfg)
	if err != nil {
		slog.Error("media storage setup failed", "backend", cfg.MediaBackend, "error", err)
		os.Exit(1)
	}

	// Services
	credentials := store.NewGormStore(db)
	issuer := security.NewSessionIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	authService := services.NewAuthService(
		credentials,
		security.NewArgon2idHasher(security.DefaultArgon2Params),
		issuer,
		notifier,
		services.WithResetTTL(cfg.ResetTokenTTL),
		services.WithDefaultRole(cfg.DefaultRole),
		services.WithAvatarRegistrar(media.NewRegistrar(storage, credentials, cfg.MaxAvatarBytes)),
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	adminHandler := handlers.NewAdminHandler(authService)
	healthHandler := handlers.NewHealthHandler(db)

	// Sentry error tracking
	sentryEnabled := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			sentryEnabled = true
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.MaxAvatarBytes) + 1024*1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	if sentryEnabled {
		app.Use(sentryfiber.New(sentryfiber.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, issuer, authHandler, adminHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := dispatcher.Close(ctx); err != nil {
		slog.Error("mail queue not drained", "error", err)
	}
	cancel()

	close(cleanupDone)
	dbLog.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func newStorage(cfg *config.Config) (media.Storage, error) {
	if cfg.MediaBackend == "s3" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return media.NewS3Storage(ctx, media.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return media.NewDiskStorage(cfg.UploadDir, "/uploads")
}
