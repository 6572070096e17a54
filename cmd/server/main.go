package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/modules"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/modules/catalog"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/modules/reviews"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/booker-backend/internal/token"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("production")
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.AppEnv)

	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	codec, err := token.New(token.Config{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.JWTAccessExpiry,
		RefreshTTL: cfg.JWTRefreshExpiry,
	})
	if err != nil {
		slog.Error("JWT_SECRET must be at least 32 bytes and not a single repeated character", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	mods := []modules.Module{
		catalog.New(),
		reviews.New(),
	}

	var moduleModels []interface{}
	for _, m := range mods {
		moduleModels = append(moduleModels, m.Models()...)
		slog.Info("module registered", "module", m.ID(), "models", len(m.Models()))
	}
	if err := database.Migrate(db, moduleModels...); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db, 5*time.Second)
	logging.Attach(pgLogHandler)

	// Object storage for covers
	var objects storage.ObjectStore = storage.Disabled{}
	if cfg.StorageEnabled() {
		minioStore, err := storage.NewMinio(ctx, cfg)
		if err != nil {
			slog.Error("object storage unavailable, cover uploads disabled", "endpoint", cfg.MinioEndpoint, "error", err)
		} else {
			objects = minioStore
			slog.Info("object storage connected", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
		}
	}

	// Shared rate limiter storage
	var limiterStorage fiber.Storage
	if cfg.RedisEnabled() {
		client, err := cache.Connect(ctx, cfg)
		if err != nil {
			slog.Error("redis unavailable, rate limits kept in memory", "addr", cfg.RedisAddr, "error", err)
		} else {
			limiterStorage = cache.NewRedisStorage(client, "booker:limiter:")
			slog.Info("redis connected", "addr", cfg.RedisAddr)
		}
	}

	// Services
	repo := store.NewGormRepository(db)
	hasher := services.NewBcryptHasher(bcrypt.DefaultCost)
	authService := services.NewAuthService(repo, codec, hasher, services.WithReuseDetection(cfg.ReuseDetection))
	userService := services.NewUserService(repo, hasher, authService)

	// Expired refresh tokens and old system logs
	logging.StartCleanup(ctx, db, authService, logging.CleanupConfig{
		LogRetentionDays:   cfg.LogRetentionDays,
		TokenSweepInterval: cfg.TokenSweepInterval,
	})

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	// Routes
	routes.Setup(app, routes.Router{
		Codec:      codec,
		Principals: repo.Users(),
		Auth:       handlers.NewAuthHandler(authService),
		Users:      handlers.NewUserHandler(userService),
		Health: handlers.NewHealthHandler(func(ctx context.Context) error {
			return database.Ping(ctx, db)
		}, cfg, len(mods)),
		Deps: modules.Deps{
			DB:      db,
			Config:  cfg,
			Storage: objects,
			Admin:   middleware.NewAdminPolicy(cfg),
		},
		Modules:        mods,
		LimiterStorage: limiterStorage,
	})

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	pgLogHandler.Stop()
	if limiterStorage != nil {
		if err := limiterStorage.Close(); err != nil {
			slog.Warn("redis close error", "error", err)
		}
	}

	// Close database connections
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error(),
			"request_id", c.Locals("requestid"))
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
