// cmd/api/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"cashflow/internal/config"
	"cashflow/internal/db"
	"cashflow/internal/db/migrations"
	"cashflow/internal/logging"
	"cashflow/internal/middleware"
	"cashflow/internal/repository"
	"cashflow/internal/routes"
	"cashflow/internal/services"
)

// @title Cashflow API
// @version 1.0
// @description Accounts, login and password recovery for the Cashflow personal finance app.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.New(cfg.IsProduction())
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create database if it doesn't exist
	created, err := db.CreateDatabaseIfNotExists(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to ensure database exists: %v", err)
	}
	if created {
		logger.Info(ctx, "database created")
	}

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run database migrations
	if err := migrations.RunMigrations(ctx, database.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	deps := routes.Deps{
		Log:     logger,
		Mailer:  newMailer(cfg, logger),
		Limiter: newLimiter(ctx, cfg, logger),
	}

	s3Config, err := config.NewS3Config(ctx)
	if err != nil {
		log.Fatalf("Failed to configure S3: %v", err)
	}
	if store := services.NewS3PhotoStore(s3Config); store != nil {
		deps.Photos = store
	} else {
		logger.Warn(ctx, "S3_BUCKET_NAME not set, photo uploads disabled")
	}

	purger := services.NewResetCodePurger(
		repository.NewResetCodeRepository(database.DB),
		cfg.ResetCodeRetention,
		cfg.ResetCodePurgeInterval,
		logger,
	)
	go purger.Run(ctx)

	// Create router and setup routes
	router := routes.SetupRoutes(database.DB, cfg, deps)

	// Create server
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info(ctx, "server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info(context.Background(), "shutting down server")

	// Give server 5 seconds to finish current requests
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server forced to shutdown", "err", err)
		os.Exit(1)
	}

	logger.Info(context.Background(), "server exiting")
}

func newMailer(cfg *config.Config, logger logging.Logger) services.EmailSender {
	if cfg.SMTPHost == "" {
		logger.Warn(context.Background(), "SMTP_HOST not set, emails will only be logged")
		return &services.LogSender{Log: logger}
	}
	return &services.SMTPSender{
		Host:   cfg.SMTPHost,
		Port:   cfg.SMTPPort,
		User:   cfg.SMTPUser,
		Pass:   cfg.SMTPPassword,
		From:   cfg.SMTPFrom,
		UseTLS: cfg.SMTPUseTLS,
	}
}

// newLimiter prefers Redis so limits hold across instances, and falls back
// to process memory when Redis is not configured or not reachable.
func newLimiter(ctx context.Context, cfg *config.Config, logger logging.Logger) middleware.Limiter {
	if cfg.RedisAddr == "" {
		return middleware.NewMemoryLimiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn(ctx, "redis unreachable, using in-memory rate limiter", "addr", cfg.RedisAddr, "err", err)
		_ = client.Close()
		return middleware.NewMemoryLimiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	}

	logger.Info(ctx, "rate limiting backed by redis", "addr", cfg.RedisAddr)
	return middleware.NewRedisLimiter(client, cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
}
