package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/krycore/tierbot/internal/bot"
	"github.com/krycore/tierbot/internal/config"
	"github.com/krycore/tierbot/internal/database"
	"github.com/krycore/tierbot/internal/logging"
	"github.com/krycore/tierbot/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	// Initialize logger
	logger := logging.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Bot.Environment == "development" {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
		logger.Debug("Debug logging enabled", map[string]interface{}{
			"env": cfg.Bot.Environment,
		})
	}

	logger.Info("Starting tier bot...")

	// Connect to PostgreSQL
	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Run migrations
	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	// Connect to Redis
	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Root context: cancelled on shutdown, owns the reminder tasks.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The platform edge. A real chat client would be wired in here; the
	// logging platform keeps the process runnable headless.
	var platform bot.ChatPlatform = bot.LogPlatform{}

	// Initialize services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	notifier := bot.NewPlatformNotifier(platform, cfg.Bot, cfg.Challenge.AcceptDeadline)

	pointsService := services.NewPointsService(dbAdapter)
	flagService := services.NewFlagService(dbAdapter)
	challengeService := services.NewChallengeService(ctx, dbAdapter, pointsService, notifier, cfg.Challenge)
	adjudicationService := services.NewAdjudicationService(redisDB.Client, challengeService, cfg.Challenge.PromptTTL)

	handler := bot.NewHandler(challengeService, adjudicationService, pointsService, flagService, platform, cfg.Bot)

	// Restore reminder tasks for challenges that survived a restart.
	if err := handler.ResumeReminders(ctx); err != nil {
		return fmt.Errorf("resuming reminders: %w", err)
	}

	// One-time online announcement.
	if err := handler.AnnounceStartup(ctx); err != nil {
		logger.Warn("Startup announcement failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("Tier bot running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Bot is shutting down...")
	cancel()
	challengeService.Shutdown()
	logger.Info("Bot stopped")
	return nil
}
