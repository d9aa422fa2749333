package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/wellnesshub/backend/internal/config"
	"github.com/wellnesshub/backend/internal/logger"
	"github.com/wellnesshub/backend/internal/repositories"
	"github.com/wellnesshub/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting WellnessHub Scheduler")

	// Connect to database
	client, err := repositories.Connect(context.Background(), cfg.Mongo.URI)
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.Mongo.DBName)

	// Create Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	progressRepo := repositories.NewProgressRepository(db, logger.Logger)
	dispatcher := services.NewNotificationDispatcher(asynqClient, logger.Logger)
	reminderService := services.NewReminderService(progressRepo, dispatcher, cfg.Progress.StaleEnrollmentAfter, logger.Logger)

	// Create scheduler instance
	scheduler, err := NewScheduler(cfg.Progress.StaleSweepSchedule, reminderService, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to create scheduler", zap.Error(err))
	}

	// Start scheduler
	scheduler.Start()
	defer func() {
		logger.Logger.Info("Shutting down scheduler...")
		scheduler.Stop()
		logger.Logger.Info("Scheduler exited")
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
