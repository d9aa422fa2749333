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

	logger.Logger.Info("Starting WellnessHub Notification Worker")

	// Connect to database
	client, err := repositories.Connect(context.Background(), cfg.Mongo.URI)
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.Mongo.DBName)

	accountRepo := repositories.NewAccountRepository(db, logger.Logger)

	// Create Asynq server
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Queues: map[string]int{
				services.NotificationQueue: 1,
			},
		},
	)

	// Create worker instance
	worker := NewWorker(logger.Logger, accountRepo, SMTPSettings{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(services.TypeNotification, worker.HandleNotification)

	// Start worker
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Logger.Fatal("Failed to start worker", zap.Error(err))
		}
	}()

	logger.Logger.Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}
