package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mongodb"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "github.com/wellnesshub/backend/docs"
	"github.com/wellnesshub/backend/internal/auth"
	"github.com/wellnesshub/backend/internal/cache"
	"github.com/wellnesshub/backend/internal/config"
	"github.com/wellnesshub/backend/internal/handlers"
	"github.com/wellnesshub/backend/internal/logger"
	loggerMiddleware "github.com/wellnesshub/backend/internal/logger/middleware"
	"github.com/wellnesshub/backend/internal/middlewares"
	"github.com/wellnesshub/backend/internal/models"
	"github.com/wellnesshub/backend/internal/repositories"
	"github.com/wellnesshub/backend/internal/services"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// @title WellnessHub Progress API
// @version 1.0
// @description API for course progress tracking and badge awards

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
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

	logger.Logger.Info("Starting WellnessHub API")

	// Connect to database
	client, err := repositories.Connect(context.Background(), cfg.Mongo.URI)
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer client.Disconnect(context.Background())
	db := client.Database(cfg.Mongo.DBName)

	// Run migrations
	if err := runMigrations(client, cfg.Mongo.DBName); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		// The trigger cache falls back to the database when Redis is unavailable
		logger.Logger.Warn("Failed to connect to Redis", zap.Error(err))
	}

	// Create Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize JWT token generator
	tokenGenerator := auth.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize repositories
	lessonStore := repositories.NewListStore[models.Lesson](db, repositories.LessonPartition, cfg.Progress.ListCapacity, logger.Logger)
	badgeStore := repositories.NewListStore[models.Badge](db, repositories.BadgePartition, cfg.Progress.ListCapacity, logger.Logger)
	courseRepo := repositories.NewCourseRepository(db, lessonStore, badgeStore, logger.Logger)
	progressRepo := repositories.NewProgressRepository(db, logger.Logger)
	accountRepo := repositories.NewAccountRepository(db, logger.Logger)
	triggerRepo := repositories.NewBadgeTriggerRepository(db, logger.Logger)
	triggerCache := cache.NewTriggerCache(rdb, triggerRepo, cfg.Progress.TriggerCacheTTL, logger.Logger)

	var tx services.Transactor = repositories.PassthroughTransactor{}
	if cfg.Mongo.Transactions {
		tx = repositories.NewMongoTransactor(client)
	}

	// Initialize services
	dispatcher := services.NewNotificationDispatcher(asynqClient, logger.Logger)
	progressService := services.NewProgressService(courseRepo, progressRepo, accountRepo, triggerCache, tx, dispatcher, logger.Logger)
	contentService := services.NewCourseContentService(courseRepo, lessonStore, badgeStore, triggerCache, logger.Logger)

	// Initialize handlers
	progressHandler := handlers.NewProgressHandler(progressService, logger.Logger)
	courseHandler := handlers.NewCourseHandler(contentService, logger.Logger)

	// Initialize auth middleware
	authMiddleware := auth.AuthMiddleware(tokenGenerator)
	memberMiddleware := auth.RoleMiddleware(auth.RoleMember)
	mentorMiddleware := auth.RoleMiddleware(auth.RoleMentor)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(middlewares.DefaultMaxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware)
		courseHandler.RegisterRoutes(r, mentorMiddleware)
		r.Group(func(r chi.Router) {
			r.Use(memberMiddleware)
			progressHandler.RegisterRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// runMigrations applies the index migrations
func runMigrations(client *mongo.Client, dbName string) error {
	driver, err := mongodb.WithInstance(client, &mongodb.Config{
		DatabaseName:         dbName,
		MigrationsCollection: "schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mongodb", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
