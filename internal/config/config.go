// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Mongo    MongoConfig
	Redis    RedisConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Progress ProgressConfig
}

// MongoConfig holds document store connection settings
type MongoConfig struct {
	URI    string
	DBName string
	// Transactions enables multi-document transactions (requires a replica set)
	Transactions bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// SMTPConfig holds SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// ProgressConfig holds settings of the course progress engine
type ProgressConfig struct {
	// ListCapacity is the number of lessons/badges kept on the course document
	ListCapacity int
	// TriggerCacheTTL is how long the badge trigger registry stays cached in Redis
	TriggerCacheTTL time.Duration
	// StaleEnrollmentAfter is the age of an incomplete enrollment that triggers a reminder
	StaleEnrollmentAfter time.Duration
	// StaleSweepSchedule is the cron spec of the reminder sweep
	StaleSweepSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Mongo configuration
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}
	cfg.Mongo.URI = mongoURI

	mongoDB := os.Getenv("MONGO_DB_NAME")
	if mongoDB == "" {
		return nil, fmt.Errorf("MONGO_DB_NAME is required")
	}
	cfg.Mongo.DBName = mongoDB

	transactions, err := parseBool("MONGO_TRANSACTIONS", true)
	if err != nil {
		return nil, err
	}
	cfg.Mongo.Transactions = transactions

	// Server configuration
	serverPort, err := parseInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	accessExpiry, err := parseDuration("JWT_ACCESS_TOKEN_EXPIRY", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWT.AccessTokenExpiry = accessExpiry

	// Redis configuration (trigger cache and notification queue)
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost"
	}
	cfg.Redis.Host = redisHost

	redisPort, err := parseInt("REDIS_PORT", 6379)
	if err != nil {
		return nil, err
	}
	cfg.Redis.Port = redisPort

	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional

	redisDB, err := parseInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.Redis.DB = redisDB

	// SMTP configuration (optional, for the notification worker)
	smtpHost := os.Getenv("SMTP_HOST")
	if smtpHost == "" {
		smtpHost = "localhost"
	}
	cfg.SMTP.Host = smtpHost

	smtpPort, err := parseInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	cfg.SMTP.Port = smtpPort

	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")

	smtpFrom := os.Getenv("SMTP_FROM")
	if smtpFrom == "" {
		smtpFrom = "noreply@wellnesshub.app"
	}
	cfg.SMTP.From = smtpFrom

	// Progress engine configuration
	listCapacity, err := parseInt("LIST_CAPACITY", 30)
	if err != nil {
		return nil, err
	}
	if listCapacity < 1 {
		return nil, fmt.Errorf("LIST_CAPACITY must be positive")
	}
	cfg.Progress.ListCapacity = listCapacity

	cacheTTL, err := parseDuration("TRIGGER_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.Progress.TriggerCacheTTL = cacheTTL

	staleAfter, err := parseDuration("STALE_ENROLLMENT_AFTER", 48*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.Progress.StaleEnrollmentAfter = staleAfter

	schedule := os.Getenv("STALE_SWEEP_SCHEDULE")
	if schedule == "" {
		schedule = "0 12 * * *"
	}
	cfg.Progress.StaleSweepSchedule = schedule

	return cfg, nil
}

// RedisAddr returns the Redis address in host:port form
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func parseInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseBool(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// parseOrigins splits a comma-separated origin list, defaulting to allow all
func parseOrigins(raw string) []string {
	if raw == "" {
		// Default to allow all origins if not specified (for development)
		return []string{"*"}
	}
	origins := strings.Split(raw, ",")
	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed = append(allowed, origin)
		}
	}
	if len(allowed) == 0 {
		return []string{"*"}
	}
	return allowed
}
