package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration for integration tests from the .env file or environment variables
// If TEST_MONGO_URI is not set, returns a Config with empty Mongo settings so that tests can skip
func LoadTestConfig() *Config {
	// Try to load .env file (ignore error if file doesn't exist - it's optional)
	_ = godotenv.Load("./../../configs/.env")
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Mongo.URI = os.Getenv("TEST_MONGO_URI")
	cfg.Mongo.DBName = os.Getenv("TEST_MONGO_DB_NAME")
	if cfg.Mongo.DBName == "" {
		cfg.Mongo.DBName = "wellnesshub_test"
	}
	cfg.Progress.ListCapacity = 3
	return cfg
}
