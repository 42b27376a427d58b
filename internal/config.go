package internal

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, loaded from the environment
// with development-friendly defaults.
type Config struct {
	Env      string
	LogLevel string
	Port     uint16

	Mongo MongoConfig
	Redis RedisConfig
	NATS  NATSConfig
	Admin AdminConfig

	// CORSOrigins are the origins allowed to call the API from a
	// browser. "*" allows all.
	CORSOrigins []string
}

// MongoConfig holds the document store connection settings.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds the cart cache connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig holds the event bus connection settings. An empty URL
// disables publishing.
type NATSConfig struct {
	URL string
}

// AdminConfig guards the order-management endpoints.
type AdminConfig struct {
	Token string
}

// NewConfig loads configuration from .env (when present) and the
// process environment.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Default().Warn(".env file not found, using environment variables and defaults")
	}

	cfg := &Config{
		Env:      getEnv("ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvInt("PORT", 3000),
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB_NAME", "wellness"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       int(getEnvInt("REDIS_DB", 0)),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Admin: AdminConfig{
			Token: getEnv("ADMIN_TOKEN", ""),
		},
		CORSOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if cfg.Env == "prod" && cfg.Admin.Token == "" {
		return nil, fmt.Errorf("ADMIN_TOKEN must be set in production")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
