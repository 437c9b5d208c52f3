package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP Configuration
	HTTP HTTPConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig

	// Email Configuration
	Email EmailConfig

	// Usage Configuration
	Usage UsageConfig
}

// HTTPConfig holds API server configuration
type HTTPConfig struct {
	Addr        string
	CORSOrigins []string
	AppBaseURL  string // Base URL of the web app, used for links in emails
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// EmailConfig holds SMTP configuration. An empty Host disables delivery and
// the worker logs messages instead.
type EmailConfig struct {
	From     string
	Host     string
	Port     int
	Username string
	Password string
}

// Enabled reports whether SMTP delivery is configured
func (e EmailConfig) Enabled() bool {
	return e.Host != ""
}

// UsageConfig holds usage period configuration
type UsageConfig struct {
	ResetSchedule string // Cron expression, e.g. "0 0 1 * *" (monthly)
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	return &Config{
		HTTP: HTTPConfig{
			Addr:        getEnv("HTTP_ADDR", ":8080"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
			AppBaseURL:  strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:5173"), "/"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "coldread.sqlite"),
		},
		Redis: RedisConfig{
			Address: getEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Email: EmailConfig{
			From:     getEnv("EMAIL_FROM", "coldread <no-reply@localhost>"),
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
		Usage: UsageConfig{
			ResetSchedule: getEnv("USAGE_RESET_SCHEDULE", "0 0 1 * *"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
