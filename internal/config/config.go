// Package config loads service settings from the environment (and .env).
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Env         string
	HTTPPort    string
	StoreDriver string
	DatabaseURL string
	DBMigrate   bool
	JWTSecret   string
	CORSOrigins []string

	RabbitMQURL string

	MailHost    string
	MailPort    int
	MailUser    string
	MailPass    string
	MailFrom    string
	NotifyEmail string

	StuckScanInterval   time.Duration
	ImportRatePerMinute int
	ImportMaxBytes      int64
	ImportSessionTTL    time.Duration
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

func (c *Config) EventsEnabled() bool { return c.RabbitMQURL != "" }

func (c *Config) MailEnabled() bool { return c.MailHost != "" && c.NotifyEmail != "" }

// Load reads configuration from environment variables. A missing .env file is fine.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:         getEnv("APP_ENV", "production"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBMigrate:   parseBool(getEnv("DB_MIGRATE", "true"), true),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		MailHost:    getEnv("MAIL_HOST", ""),
		MailPort:    parseInt(getEnv("MAIL_PORT", "587"), 587),
		MailUser:    getEnv("MAIL_USER", ""),
		MailPass:    getEnv("MAIL_PASS", ""),
		MailFrom:    getEnv("MAIL_FROM", "no-reply@localhost"),
		NotifyEmail: getEnv("NOTIFY_EMAIL", ""),

		StuckScanInterval:   parseDuration(getEnv("STUCK_SCAN_INTERVAL", "1h"), time.Hour),
		ImportRatePerMinute: parseInt(getEnv("IMPORT_RATE_PER_MINUTE", "10"), 10),
		ImportMaxBytes:      int64(parseInt(getEnv("IMPORT_MAX_BYTES", "5242880"), 5<<20)),
		ImportSessionTTL:    parseDuration(getEnv("IMPORT_SESSION_TTL", "30m"), 30*time.Minute),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreDriverMemory:
	default:
		return errors.New("STORE_DRIVER must be postgres or memory")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.StuckScanInterval <= 0 {
		return errors.New("STUCK_SCAN_INTERVAL must be positive")
	}
	if c.ImportRatePerMinute <= 0 {
		return errors.New("IMPORT_RATE_PER_MINUTE must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func parseBool(value string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return b
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
