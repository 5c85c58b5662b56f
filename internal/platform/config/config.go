package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  string
	JWTSigningKey string
	TokenTTL      time.Duration
	PageSize      int
	PreviewCap    int
	SeedUsersPath string
}

// Defaults that are policy, not plumbing. PreviewCap bounds the unpurchased
// item preview on the list detail view.
const (
	DefaultPageSize   = 20
	DefaultPreviewCap = 3
	DefaultTokenTTL   = 24 * time.Hour
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("BASKET_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  os.Getenv("KAFKA_BROKERS"),
		JWTSigningKey: jwtSigningKey,
		TokenTTL:      durationFromEnv("TOKEN_TTL", DefaultTokenTTL),
		PageSize:      intFromEnv("PAGE_SIZE", DefaultPageSize),
		PreviewCap:    intFromEnv("UNPURCHASED_PREVIEW_CAP", DefaultPreviewCap),
		SeedUsersPath: os.Getenv("SEED_USERS_FILE"),
	}
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
