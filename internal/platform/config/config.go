package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean; development defaults keep a local
// checkout runnable without a .env file.
type Config struct {
	Addr string
	Env  string

	DatabaseURL string

	Redis RedisConfig

	// FingerprintSalt is mixed into the respondent email hash. Changing it
	// invalidates every stored fingerprint, so it is set once per deployment.
	FingerprintSalt string

	// AdminAPIKeyHash is the bcrypt hash of the admin bearer key. Empty
	// disables the admin surface entirely.
	AdminAPIKeyHash string

	// ErasureTokenSecret signs self-service erasure-link tokens.
	ErasureTokenSecret string
	ErasureTokenTTL    time.Duration

	// SubmitRateLimit is the per-IP ceiling for public submission routes
	// within SubmitRateWindow. Zero disables the limiter.
	SubmitRateLimit  int
	SubmitRateWindow time.Duration
}

// RedisConfig holds connection settings for the rate-limit backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool { return c.Env == "production" }

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:        envOr("FORMPULSE_ADDR", ":8080"),
		Env:         envOr("FORMPULSE_ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		// Default matches the salt shipped with the first deployment. Override
		// in production; rotating it orphans existing fingerprints.
		FingerprintSalt:    envOr("FINGERPRINT_SALT", "likert-form-salt"),
		AdminAPIKeyHash:    os.Getenv("ADMIN_API_KEY_HASH"),
		ErasureTokenSecret: os.Getenv("ERASURE_TOKEN_SECRET"),
		ErasureTokenTTL:    envDurationOr("ERASURE_TOKEN_TTL", 72*time.Hour),
		SubmitRateLimit:    envIntOr("SUBMIT_RATE_LIMIT", 30),
		SubmitRateWindow:   envDurationOr("SUBMIT_RATE_WINDOW", time.Minute),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
