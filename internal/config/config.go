package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv                  string
	Port                    string
	RedisURL                string
	CORSAllowedOrigins      []string
	CacheTTL                time.Duration
	IdempotencyTTL          time.Duration
	RateLimitRequests       int
	RateLimitWindow         time.Duration
	MaxBodyBytes            int64
	CacheBreakerMinRequests int
	CacheBreakerFailureRate float64
	CacheBreakerOpenFor     time.Duration
	SeedSampleData          bool
}

// Load reads configuration from environment variables and optional .env files.
// REDIS_URL is optional: without it the service runs with the in-memory
// catalog only, no cache and no rate limiting.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:                  valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                    valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:                strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins:      splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CacheTTL:                parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		IdempotencyTTL:          parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimitRequests:       parseInt(k.String("RATE_LIMIT_REQUESTS"), 60),
		RateLimitWindow:         parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		MaxBodyBytes:            int64(parseInt(k.String("MAX_BODY_BYTES"), 1<<20)),
		CacheBreakerMinRequests: parseInt(k.String("CACHE_BREAKER_MIN_REQUESTS"), 5),
		CacheBreakerFailureRate: parseFloat(k.String("CACHE_BREAKER_FAILURE_RATE"), 0.5),
		CacheBreakerOpenFor:     parseDuration(k.String("CACHE_BREAKER_OPEN_FOR"), "30s"),
		SeedSampleData:          parseBool(valueOrDefault(k.String("SEED_SAMPLE_DATA"), "true")),
	}

	if cfg.RateLimitRequests < 0 {
		cfg.RateLimitRequests = 0
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
