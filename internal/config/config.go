package config

import (
	"errors"
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
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	// Payment gateway. The key id is public (shipped to the checkout widget);
	// the secret never leaves the server.
	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	CurrencyCode      string

	// Transactional email.
	BrevoAPIKey      string
	BrevoBaseURL     string
	EmailSenderName  string
	EmailSenderEmail string
	EmailEnabled     bool

	// Event identity used in email templates.
	EventName string
	EventDate string

	// Admin surface.
	AdminEmail        string
	AdminPasswordHash string
	JWTSecret         string
	AdminTokenTTL     time.Duration

	IdempotencyTTL  time.Duration
	VerifyReplayTTL time.Duration

	QueueRedisPrefix       string
	QueueMaxAttempts       int
	QueueConcurrencyEmail  int
	QueueVisibilityTimeout time.Duration
	QueueBackoffBase       time.Duration
	QueueBackoffJitter     float64

	RateLimitWindow time.Duration
	RateLimitMax    int

	OrderRequestTimeout     time.Duration
	EmailRequestTimeout     time.Duration
	EmailRetryBase          time.Duration
	EmailRetryMaxAttempts   int
	EmailRetryJitterPercent float64
	CircuitEmailMinReq      int
	CircuitEmailFailureRate float64
	CircuitEmailOpenFor     time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		RazorpayKeyID:     k.String("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: k.String("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:   valueOrDefault(k.String("RAZORPAY_BASE_URL"), "https://api.razorpay.com"),
		CurrencyCode:      valueOrDefault(k.String("CURRENCY_CODE"), "INR"),

		BrevoAPIKey:      k.String("BREVO_API_KEY"),
		BrevoBaseURL:     valueOrDefault(k.String("BREVO_BASE_URL"), "https://api.brevo.com"),
		EmailSenderName:  valueOrDefault(k.String("EMAIL_SENDER_NAME"), "IMPULSE 2025"),
		EmailSenderEmail: valueOrDefault(k.String("EMAIL_SENDER_EMAIL"), "impulse2025@gmail.com"),
		EmailEnabled:     parseBool(valueOrDefault(k.String("EMAIL_ENABLED"), "true")),

		EventName: valueOrDefault(k.String("EVENT_NAME"), "IMPULSE 2025"),
		EventDate: valueOrDefault(k.String("EVENT_DATE"), "February 6, 2025"),

		AdminEmail:        k.String("ADMIN_EMAIL"),
		AdminPasswordHash: k.String("ADMIN_PASSWORD_HASH"),
		JWTSecret:         k.String("JWT_SECRET"),
		AdminTokenTTL:     parseDuration(k.String("ADMIN_TOKEN_TTL"), "12h"),

		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		VerifyReplayTTL: parseDuration(k.String("VERIFY_REPLAY_TTL"), "48h"),

		QueueRedisPrefix:       valueOrDefault(k.String("QUEUE_REDIS_PREFIX"), "impulse"),
		QueueMaxAttempts:       parseInt(k.String("QUEUE_MAX_ATTEMPTS"), 6),
		QueueConcurrencyEmail:  parseInt(k.String("QUEUE_CONCURRENCY_EMAIL"), 4),
		QueueVisibilityTimeout: parseDuration(k.String("QUEUE_VISIBILITY_TIMEOUT"), "30s"),
		QueueBackoffBase:       parseDuration(k.String("QUEUE_BACKOFF_BASE"), "2s"),
		QueueBackoffJitter:     parseFloat(k.String("QUEUE_BACKOFF_JITTER"), 0.2),

		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:    parseInt(k.String("RATE_LIMIT_MAX"), 30),

		OrderRequestTimeout:     parseDuration(k.String("ORDER_REQUEST_TIMEOUT"), "10s"),
		EmailRequestTimeout:     parseDuration(k.String("EMAIL_REQUEST_TIMEOUT"), "10s"),
		EmailRetryBase:          parseDuration(k.String("EMAIL_RETRY_BASE"), "500ms"),
		EmailRetryMaxAttempts:   parseInt(k.String("EMAIL_RETRY_MAX_ATTEMPTS"), 3),
		EmailRetryJitterPercent: parseFloat(k.String("EMAIL_RETRY_JITTER"), 0.2),
		CircuitEmailMinReq:      parseInt(k.String("CIRCUIT_EMAIL_MIN_REQ"), 5),
		CircuitEmailFailureRate: parseFloat(k.String("CIRCUIT_EMAIL_FAILURE_RATE"), 0.5),
		CircuitEmailOpenFor:     parseDuration(k.String("CIRCUIT_EMAIL_OPEN_FOR"), "30s"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
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

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return parsed
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
