package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Lead storage
	LeadStore   string
	DatabaseURL string
	SQLitePath  string

	// Intake
	IntakeFallbackEmail string
	MaxBodyBytes        int64

	// Notifications
	SlackWebhookURL      string
	NotifyTimeout        time.Duration
	AlertEmailRecipients []string
	EmailProvider        string
	EmailFrom            string
	EmailFromName        string
	SendGridAPIKey       string
	ResendAPIKey         string

	// AWS (SES)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Rate limiting on the public form endpoints
	RateLimitBackend string
	RateLimitRPS     float64
	RateLimitBurst   int
	RateLimitWindow  time.Duration

	CORSAllowedOrigins []string
	AdminJWTSecret     string
	MetricsEnabled     bool
}

const (
	// DefaultIntakeFallbackEmail is stored on IntakeSmart leads submitted without an email.
	DefaultIntakeFallbackEmail = "intakesmart@stelliformdigital.com"

	StoreAuto     = "auto"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real env vars win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LeadStore:   strings.ToLower(strings.TrimSpace(getEnv("LEAD_STORE", StoreAuto))),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", ""),

		IntakeFallbackEmail: getEnv("INTAKE_FALLBACK_EMAIL", DefaultIntakeFallbackEmail),
		MaxBodyBytes:        int64(getEnvAsInt("MAX_BODY_BYTES", 64<<10)),

		SlackWebhookURL:      strings.TrimSpace(getEnv("SLACK_WEBHOOK_URL", "")),
		NotifyTimeout:        getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),
		AlertEmailRecipients: getEnvAsList("ALERT_EMAIL_RECIPIENTS"),
		EmailProvider:        strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "none"))),
		EmailFrom:            getEnv("EMAIL_FROM", "leads@stelliformdigital.com"),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "Stelliform Digital"),
		SendGridAPIKey:       getEnv("SENDGRID_API_KEY", ""),
		ResendAPIKey:         getEnv("RESEND_API_KEY", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		RateLimitBackend: strings.ToLower(strings.TrimSpace(getEnv("RATE_LIMIT_BACKEND", "memory"))),
		RateLimitRPS:     getEnvAsFloat("RATE_LIMIT_RPS", 0.2),
		RateLimitBurst:   getEnvAsInt("RATE_LIMIT_BURST", 5),
		RateLimitWindow:  getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		MetricsEnabled:     getEnvAsBool("METRICS_ENABLED", true),
	}
}

// ResolvedLeadStore returns the concrete store backend, resolving "auto"
// to postgres when DATABASE_URL is set, sqlite when SQLITE_PATH is set,
// and memory otherwise.
func (c *Config) ResolvedLeadStore() string {
	switch c.LeadStore {
	case StorePostgres, StoreSQLite, StoreMemory:
		return c.LeadStore
	}
	if strings.TrimSpace(c.DatabaseURL) != "" {
		return StorePostgres
	}
	if strings.TrimSpace(c.SQLitePath) != "" {
		return StoreSQLite
	}
	return StoreMemory
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
