// internal/config/config.go
package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string

	JWTSecret           string
	JWTExpiresInSeconds int64

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPUseTLS   bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitMaxRequests int
	RateLimitWindow      time.Duration

	CORSAllowedOrigins []string
	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Only enable it behind a proxy that overwrites them.
	TrustProxyHeaders bool

	ResetCodeRetention     time.Duration
	ResetCodePurgeInterval time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		host := getEnv("PSQL_HOST", "localhost")
		port := getEnv("PSQL_PORT", "5432")
		user := getEnv("PSQL_USER", "postgres")
		password := getEnv("PSQL_PASSWORD", "postgres")
		dbName := getEnv("PSQL_DB_NAME", "cashflow")

		u := &url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(user, password),
			Host:   host + ":" + port,
			Path:   dbName,
		}
		q := u.Query()
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
		databaseURL = u.String()
	}

	return &Config{
		Port:        getEnv("PORT", "3000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL,

		JWTSecret:           getEnv("JWT_SECRET", devJWTSecret),
		JWTExpiresInSeconds: int64(getEnvInt("JWT_EXPIRES_IN_SECONDS", 86400)),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "Cashflow App <no-reply@cashflow.local>"),
		SMTPUseTLS:   getEnvBool("SMTP_USE_TLS", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitMaxRequests: getEnvInt("RATE_LIMIT_MAX_REQUESTS", 10),
		RateLimitWindow:      time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		TrustProxyHeaders:  getEnvBool("TRUST_PROXY_HEADERS", false),

		ResetCodeRetention:     time.Duration(getEnvInt("RESET_CODE_RETENTION_HOURS", 24)) * time.Hour,
		ResetCodePurgeInterval: time.Duration(getEnvInt("RESET_CODE_PURGE_INTERVAL_MINUTES", 30)) * time.Minute,
	}
}

const devJWTSecret = "dev"

var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set to a non-default value in production")

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate rejects settings that are only acceptable in development.
func (c *Config) Validate() error {
	if c.IsProduction() && (strings.TrimSpace(c.JWTSecret) == "" || c.JWTSecret == devJWTSecret) {
		return ErrInsecureJWTSecret
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
