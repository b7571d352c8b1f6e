// Package config loads the application configuration once at startup.
//
// Values come from the process environment, optionally seeded from a .env
// file. Nothing else in the codebase reads the environment directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Storage     StorageConfig
	GoogleBooks GoogleBooksConfig
	Mail        MailConfig
	RateLimit   RateLimitConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Environment string
	LogLevel    string
	ClientURL   string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// DatabaseConfig holds Postgres connection and pool settings.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret        string
	TokenTTL         time.Duration
	PasswordResetTTL time.Duration
}

// StorageConfig holds S3-compatible object storage settings.
// Storage is optional; Enabled reports whether every required value is set.
type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
	URLExpiry time.Duration
}

// Enabled reports whether object storage is fully configured.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

// GoogleBooksConfig holds Google Books API settings.
type GoogleBooksConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// MailConfig holds outbound email settings. Mail is delivered through Resend
// when ResendAPIKey is set and logged otherwise.
type MailConfig struct {
	From          string
	ResendAPIKey  string
	ResendBaseURL string
}

// Enabled reports whether a delivery provider is configured.
func (m MailConfig) Enabled() bool {
	return m.ResendAPIKey != ""
}

// RateLimitConfig holds per-IP limits for the auth endpoints.
type RateLimitConfig struct {
	AuthRPS   float64
	AuthBurst int
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Load reads the optional .env file at envFile and builds the configuration.
// A missing .env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}

	cfg := &Config{
		App: AppConfig{
			Environment: r.str("APP_ENV", "development"),
			LogLevel:    r.str("LOG_LEVEL", "info"),
			ClientURL:   r.str("CLIENT_URL", "http://localhost:5173"),
		},
		Server: ServerConfig{
			Port:         r.str("PORT", "8080"),
			ReadTimeout:  r.duration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: r.duration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  r.duration("SERVER_IDLE_TIMEOUT", time.Minute),
			CORSOrigins:  r.list("CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:            r.str("DB_HOST", "localhost"),
			Port:            r.str("DB_PORT", "5432"),
			User:            r.str("DB_USER", "postgres"),
			Password:        r.str("DB_PASSWORD", ""),
			Name:            r.str("DB_NAME", "readshelf"),
			SSLMode:         r.str("DB_SSLMODE", "disable"),
			MaxIdleConns:    r.int("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    r.int("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: r.duration("DB_CONN_MAX_LIFETIME", time.Hour),
			SlowThreshold:   r.duration("DB_SLOW_THRESHOLD", time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:        r.str("JWT_SECRET", ""),
			TokenTTL:         r.duration("JWT_TTL", 7*24*time.Hour),
			PasswordResetTTL: r.duration("PASSWORD_RESET_TTL", 24*time.Hour),
		},
		Storage: StorageConfig{
			Endpoint:  strings.TrimSuffix(r.str("S3_ENDPOINT", ""), "/"),
			Region:    r.str("S3_REGION", "us-east-1"),
			Bucket:    r.str("S3_BUCKET", "book-covers"),
			AccessKey: r.str("S3_ACCESS_KEY", ""),
			SecretKey: r.str("S3_SECRET_KEY", ""),
			PublicURL: strings.TrimSuffix(r.str("S3_PUBLIC_URL", ""), "/"),
			URLExpiry: r.duration("S3_URL_EXPIRY", 15*time.Minute),
		},
		GoogleBooks: GoogleBooksConfig{
			BaseURL: r.str("GOOGLE_BOOKS_URL", "https://www.googleapis.com/books/v1"),
			APIKey:  r.str("GOOGLE_BOOKS_API_KEY", ""),
			Timeout: r.duration("GOOGLE_BOOKS_TIMEOUT", 10*time.Second),
		},
		Mail: MailConfig{
			From:          r.str("MAIL_FROM", r.str("FROM_EMAIL", "noreply@example.com")),
			ResendAPIKey:  r.str("RESEND_API_KEY", ""),
			ResendBaseURL: r.str("RESEND_BASE_URL", ""),
		},
		RateLimit: RateLimitConfig{
			AuthRPS:   r.float("AUTH_RATE_LIMIT_RPS", 1),
			AuthBurst: r.int("AUTH_RATE_LIMIT_BURST", 10),
		},
	}

	if r.err != nil {
		return nil, r.err
	}
	return cfg, nil
}

// reader collects the first parse error so FromEnv can report it once.
type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) list(key string, def []string) []string {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (r *reader) int(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return f
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return d
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}
