package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the DocBox API.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	MinIO    MinIOConfig
	Auth     AuthConfig
	Mail     MailConfig
	Metrics  MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// AuthConfig groups OTP and session settings.
type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	CodeTTL       time.Duration
	CookieName    string
	BcryptCost    int
}

// MailConfig holds outbound email delivery settings.
type MailConfig struct {
	ResendAPIKey string
	FromAddress  string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying
// defaults, then validates that every required field is present. A missing
// required variable is a fatal startup condition, not something handlers
// discover later.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("DOCBOX_API_HOST", "0.0.0.0"),
			Port:         getInt("DOCBOX_API_PORT", 8080),
			ReadTimeout:  getDuration("DOCBOX_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("DOCBOX_API_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("DOCBOX_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "docbox_app"),
			Password: getString("POSTGRES_PASSWORD", ""),
			Database: getString("POSTGRES_DB", "docbox"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
		},
		MinIO: MinIOConfig{
			Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("MINIO_ROOT_USER", ""),
			SecretAccessKey: getString("MINIO_ROOT_PASSWORD", ""),
			Bucket:          getString("MINIO_BUCKET", "docbox"),
			UseSSL:          getBool("MINIO_USE_SSL", false),
			Region:          getString("MINIO_REGION", ""),
		},
		Auth:    loadAuthConfig(),
		Mail:    loadMailConfig(),
		Metrics: MetricsConfig{PrometheusPath: getString("DOCBOX_METRICS_PATH", "/metrics")},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every required field that is empty.
func (c Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"POSTGRES_PASSWORD", c.Postgres.Password},
		{"MINIO_ROOT_USER", c.MinIO.AccessKeyID},
		{"MINIO_ROOT_PASSWORD", c.MinIO.SecretAccessKey},
		{"MINIO_BUCKET", c.MinIO.Bucket},
		{"DOCBOX_SESSION_SECRET", c.Auth.SessionSecret},
		{"RESEND_API_KEY", c.Mail.ResendAPIKey},
		{"DOCBOX_MAIL_FROM", c.Mail.FromAddress},
	}

	var missing []string
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func loadAuthConfig() AuthConfig {
	cost := getInt("DOCBOX_AUTH_BCRYPT_COST", 10)
	if cost < 4 || cost > 31 {
		cost = 10
	}

	return AuthConfig{
		SessionSecret: getString("DOCBOX_SESSION_SECRET", ""),
		SessionTTL:    getDuration("DOCBOX_SESSION_TTL", 720*time.Hour),
		CodeTTL:       getDuration("DOCBOX_OTP_TTL", 10*time.Minute),
		CookieName:    getString("DOCBOX_SESSION_COOKIE", "docbox-session"),
		BcryptCost:    cost,
	}
}

func loadMailConfig() MailConfig {
	return MailConfig{
		ResendAPIKey: getString("RESEND_API_KEY", ""),
		FromAddress:  getString("DOCBOX_MAIL_FROM", ""),
	}
}
