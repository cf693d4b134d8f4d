package internal

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Alerts        AlertsConfig        `mapstructure:"alerts"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret" validate:"required,min=32"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret" validate:"required,min=32"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" validate:"required,min=1m,max=1h"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" validate:"required,min=1h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
	EncryptionKey        string        `mapstructure:"encryption_key" validate:"required,len=64"`
	VerifyPasscode       string        `mapstructure:"verify_passcode"`
}

type StorageConfig struct {
	Dir            string `mapstructure:"dir"`
	DefaultBucket  string `mapstructure:"default_bucket"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type AlertsConfig struct {
	WebhookURL     string        `mapstructure:"webhook_url"`
	WebhookTimeout time.Duration `mapstructure:"webhook_timeout"`
	ResendAPIKey   string        `mapstructure:"resend_api_key"`
	EmailFrom      string        `mapstructure:"email_from"`
	EmailTo        string        `mapstructure:"email_to"`
}

type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- ENVIRONMENT RESOLUTION -----------------

// envPrefixes is the precedence order for environment lookups. The two
// legacy prefixes survive from the pre-migration deployment; the native
// prefix always wins when both are set.
var envPrefixes = []string{"COMMANDOS_", "VITE_", "NEXT_PUBLIC_"}

func resolveEnv(key, defaultVal string) string {
	for _, prefix := range envPrefixes {
		if value := os.Getenv(prefix + key); value != "" {
			return value
		}
	}
	return defaultVal
}

func resolveEnvAsInt(key string, defaultVal int) int {
	if value := resolveEnv(key, ""); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func resolveEnvAsInt64(key string, defaultVal int64) int64 {
	if value := resolveEnv(key, ""); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func resolveEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := resolveEnv(key, ""); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds a full Config from environment variables. Used
// for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              resolveEnvAsInt("PORT", 8080),
			BaseURL:           resolveEnv("BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    resolveEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: resolveEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       resolveEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       resolveEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      resolveEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    resolveEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    resolveEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: resolveEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: resolveEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          resolveEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			AccessTokenSecret:    resolveEnv("ACCESS_TOKEN_SECRET", ""),
			RefreshTokenSecret:   resolveEnv("REFRESH_TOKEN_SECRET", ""),
			AccessTokenDuration:  resolveEnvAsDuration("ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: resolveEnvAsDuration("REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			BCryptCost:           resolveEnvAsInt("BCRYPT_COST", 12),
			EncryptionKey:        resolveEnv("ENCRYPTION_KEY", ""),
			VerifyPasscode:       resolveEnv("VERIFY_PASSCODE", ""),
		},
		Storage: StorageConfig{
			Dir:            resolveEnv("STORAGE_DIR", "./data/uploads"),
			DefaultBucket:  resolveEnv("STORAGE_BUCKET", "uploads"),
			PublicBaseURL:  resolveEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/files"),
			MaxUploadBytes: resolveEnvAsInt64("STORAGE_MAX_UPLOAD_BYTES", 10<<20),
		},
		Alerts: AlertsConfig{
			WebhookURL:     resolveEnv("ALERT_WEBHOOK_URL", ""),
			WebhookTimeout: resolveEnvAsDuration("ALERT_WEBHOOK_TIMEOUT", 5*time.Second),
			ResendAPIKey:   resolveEnv("RESEND_API_KEY", ""),
			EmailFrom:      resolveEnv("ALERT_EMAIL_FROM", ""),
			EmailTo:        resolveEnv("ALERT_EMAIL_TO", ""),
		},
		RateLimit: RateLimitConfig{
			MaxRequests: resolveEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 10),
			Window:      resolveEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  resolveEnv("LOG_LEVEL", "info"),
				Format: resolveEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access token secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh token secret must be at least 32 characters")
	}
	if _, err := c.GetEncryptionKey(); err != nil {
		return fmt.Errorf("invalid encryption key: %w", err)
	}
	return nil
}

// GetEncryptionKey decodes the configured 64-hex-char key into the 32-byte
// AES-256 key used by the secure store.
func (c *SecurityConfig) GetEncryptionKey() ([]byte, error) {
	if len(c.EncryptionKey) != 64 {
		return nil, errors.New("encryption key must be 64 hex characters")
	}
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	return key, nil
}

func (c *StorageConfig) Validate() error {
	if c.Dir == "" {
		return errors.New("storage dir is required")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	return nil
}
