// Package config loads process configuration from the environment and an
// optional env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the resolved configuration of one process.
type Config struct {
	Env     string
	AppName string
	Version string

	HTTPPort string
	LogLevel string

	StorageDriver      string
	DatabaseURL        string
	DBMaxConns         int32
	DBStatementTimeout time.Duration

	JWTSecret   string
	AuthEnabled bool

	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration

	CurrencySymbol string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxRetention    time.Duration
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "smartsewing")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_STATEMENT_TIMEOUT", "30s")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("IDEMPOTENCY_ENABLED", true)
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("CURRENCY_SYMBOL", "৳")
	v.SetDefault("OUTBOX_POLL_INTERVAL", "2s")
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)
	v.SetDefault("OUTBOX_RETENTION", "168h")
}

// Load reads configuration from the environment. When file is non-empty and
// exists it is read first; environment variables always win.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", file, err)
			}
		}
	}

	cfg := &Config{
		Env:                v.GetString("APP_ENV"),
		AppName:            v.GetString("APP_NAME"),
		Version:            v.GetString("APP_VERSION"),
		HTTPPort:           v.GetString("HTTP_PORT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		StorageDriver:      strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		DBMaxConns:         v.GetInt32("DB_MAX_CONNS"),
		DBStatementTimeout: v.GetDuration("DB_STATEMENT_TIMEOUT"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		AuthEnabled:        v.GetBool("AUTH_ENABLED"),
		IdempotencyEnabled: v.GetBool("IDEMPOTENCY_ENABLED"),
		IdempotencyTTL:     v.GetDuration("IDEMPOTENCY_TTL"),
		CurrencySymbol:     v.GetString("CURRENCY_SYMBOL"),
		OutboxPollInterval: v.GetDuration("OUTBOX_POLL_INTERVAL"),
		OutboxBatchSize:    v.GetInt("OUTBOX_BATCH_SIZE"),
		OutboxRetention:    v.GetDuration("OUTBOX_RETENTION"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combinations a process cannot start with.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.AuthEnabled && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when AUTH_ENABLED is set")
	}
	if c.DBMaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be positive")
	}
	if c.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("OUTBOX_BATCH_SIZE must be positive")
	}
	return nil
}
