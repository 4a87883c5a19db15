package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for insights-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// LLM provider configuration
	AI AIConfig `yaml:"ai"`

	// Insights pipeline configuration
	Insights InsightsConfig `yaml:"insights"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host            string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User            string `yaml:"user" env:"PGUSER" env-default:"insights"`
	Password        string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database        string `yaml:"database" env:"PGDATABASE" env-default:"insights_engine"`
	SSLMode         string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections  int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	MigrationsPath  string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
	ConnLifetimeMin int    `yaml:"conn_lifetime_minutes" env:"PGCONN_LIFETIME_MINUTES" env-default:"60"`
	ConnIdleMin     int    `yaml:"conn_idle_minutes" env:"PGCONN_IDLE_MINUTES" env-default:"30"`
}

// AIConfig holds LLM provider configuration.
// The fallback model is tried once when the primary model is unavailable
// or the key lacks access to it.
type AIConfig struct {
	Provider      string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	Endpoint      string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:""`
	Model         string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	FallbackModel string `yaml:"fallback_model" env:"AI_FALLBACK_MODEL" env-default:""`
	APIKey        string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
}

// InsightsConfig holds pipeline limits.
type InsightsConfig struct {
	// MaxRows caps the number of rows any generated query may return.
	MaxRows int `yaml:"max_rows" env:"INSIGHTS_MAX_ROWS" env-default:"50"`
	// StatementTimeoutMS bounds query execution time, clamped to [100, 30000].
	StatementTimeoutMS int `yaml:"statement_timeout_ms" env:"INSIGHTS_STATEMENT_TIMEOUT_MS" env-default:"1500"`
	// HistoryEnabled controls whether answered questions are recorded for audit.
	HistoryEnabled bool `yaml:"history_enabled" env:"INSIGHTS_HISTORY_ENABLED" env-default:"true"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Secrets (PGPASSWORD, AI_API_KEY) must come from environment variables.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		// Fall back to environment-only configuration when no file is present.
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Insights.MaxRows <= 0 {
		return fmt.Errorf("insights.max_rows must be positive, got %d", c.Insights.MaxRows)
	}
	if c.Insights.StatementTimeoutMS <= 0 {
		return fmt.Errorf("insights.statement_timeout_ms must be positive, got %d", c.Insights.StatementTimeoutMS)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// ConnLifetime returns the maximum connection lifetime as a duration.
func (c *DatabaseConfig) ConnLifetime() time.Duration {
	return time.Duration(c.ConnLifetimeMin) * time.Minute
}

// ConnIdleTime returns the maximum idle connection time as a duration.
func (c *DatabaseConfig) ConnIdleTime() time.Duration {
	return time.Duration(c.ConnIdleMin) * time.Minute
}

// StatementTimeout returns the configured statement timeout as a duration.
func (c *InsightsConfig) StatementTimeout() time.Duration {
	return time.Duration(c.StatementTimeoutMS) * time.Millisecond
}
