// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"contact-intake/pkg/shared"
)

type NATSOptions struct {
	Enabled bool   `env:"NATS_ENABLED" envDefault:"false"`
	Port    int    `env:"NATS_PORT" envDefault:"4222"`
	DataDir string `env:"NATS_DATA_DIR" envDefault:"./data/nats"`
}

type Config struct {
	DatabaseURL  string `env:"DATABASE_URL" envDefault:"./data/intake.db"`
	Environment  string `env:"APP_ENV" envDefault:"development"`
	Port         string `env:"PORT" envDefault:"8080"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MetricsPath  string `env:"METRICS_PATH" envDefault:"/metrics"`

	// DedupPersonOrgLinks reuses an existing person-organization link
	// instead of inserting another one.
	DedupPersonOrgLinks bool `env:"DEDUP_PERSON_ORG_LINKS" envDefault:"false"`

	NATS NATSOptions
}

// LoadEnv loads the given .env files that exist, returning how many were
// loaded.
func LoadEnv(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load parses the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment != shared.EnvDevelopment && c.Environment != shared.EnvProduction {
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", shared.EnvDevelopment, shared.EnvProduction, c.Environment)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if err := validateMetricsPath(c.MetricsPath); err != nil {
		return err
	}
	return nil
}

// reservedPaths are registered by the API and cannot host metrics.
var reservedPaths = []string{"/", "/health", "/api/v1/contacts"}

func validateMetricsPath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("METRICS_PATH must start with /, got %q", path)
	}
	if slices.Contains(reservedPaths, path) {
		return fmt.Errorf("METRICS_PATH %q collides with an API route", path)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == shared.EnvProduction
}

// Logger builds the process logger: JSON in production, text otherwise.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
