// Package config loads service settings from the environment and table
// presets from YAML.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	Env  string `env:"APP_ENV" envDefault:"development"`

	RedisURL  string `env:"REDIS_URL" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL  time.Duration `env:"TABLE_TOKEN_TTL" envDefault:"12h"`

	TableIdleTimeout time.Duration `env:"TABLE_IDLE_TIMEOUT" envDefault:"2h"`
	RollRateLimit    int           `env:"ROLL_RATE_LIMIT" envDefault:"120"` // per minute per table

	PresetsFile string `env:"PRESETS_FILE"`
}

const devSecret = "dev-secret-change-me"

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == devSecret) {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TABLE_TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.RollRateLimit < 1 {
		return fmt.Errorf("ROLL_RATE_LIMIT must be positive, got %d", c.RollRateLimit)
	}
	return nil
}
