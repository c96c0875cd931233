package config

import (
	"fmt"
	"strconv"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings. Values come from environment
// variables; --host and --port flags on the command line take
// precedence over HOST and PORT.
type Config struct {
	Host      string `env:"HOST" envDefault:"localhost"`
	Port      string `env:"PORT" envDefault:"8765"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// WebSocket connection limits.
	MaxObservers      int64   `env:"MAX_OBSERVERS" envDefault:"256"`
	MaxObserversPerIP int     `env:"MAX_OBSERVERS_PER_IP" envDefault:"16"`
	ConnectionRate    float64 `env:"CONNECTION_RATE" envDefault:"10"`
	ConnectionBurst   int     `env:"CONNECTION_BURST" envDefault:"10"`

	// Procedural animation channels active at startup.
	IdleSwayEnabled bool `env:"IDLE_SWAY_ENABLED" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config after flag overrides have been applied.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", c.Port)
	}
	if c.Host == "" {
		return fmt.Errorf("HOST must not be empty")
	}
	if c.MaxObservers < 1 {
		return fmt.Errorf("MAX_OBSERVERS must be at least 1")
	}
	if c.MaxObserversPerIP < 1 {
		return fmt.Errorf("MAX_OBSERVERS_PER_IP must be at least 1")
	}
	if c.ConnectionRate <= 0 {
		return fmt.Errorf("CONNECTION_RATE must be positive")
	}
	if c.ConnectionBurst < 1 {
		return fmt.Errorf("CONNECTION_BURST must be at least 1")
	}
	return nil
}
