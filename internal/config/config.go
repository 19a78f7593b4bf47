package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rezkam/recur/internal/env"
)

// Config holds the application configuration.
type Config struct {
	Engine        EngineConfig
	Observability ObservabilityConfig
	CLI           CLIConfig
}

// EngineConfig bounds the recurrence engine.
type EngineConfig struct {
	MaxIterations  int `env:"RECUR_MAX_ITERATIONS" default:"1000"`
	MaxOccurrences int `env:"RECUR_MAX_OCCURRENCES" default:"100"`
}

// Validate rejects non-positive limits.
func (c EngineConfig) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("RECUR_MAX_ITERATIONS must be positive, got %d", c.MaxIterations)
	}
	if c.MaxOccurrences <= 0 {
		return fmt.Errorf("RECUR_MAX_OCCURRENCES must be positive, got %d", c.MaxOccurrences)
	}
	return nil
}

// Load reads a .env file from the working directory when present, then parses
// environment variables into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFromEnv()
}

// LoadFromEnv parses environment variables only.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
