// Package config loads process configuration from environment variables.
// Flags in the command layer override these values.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config carries the runtime defaults an operator can set without
// touching flags: where saves live, the narrative locale, the RNG seed,
// and whether to skip the TUI.
type Config struct {
	SaveDir string `env:"STORYLOOM_SAVE_DIR" envDefault:"saves"`
	Locale  string `env:"STORYLOOM_LOCALE"`
	Seed    int64  `env:"STORYLOOM_SEED"`
	Plain   bool   `env:"STORYLOOM_PLAIN"`
}

// FromEnv loads configuration from the environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
