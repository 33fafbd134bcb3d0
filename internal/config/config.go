// Package config loads agent-memory settings from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBudget          = 4000
	DefaultDecayRate       = 0.05
	DefaultMaintenanceCron = "0 3 * * *"
	DefaultPersistTimeout  = 5 * time.Second
)

// Config holds runtime settings.
type Config struct {
	DBPath          string        `yaml:"db_path"`
	DefaultBudget   int           `yaml:"default_budget"`
	DecayRate       float64       `yaml:"decay_rate"`
	MaintenanceCron string        `yaml:"maintenance_cron"`
	PersistTimeout  time.Duration `yaml:"persist_timeout"`
	LogFormat       string        `yaml:"log_format"` // console | json
	Verbose         bool          `yaml:"verbose"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DBPath:          filepath.Join(homeDir(), ".agent-memory", "memory.db"),
		DefaultBudget:   DefaultBudget,
		DecayRate:       DefaultDecayRate,
		MaintenanceCron: DefaultMaintenanceCron,
		PersistTimeout:  DefaultPersistTimeout,
		LogFormat:       "console",
	}
}

// DefaultPath is where Load looks when no path is given:
// $AGENT_MEMORY_CONFIG or ~/.agent-memory/config.yaml.
func DefaultPath() string {
	if env := os.Getenv("AGENT_MEMORY_CONFIG"); env != "" {
		return env
	}
	return filepath.Join(homeDir(), ".agent-memory", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
// $AGENT_MEMORY_DB overrides db_path.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if env := os.Getenv("AGENT_MEMORY_DB"); env != "" {
		cfg.DBPath = env
	}
	cfg.normalize()
	return cfg, cfg.Validate()
}

func (c *Config) normalize() {
	if c.DefaultBudget <= 0 {
		c.DefaultBudget = DefaultBudget
	}
	if c.DecayRate <= 0 {
		c.DecayRate = DefaultDecayRate
	}
	if c.MaintenanceCron == "" {
		c.MaintenanceCron = DefaultMaintenanceCron
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = DefaultPersistTimeout
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: db_path is empty")
	}
	if c.DecayRate > 1 {
		return fmt.Errorf("config: decay_rate %v out of range (0, 1]", c.DecayRate)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("config: unknown log_format %q (valid: console, json)", c.LogFormat)
	}
	return nil
}

func homeDir() string {
	home, _ := os.UserHomeDir()
	return home
}
