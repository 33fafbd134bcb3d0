package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("AGENT_MEMORY_DB", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultBudget != DefaultBudget {
		t.Errorf("expected budget %d, got %d", DefaultBudget, cfg.DefaultBudget)
	}
	if cfg.DecayRate != DefaultDecayRate {
		t.Errorf("expected decay rate %v, got %v", DefaultDecayRate, cfg.DecayRate)
	}
	if cfg.MaintenanceCron != DefaultMaintenanceCron {
		t.Errorf("expected cron %q, got %q", DefaultMaintenanceCron, cfg.MaintenanceCron)
	}
}

func TestLoad_File(t *testing.T) {
	t.Setenv("AGENT_MEMORY_DB", "")
	path := writeConfig(t, `
db_path: /tmp/mem.db
default_budget: 1500
decay_rate: 0.1
maintenance_cron: "*/30 * * * *"
persist_timeout: 2s
log_format: json
verbose: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/mem.db" {
		t.Errorf("expected db path /tmp/mem.db, got %q", cfg.DBPath)
	}
	if cfg.DefaultBudget != 1500 || cfg.DecayRate != 0.1 {
		t.Errorf("unexpected budget/rate: %d %v", cfg.DefaultBudget, cfg.DecayRate)
	}
	if cfg.PersistTimeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %v", cfg.PersistTimeout)
	}
	if cfg.LogFormat != "json" || !cfg.Verbose {
		t.Errorf("unexpected log settings: %q %v", cfg.LogFormat, cfg.Verbose)
	}
}

func TestLoad_EnvOverridesDBPath(t *testing.T) {
	t.Setenv("AGENT_MEMORY_DB", "/var/lib/mem.db")
	path := writeConfig(t, "db_path: /tmp/other.db\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/var/lib/mem.db" {
		t.Errorf("expected env db path, got %q", cfg.DBPath)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("AGENT_MEMORY_DB", "")
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "db_path: [unterminated"},
		{"rate too high", "decay_rate: 2"},
		{"bad log format", "log_format: xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
