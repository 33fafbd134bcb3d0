// Package cli implements the agent-memory CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/agentmem/agent-memory/internal/config"
	"github.com/agentmem/agent-memory/internal/observe"
	"github.com/agentmem/agent-memory/internal/store"
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	formatFlag string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-memory",
	Short: "Persistent memory for AI agents",
	Long:  "Per-agent memory with ranked recall and prompt-ready context. SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $AGENT_MEMORY_DB or ~/.agent-memory/memory.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $AGENT_MEMORY_CONFIG or ~/.agent-memory/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log info-level events to stderr")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg
}

func newObserver(cfg *config.Config) *observe.Observer {
	if cfg.LogFormat == "json" {
		return observe.NewJSON(os.Stderr, cfg.Verbose)
	}
	return observe.New(os.Stderr, cfg.Verbose)
}

// openStore loads every memory from the configured database. Callers must
// closeStore before exiting so queued writes reach disk.
func openStore(ctx context.Context) (*store.MemoryStore, *config.Config, error) {
	cfg := loadConfig()
	obs := newObserver(cfg)
	db, err := store.NewSQLiteStore(cfg.DBPath, obs)
	if err != nil {
		return nil, nil, err
	}
	s := store.Open(ctx, db,
		store.WithObserver(obs),
		store.WithPersistTimeout(cfg.PersistTimeout),
	)
	return s, cfg, nil
}

func closeStore(s *store.MemoryStore) {
	if err := s.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: close store: %v\n", err)
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(cmd *cobra.Command, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

func textOutput() bool {
	return formatFlag == "text"
}

// readContent takes content from positional args, falling back to piped
// stdin.
func readContent(args []string) string {
	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " "))
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return strings.TrimSpace(string(b))
	}
	return ""
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parseMeta(s string) map[string]string {
	if s == "" {
		return nil
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(s), &meta); err != nil {
		exitErr("parse --meta", fmt.Errorf("expected a JSON object of strings: %w", err))
	}
	return meta
}
