package cli

import (
	"fmt"
	"strings"

	"github.com/agentmem/agent-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [query]",
		Short: "Assemble an agent's memories for a prompt",
		Long:  "Rank an agent's memories, optionally boosted by relevance to a query, and render them as markdown within a token budget.",
		Run:   runContext,
	}

	cmd.Flags().StringP("agent", "a", "", "Agent ID (required)")
	cmd.Flags().IntP("budget", "b", 0, "Max tokens in output (default from config, 4000)")
	cmd.Flags().Bool("track", false, "Record an access for every included memory")

	cmd.MarkFlagRequired("agent")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	budget, _ := cmd.Flags().GetInt("budget")
	track, _ := cmd.Flags().GetBool("track")
	query := strings.Join(args, " ")

	s, cfg, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	if budget <= 0 {
		budget = cfg.DefaultBudget
	}
	result := s.GenerateContext(store.ContextParams{
		AgentID:     agent,
		Query:       query,
		MaxTokens:   budget,
		TrackAccess: track,
	})

	if textOutput() {
		fmt.Fprintln(cmd.OutOrStdout(), result.Text)
		return
	}
	printJSON(cmd, result)
}
