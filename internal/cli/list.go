package cli

import (
	"fmt"

	"github.com/agentmem/agent-memory/internal/model"
	"github.com/agentmem/agent-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an agent's memories",
		Long:  "List an agent's memories by importance, or ranked by relevance when --query is given.",
		Run:   runList,
	}

	cmd.Flags().StringP("agent", "a", "", "Agent ID (required)")
	cmd.Flags().StringP("category", "c", "", "Filter by category")
	cmd.Flags().StringP("importance", "i", "", "Filter by importance")
	cmd.Flags().StringP("source", "s", "", "Filter by source")
	cmd.Flags().StringP("query", "q", "", "Rank by relevance to this text")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("ids-only", false, "Only output ids and titles")

	cmd.MarkFlagRequired("agent")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	categoryStr, _ := cmd.Flags().GetString("category")
	importanceStr, _ := cmd.Flags().GetString("importance")
	sourceStr, _ := cmd.Flags().GetString("source")
	query, _ := cmd.Flags().GetString("query")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	p := store.QueryParams{AgentID: agent, Query: query, Limit: limit}
	var err error
	if categoryStr != "" {
		if p.Category, err = model.ParseCategory(categoryStr); err != nil {
			exitErr("list", err)
		}
	}
	if importanceStr != "" {
		if p.Importance, err = model.ParseImportance(importanceStr); err != nil {
			exitErr("list", err)
		}
	}
	if sourceStr != "" {
		if p.Source, err = model.ParseSource(sourceStr); err != nil {
			exitErr("list", err)
		}
	}

	s, _, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	results := s.Query(p)
	if idsOnly || textOutput() {
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", r.ID, r.Importance, r.Title)
		}
		return
	}
	printJSON(cmd, results)
}
