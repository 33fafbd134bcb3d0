package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories by text relevance",
		Long:  "Rank memories by BM25F relevance to the query. Searches every agent unless --agent is set.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("agent", "a", "", "Limit to one agent")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, _, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	results := s.Search(agent, query, limit)
	if textOutput() {
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f\t%s\t%s\n", r.Score, r.ID, r.Title)
		}
		return
	}
	printJSON(cmd, results)
}
