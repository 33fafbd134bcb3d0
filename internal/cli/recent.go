package cli

import (
	"github.com/agentmem/agent-memory/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently created memories",
		Run:   runRecent,
	}

	cmd.Flags().StringP("agent", "a", "", "Limit to one agent")
	cmd.Flags().StringP("window", "w", "24h", "How far back to look, e.g. 7d, 24h, 30m")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runRecent(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	windowStr, _ := cmd.Flags().GetString("window")
	limit, _ := cmd.Flags().GetInt("limit")

	window, err := store.ParseTTL(windowStr)
	if err != nil {
		exitErr("invalid window", err)
	}

	s, _, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	printJSON(cmd, s.Recent(agent, window, limit))
}
