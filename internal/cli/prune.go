package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired and low-confidence memories",
		Run:   runPrune,
	}

	cmd.Flags().StringP("agent", "a", "", "Limit to one agent (default: all)")

	RootCmd.AddCommand(cmd)
}

func runPrune(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")

	s, _, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	n := s.PruneExpired(agent)
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"pruned":%d}`+"\n", n)
}
