package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List agents that have memories",
		Run:   runAgents,
	}

	RootCmd.AddCommand(cmd)
}

func runAgents(cmd *cobra.Command, args []string) {
	s, _, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	agents := s.Agents()
	if textOutput() {
		for _, a := range agents {
			fmt.Fprintln(cmd.OutOrStdout(), a)
		}
		return
	}
	printJSON(cmd, agents)
}
