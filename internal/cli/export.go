package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories as JSON",
		Long:  "Export memories as a JSON array. Filter by agent with -a.",
		Run:   runExport,
	}

	cmd.Flags().StringP("agent", "a", "", "Filter by agent")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")

	s, _, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	printJSON(cmd, s.ExportAll(agent))
}
