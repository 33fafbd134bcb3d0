package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory statistics",
		Run:   runStats,
	}

	cmd.Flags().StringP("agent", "a", "", "Limit to one agent")

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")

	s, cfg, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	st := s.Stats(agent)
	st.DBPath = cfg.DBPath
	if info, err := os.Stat(cfg.DBPath); err == nil {
		st.DBSizeBytes = info.Size()
	}
	printJSON(cmd, st)
}
