package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Lower confidence of memories untouched for a week",
		Long:  "Lower the confidence of memories not accessed for seven days. Critical memories are exempt.",
		Run:   runDecay,
	}

	cmd.Flags().StringP("agent", "a", "", "Limit to one agent (default: all)")
	cmd.Flags().Float64("rate", 0, "Amount to subtract (default from config, 0.05)")

	RootCmd.AddCommand(cmd)
}

func runDecay(cmd *cobra.Command, args []string) {
	agent, _ := cmd.Flags().GetString("agent")
	rate, _ := cmd.Flags().GetFloat64("rate")

	s, cfg, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	if rate <= 0 {
		rate = cfg.DecayRate
	}
	n := s.DecayConfidence(agent, rate)
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"decayed":%d}`+"\n", n)
}
