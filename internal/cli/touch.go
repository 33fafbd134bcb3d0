package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "touch <id>...",
		Short: "Record that memories were used",
		Args:  cobra.MinimumNArgs(1),
		Run:   runTouch,
	}

	RootCmd.AddCommand(cmd)
}

func runTouch(cmd *cobra.Command, args []string) {
	s, _, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	n := s.RecordAccess(args...)
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"touched":%d}`+"\n", n)
}
