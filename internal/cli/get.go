package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Retrieve a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	cmd.Flags().Bool("touch", false, "Record the read as an access")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	touch, _ := cmd.Flags().GetBool("touch")

	s, _, err := openStore(cmd.Context())
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	if touch {
		s.RecordAccess(args[0])
	}
	e, ok := s.Get(args[0])
	if !ok {
		exitErr("get", fmt.Errorf("memory not found: %s", args[0]))
	}
	printJSON(cmd, e)
}
