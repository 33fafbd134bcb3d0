package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentmem/agent-memory/internal/maintain"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Run decay and prune on a schedule",
		Long:  "Decay every agent's stale memories and prune the store, at each tick of a cron schedule, until interrupted.",
		Run:   runMaintain,
	}

	cmd.Flags().String("cron", "", "Cron expression (default from config, \"0 3 * * *\")")
	cmd.Flags().Bool("once", false, "Run a single pass and exit")

	RootCmd.AddCommand(cmd)
}

func runMaintain(cmd *cobra.Command, args []string) {
	expr, _ := cmd.Flags().GetString("cron")
	once, _ := cmd.Flags().GetBool("once")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, cfg, err := openStore(ctx)
	if err != nil {
		exitErr("open store", err)
	}
	defer closeStore(s)

	if expr == "" {
		expr = cfg.MaintenanceCron
	}
	r, err := maintain.New(s, expr, cfg.DecayRate, newObserver(cfg))
	if err != nil {
		closeStore(s)
		exitErr("maintain", err)
	}

	if once {
		printJSON(cmd, r.RunOnce(ctx))
		return
	}

	err = r.Run(ctx, func(rep maintain.Report) {
		printJSON(cmd, rep)
		s.Flush()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		closeStore(s)
		exitErr("maintain", err)
	}
}
