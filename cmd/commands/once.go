package commands

// Command to run the daily tasks a single time and exit
// Handy for cron-driven setups and for checking the backend by hand

import (
	"os"
	"os/signal"
	"syscall"

	"pharos-bot/internal/infra/log"

	"github.com/spf13/cobra"
)

func newOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run check-in and swap once, then exit",
		RunE:  runOnce,
	}
}

func runOnce(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.runner.Run(ctx)
	return nil
}
