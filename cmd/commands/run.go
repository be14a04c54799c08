package commands

// Command to run the bot until interrupted
// Startup run first, then the poll loop fires the daily triggers
// Ctrl+C / SIGTERM stops the loop at the next wait

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pharos-bot/internal/infra/log"
	"pharos-bot/internal/schedule"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot: once now, then at every scheduled time",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	sched, err := a.scheduler(schedule.RealClock)
	if err != nil {
		log.LogError("Invalid schedule", zap.Error(err))
		return err
	}

	log.LogSuccess("Pharos bot started")
	log.LogSuccess("Schedule: " + strings.Join(sched.Times(), " and ") + " every day")
	log.LogSuccess("Press Ctrl+C to stop the bot")

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return runLoop(ctx, sched)
}

func runLoop(ctx context.Context, sched *schedule.Scheduler) error {
	if err := sched.Run(ctx); err != nil {
		log.LogError("Bot stopped with error", zap.Error(err))
		return err
	}
	log.LogSuccess("Bot stopped by user")
	return nil
}
