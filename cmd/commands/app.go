package commands

// Shared startup for all commands
// Order matters: config and wallet errors abort before anything is scheduled or sent

import (
	"context"
	"fmt"

	"pharos-bot/internal/clients_api/pharos"
	"pharos-bot/internal/infra/config"
	"pharos-bot/internal/infra/log"
	"pharos-bot/internal/notify"
	"pharos-bot/internal/schedule"
	"pharos-bot/internal/tasks"
	"pharos-bot/internal/wallet"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dailyTasksAction = "daily_tasks"

type app struct {
	cfg    *config.Config
	wallet *wallet.Wallet
	runner *tasks.Runner
}

// loadWallet config, logger and wallet; shared by every command
func loadWallet(cmd *cobra.Command) (*config.Config, *wallet.Wallet, error) {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := log.Init(cfg.App.LogDir); err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}

	w, err := wallet.FromHex(cfg.Wallet.PrivateKey)
	if err != nil {
		log.LogError("Failed to initialize wallet", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to initialize wallet: %w", err)
	}
	log.LogSuccess("Bot initialized for wallet: " + w.Address())
	return cfg, w, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, w, err := loadWallet(cmd)
	if err != nil {
		return nil, err
	}

	client := pharos.NewClient(pharos.Options{
		BaseURL:    cfg.Pharos.BaseURL,
		Timeout:    cfg.RequestTimeout(),
		MaxRetries: cfg.Pharos.MaxRetries,
	})

	var notifier tasks.Notifier
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.RequestTimeout())
		if err != nil {
			// summaries are optional, the bot keeps going without them
			log.LogWarn("Telegram notifier disabled", zap.Error(err))
		} else {
			log.LogSuccess("Telegram notifier authorized", zap.String("username", tg.Username()))
			notifier = tg
		}
	}

	runner := tasks.NewRunner(client, tasks.Config{
		Address:    w.Address(),
		SwapAmount: cfg.Pharos.SwapAmount,
		Pause:      cfg.Pause(),
		Notifier:   notifier,
	})

	return &app{cfg: cfg, wallet: w, runner: runner}, nil
}

func (a *app) scheduler(clock schedule.Clock) (*schedule.Scheduler, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	return schedule.New(schedule.Config{
		Triggers:      schedule.TriggersAt(a.cfg.Schedule.Times, dailyTasksAction),
		PollInterval:  a.cfg.PollInterval(),
		Location:      loc,
		StartupAction: dailyTasksAction,
		Clock:         clock,
	}, map[string]schedule.Job{
		dailyTasksAction: func(ctx context.Context) { a.runner.Run(ctx) },
	})
}
