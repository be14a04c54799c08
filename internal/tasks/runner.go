package tasks

// Daily task sequence: check-in, pause, swap
// Both actions always run; failures only show up in the Summary and the logs

import (
	"context"
	"time"

	"pharos-bot/internal/clients_api/pharos"
	"pharos-bot/internal/infra/log"

	"go.uber.org/zap"
)

const DefaultPause = 5 * time.Second

// Actions is the part of pharos.Client the runner needs
type Actions interface {
	DailyCheckIn(ctx context.Context, address string, now time.Time) pharos.Result
	AutoSwap(ctx context.Context, address, amount string) pharos.Result
}

// Notifier receives the summary of every run
type Notifier interface {
	Notify(ctx context.Context, s Summary) error
}

type Summary struct {
	Address    string
	StartedAt  time.Time
	FinishedAt time.Time
	CheckIn    pharos.Result
	Swap       pharos.Result
}

func (s Summary) Succeeded() bool {
	return s.CheckIn.Succeeded && s.Swap.Succeeded
}

type Config struct {
	Address    string
	SwapAmount string
	Pause      time.Duration
	Notifier   Notifier // optional
	Now        func() time.Time
}

type Runner struct {
	actions Actions
	cfg     Config
}

func NewRunner(actions Actions, cfg Config) *Runner {
	if cfg.SwapAmount == "" {
		cfg.SwapAmount = pharos.DefaultSwapAmount
	}
	if cfg.Pause < 0 {
		cfg.Pause = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{actions: actions, cfg: cfg}
}

// Run executes one full daily sequence. It never fails; a cancelled ctx during the pause skips the swap.
func (r *Runner) Run(ctx context.Context) Summary {
	s := Summary{Address: r.cfg.Address, StartedAt: r.cfg.Now()}
	log.LogSuccess("Starting daily tasks - "+s.StartedAt.Format("2006-01-02 15:04:05"),
		zap.String("address", r.cfg.Address))

	s.CheckIn = r.actions.DailyCheckIn(ctx, r.cfg.Address, s.StartedAt)

	if err := sleep(ctx, r.cfg.Pause); err != nil {
		log.LogWarn("Daily tasks interrupted before swap", zap.Error(err))
		s.Swap = pharos.Result{Action: pharos.ActionSwap, Message: "cancelled"}
	} else {
		s.Swap = r.actions.AutoSwap(ctx, r.cfg.Address, r.cfg.SwapAmount)
	}

	s.FinishedAt = r.cfg.Now()
	log.LogSuccess("All daily tasks completed",
		zap.Bool("checkin", s.CheckIn.Succeeded),
		zap.Bool("swap", s.Swap.Succeeded))

	if r.cfg.Notifier != nil {
		if err := r.cfg.Notifier.Notify(ctx, s); err != nil {
			log.LogWarn("Failed to send run summary", zap.Error(err))
		}
	}
	return s
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
