package schedule

// Poll-driven scheduler for time-of-day triggers
// Every poll runs the triggers whose next run has passed, then waits one interval
// The loop has no exit of its own; it stops when ctx is cancelled

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pharos-bot/internal/infra/log"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultPollInterval = 60 * time.Second

// Job is a named action a trigger can fire
type Job func(ctx context.Context)

type Config struct {
	Triggers     []Trigger
	PollInterval time.Duration
	Location     *time.Location
	// StartupAction runs once before the first poll; empty disables it
	StartupAction string
	Clock         Clock
}

type entry struct {
	trigger Trigger
	sched   cron.Schedule
	next    time.Time
}

type Scheduler struct {
	clock    Clock
	interval time.Duration
	startup  string
	jobs     map[string]Job
	entries  []*entry
}

// New validates every trigger against jobs; bad times and unknown actions are errors
func New(cfg Config, jobs map[string]Job) (*Scheduler, error) {
	if len(cfg.Triggers) == 0 {
		return nil, fmt.Errorf("no triggers configured")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	clock := cfg.Clock
	if clock == nil {
		clock = RealClock
	}
	if cfg.StartupAction != "" {
		if _, ok := jobs[cfg.StartupAction]; !ok {
			return nil, fmt.Errorf("unknown startup action %q", cfg.StartupAction)
		}
	}

	entries := make([]*entry, 0, len(cfg.Triggers))
	for _, tr := range cfg.Triggers {
		if _, ok := jobs[tr.Action]; !ok {
			return nil, fmt.Errorf("trigger %s: unknown action %q", tr.At, tr.Action)
		}
		sched, err := dailySchedule(tr.At, loc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &entry{trigger: tr, sched: sched})
	}

	return &Scheduler{
		clock:    clock,
		interval: interval,
		startup:  cfg.StartupAction,
		jobs:     jobs,
		entries:  entries,
	}, nil
}

// Run blocks until ctx is cancelled. A panicking job ends the loop with an error.
func (s *Scheduler) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduler stopped: %v", r)
		}
	}()

	now := s.clock.Now()
	for _, e := range s.entries {
		e.next = e.sched.Next(now)
		log.LogInfo("Trigger registered",
			zap.String("at", e.trigger.At),
			zap.String("action", e.trigger.Action),
			zap.Time("next", e.next))
	}

	if s.startup != "" && ctx.Err() == nil {
		s.jobs[s.startup](ctx)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		s.RunPending(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(s.interval):
		}
	}
}

// RunPending fires every trigger that is due and returns how many ran
func (s *Scheduler) RunPending(ctx context.Context) int {
	now := s.clock.Now()

	due := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.next.IsZero() && !now.Before(e.next) {
			due = append(due, e)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].next.Before(due[j].next) })

	ran := 0
	for _, e := range due {
		if ctx.Err() != nil {
			break
		}
		log.LogInfo("Trigger fired", zap.String("at", e.trigger.At), zap.String("action", e.trigger.Action))
		s.jobs[e.trigger.Action](ctx)
		ran++
		e.next = e.sched.Next(s.clock.Now())
	}
	return ran
}

// NextRun earliest upcoming trigger; zero before Run
func (s *Scheduler) NextRun() time.Time {
	var next time.Time
	for _, e := range s.entries {
		if e.next.IsZero() {
			continue
		}
		if next.IsZero() || e.next.Before(next) {
			next = e.next
		}
	}
	return next
}

// Times configured trigger times, for banners
func (s *Scheduler) Times() []string {
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.trigger.At)
	}
	return out
}
