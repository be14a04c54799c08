package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultTimes morning and evening run
var DefaultTimes = []string{"09:00", "21:00"}

// Trigger binds a time of day to a named action
type Trigger struct {
	At     string // "HH:MM"
	Action string
}

// TriggersAt binds every time in times to the same action
func TriggersAt(times []string, action string) []Trigger {
	out := make([]Trigger, 0, len(times))
	for _, at := range times {
		out = append(out, Trigger{At: strings.TrimSpace(at), Action: action})
	}
	return out
}

// ParseTimeOfDay validates "HH:MM" (24h) and returns hour and minute
func ParseTimeOfDay(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// dailySchedule compiles "HH:MM" into a cron schedule firing once a day in loc
func dailySchedule(at string, loc *time.Location) (cron.Schedule, error) {
	hour, minute, err := ParseTimeOfDay(at)
	if err != nil {
		return nil, err
	}
	sched, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", at, err)
	}
	if spec, ok := sched.(*cron.SpecSchedule); ok && loc != nil {
		spec.Location = loc
	}
	return sched, nil
}
