package pharos

import (
	"errors"
	"fmt"
	"time"

	"pharos-bot/internal/infra/retry"
)

const (
	ActionCheckIn = "daily_checkin"
	ActionSwap    = "auto_swap"
)

// Result is the outcome of one best-effort backend call.
// Actions never return errors; failures are reported here instead.
type Result struct {
	Action     string
	Succeeded  bool
	StatusCode int // 0 when no response was received
	Message    string
	Duration   time.Duration
}

func newResult(action string, start time.Time, resp *response, err error) Result {
	r := Result{
		Action:    action,
		Succeeded: err == nil && resp != nil && resp.StatusCode == 200,
		Duration:  time.Since(start),
	}
	if resp != nil {
		r.StatusCode = resp.StatusCode
	}

	var he *retry.HTTPError
	switch {
	case r.Succeeded:
	case errors.As(err, &he):
		r.StatusCode = he.StatusCode
		r.Message = fmt.Sprintf("status %d", he.StatusCode)
	case err != nil:
		r.Message = err.Error()
	default:
		r.Message = "no response"
	}
	return r
}
