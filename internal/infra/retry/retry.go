package retry

// Retry policy for best-effort backend actions
// An attempt is retried only when it failed with an HTTPError whose status is in RetryOn
// Transport errors are returned as is, the caller decides what a dead backend means
// MaxRetries 0 means a single attempt

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryOn rate limiting and gateway-type server errors
var DefaultRetryOn = []int{429, 500, 502, 503, 504}

type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// RetryOn statuses worth another attempt; nil means DefaultRetryOn
	RetryOn []int
	// OnRetry is called before each wait, attempt counts from 1
	OnRetry func(attempt int, err error, wait time.Duration)
}

// HTTPError is an answered request with a non-success status
type HTTPError struct {
	StatusCode int
	Body       []byte
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error: <nil>"
	}
	if len(e.Body) == 0 {
		return fmt.Sprintf("http error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("http error (%d): %s", e.StatusCode, string(e.Body))
}

// IsAnswered reports whether err carries a server reply rather than a transport failure
func IsAnswered(err error) bool {
	var he *HTTPError
	return errors.As(err, &he)
}

func (o Options) retryOn() []int {
	if o.RetryOn == nil {
		return DefaultRetryOn
	}
	return o.RetryOn
}

// Retryable reports whether err is an HTTPError with one of the RetryOn statuses
func (o Options) Retryable(err error) bool {
	var he *HTTPError
	if !errors.As(err, &he) {
		return false
	}
	return slices.Contains(o.retryOn(), he.StatusCode)
}

// ParseRetryAfter accepts delta-seconds or an HTTP date
func ParseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	for _, layout := range []string{time.RFC1123, time.RFC1123Z, time.RFC850, time.ANSIC} {
		if t, err := time.Parse(layout, v); err == nil {
			if d := time.Until(t); d > 0 {
				return d
			}
			return 0
		}
	}
	return 0
}

func clamp(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}

// FullJitter returns a random delay in [0, min(base<<attempt, max)]
func FullJitter(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if base <= 0 {
		return 0
	}
	ceiling := clamp(base<<attempt, max)
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(ceiling) + 1))
}

// wait before the next attempt; a 429 with Retry-After overrides the jitter
func (o Options) wait(attempt int, err error) time.Duration {
	var he *HTTPError
	if errors.As(err, &he) && he.StatusCode == 429 && he.RetryAfter > 0 {
		return clamp(he.RetryAfter, o.MaxDelay)
	}
	return FullJitter(attempt, o.BaseDelay, o.MaxDelay)
}

// Do runs fn until it succeeds, fails for good or runs out of attempts.
// On cancellation the last attempt's error wins over ctx.Err.
func Do(ctx context.Context, opts Options, fn func() error) error {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}

	attempts := 1 + opts.MaxRetries
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !opts.Retryable(lastErr) || attempt == attempts-1 {
			return lastErr
		}

		sleep := opts.wait(attempt, lastErr)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt+1, lastErr, sleep)
		}

		t := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return lastErr
		case <-t.C:
		}
	}

	return lastErr
}
