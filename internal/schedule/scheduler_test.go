package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

// fakeClock signals on waiting every time the loop blocks in After
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []waiter
	waiting chan struct{}
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, waiting: make(chan struct{}, 1<<16)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	ch := make(chan time.Time, 1)
	c.waiters = append(c.waiters, waiter{deadline: c.now.Add(d), ch: ch})
	c.mu.Unlock()
	c.waiting <- struct{}{}
	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	kept := c.waiters[:0]
	for _, w := range c.waiters {
		if !c.now.Before(w.deadline) {
			w.ch <- c.now
			continue
		}
		kept = append(kept, w)
	}
	c.waiters = kept
}

func (c *fakeClock) awaitBlocked(t *testing.T) {
	t.Helper()
	select {
	case <-c.waiting:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not reach its poll wait")
	}
}

type recorder struct {
	mu    sync.Mutex
	clock Clock
	runs  []time.Time
}

func (r *recorder) job(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, r.clock.Now())
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func (r *recorder) times() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Time(nil), r.runs...)
}

func startScheduler(t *testing.T, clock *fakeClock, rec *recorder) (context.CancelFunc, <-chan error) {
	t.Helper()
	s, err := New(Config{
		Triggers:      TriggersAt(DefaultTimes, "daily"),
		PollInterval:  time.Minute,
		Location:      time.UTC,
		StartupAction: "daily",
		Clock:         clock,
	}, map[string]Job{"daily": rec.job})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return cancel, done
}

func stop(t *testing.T, cancel context.CancelFunc, done <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStartupRunHappensImmediately(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	rec := &recorder{clock: clock}
	cancel, done := startScheduler(t, clock, rec)

	clock.awaitBlocked(t)
	assert.Equal(t, 1, rec.count())

	stop(t, cancel, done)
}

func TestTriggersFireTwicePerDay(t *testing.T) {
	start := time.Date(2026, 10, 19, 8, 58, 30, 0, time.UTC)
	clock := newFakeClock(start)
	rec := &recorder{clock: clock}
	cancel, done := startScheduler(t, clock, rec)

	clock.awaitBlocked(t)
	require.Equal(t, 1, rec.count())

	for i := 0; i < 24*60; i++ {
		clock.Advance(time.Minute)
		clock.awaitBlocked(t)
	}
	stop(t, cancel, done)

	runs := rec.times()
	require.Len(t, runs, 3)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 30, 0, time.UTC), runs[1])
	assert.Equal(t, time.Date(2026, 10, 19, 21, 0, 30, 0, time.UTC), runs[2])
}

func TestNoRunsBetweenTriggers(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC))
	rec := &recorder{clock: clock}
	cancel, done := startScheduler(t, clock, rec)

	clock.awaitBlocked(t)
	for i := 0; i < 11*60; i++ {
		clock.Advance(time.Minute)
		clock.awaitBlocked(t)
	}
	stop(t, cancel, done)

	assert.Equal(t, 1, rec.count())
}

func TestMissedTriggersRunOnceEach(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC))
	rec := &recorder{clock: clock}
	cancel, done := startScheduler(t, clock, rec)

	clock.awaitBlocked(t)
	// host slept through both triggers
	clock.Advance(3 * 24 * time.Hour)
	clock.awaitBlocked(t)
	stop(t, cancel, done)

	assert.Equal(t, 3, rec.count())
}

func TestCancelWhileWaitingStopsWithoutFurtherRuns(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 10, 19, 8, 59, 30, 0, time.UTC))
	rec := &recorder{clock: clock}
	cancel, done := startScheduler(t, clock, rec)

	clock.awaitBlocked(t)
	stop(t, cancel, done)

	clock.Advance(time.Minute)
	assert.Equal(t, 1, rec.count())
}

func TestRunPendingDirect(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 10, 19, 20, 59, 0, 0, time.UTC))
	var calls atomic.Int32
	s, err := New(Config{
		Triggers: []Trigger{{At: "21:00", Action: "a"}},
		Location: time.UTC,
		Clock:    clock,
	}, map[string]Job{"a": func(context.Context) { calls.Add(1) }})
	require.NoError(t, err)

	// not started yet, nothing scheduled
	assert.Zero(t, s.RunPending(context.Background()))
	assert.True(t, s.NextRun().IsZero())
	assert.Equal(t, []string{"21:00"}, s.Times())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Run(ctx))
	assert.Equal(t, time.Date(2026, 10, 19, 21, 0, 0, 0, time.UTC), s.NextRun())

	clock.Advance(time.Minute)
	assert.Equal(t, 1, s.RunPending(context.Background()))
	assert.Equal(t, time.Date(2026, 10, 20, 21, 0, 0, 0, time.UTC), s.NextRun())
	assert.Equal(t, int32(1), calls.Load())
}

func TestPanickingJobEndsLoop(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	s, err := New(Config{
		Triggers:      []Trigger{{At: "09:00", Action: "boom"}},
		StartupAction: "boom",
		Clock:         clock,
	}, map[string]Job{"boom": func(context.Context) { panic("unexpected") }})
	require.NoError(t, err)

	err = s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected")
}

func TestNewValidation(t *testing.T) {
	jobs := map[string]Job{"daily": func(context.Context) {}}

	_, err := New(Config{}, jobs)
	assert.Error(t, err)

	_, err = New(Config{Triggers: []Trigger{{At: "09:00", Action: "nope"}}}, jobs)
	assert.ErrorContains(t, err, "unknown action")

	_, err = New(Config{Triggers: []Trigger{{At: "09:00", Action: "daily"}}, StartupAction: "nope"}, jobs)
	assert.ErrorContains(t, err, "unknown startup action")

	for _, at := range []string{"9:00", "25:00", "09:60", "ab:cd", "0900", ""} {
		_, err = New(Config{Triggers: []Trigger{{At: at, Action: "daily"}}}, jobs)
		assert.Error(t, err, "time %q", at)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	h, m, err := ParseTimeOfDay(" 21:05 ")
	require.NoError(t, err)
	assert.Equal(t, 21, h)
	assert.Equal(t, 5, m)
}

func TestTriggerUsesLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	clock := newFakeClock(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)) // 07:00 WIB
	s, err := New(Config{
		Triggers: []Trigger{{At: "09:00", Action: "a"}},
		Location: jakarta,
		Clock:    clock,
	}, map[string]Job{"a": func(context.Context) {}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Run(ctx))
	assert.True(t, s.NextRun().Equal(time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC)))
}
