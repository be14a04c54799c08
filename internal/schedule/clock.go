package schedule

import "time"

// Clock lets tests drive the loop without real sleeps
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock wall clock
var RealClock Clock = realClock{}
