package challenge

import (
	"sync"
	"time"
)

// Clock is the source of time for challenges and their timers
type Clock interface {
	Now() time.Time

	// AfterFunc calls f in its own goroutine once d has elapsed
	AfterFunc(d time.Duration, f func())
}

// SystemClock is the wall clock of the process. Sleep and skew aren't compensated
type SystemClock struct{}

// Now returns the current local time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// AfterFunc waits for the duration to elapse and then calls f in its own goroutine
func (SystemClock) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// Timer bounds a window of time and fires a single expiry. There is intentionally no way to pause, extend or
// cancel a started timer
type Timer struct {
	clock Clock
	once  sync.Once
}

// NewTimer returns a Timer driven by the given clock
func NewTimer(clock Clock) (t *Timer) {
	t = new(Timer)
	t.clock = clock

	return t
}

// Start schedules onExpire to run after d. Only the first call to Start has any effect
func (t *Timer) Start(d time.Duration, onExpire func()) {
	t.once.Do(func() {
		t.clock.AfterFunc(d, onExpire)
	})
}
