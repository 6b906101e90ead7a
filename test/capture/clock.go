package capture

import (
	"sort"
	"sync"
	"time"
)

// ManualClock is a clock that only moves forward when told to. Functions scheduled with AfterFunc
// run synchronously, in order of due time, from Advance
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []scheduledFunc
	seq    int
}

type scheduledFunc struct {
	due time.Time
	seq int
	f   func()
}

// NewManualClock returns a ManualClock set to the given time
func NewManualClock(now time.Time) (c *ManualClock) {
	c = new(ManualClock)
	c.now = now

	return c
}

// Now returns the current time of the clock
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// AfterFunc schedules f to run once the clock is advanced by at least d
func (c *ManualClock) AfterFunc(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq = c.seq + 1
	c.timers = append(c.timers, scheduledFunc{due: c.now.Add(d), seq: c.seq, f: f})
}

// Pending returns the number of scheduled functions that haven't run yet
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.timers)
}

// Advance moves the clock forward and runs every function that became due, including the ones scheduled
// by those functions
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		next, ok := c.popDue(target)
		if !ok {
			break
		}

		next.f()
	}

	c.mu.Lock()
	c.now = target
	c.mu.Unlock()
}

// popDue removes the earliest function due by target and moves the clock to its due time
func (c *ManualClock) popDue(target time.Time) (next scheduledFunc, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sort.Slice(c.timers, func(i, j int) bool {
		return c.timers[i].due.Before(c.timers[j].due) || (c.timers[i].due.Equal(c.timers[j].due) && c.timers[i].seq < c.timers[j].seq)
	})

	if len(c.timers) == 0 || c.timers[0].due.After(target) {
		return next, false
	}

	next = c.timers[0]
	c.timers = c.timers[1:]
	if next.due.After(c.now) {
		c.now = next.due
	}

	return next, true
}
