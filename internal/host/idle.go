package host

import (
	"time"

	"github.com/warpdl/idleload/internal/scheduler"
)

// IdleTimer is a one-shot callback waiting for the loop to go idle.
type IdleTimer struct {
	loop    *Loop
	fn      func()
	delay   time.Duration
	armedAt time.Time
	seq     uint64
}

// AfterIdle arranges for fn to run on the loop once no task has run for d.
// It must be called from the loop goroutine.
func (l *Loop) AfterIdle(d time.Duration, fn func()) *IdleTimer {
	l.seq++
	t := &IdleTimer{loop: l, fn: fn, delay: d, armedAt: l.clock.Now(), seq: l.seq}
	l.idle[t] = struct{}{}
	return t
}

// Stop cancels the timer. It reports false if the timer already fired or
// was stopped. It must be called from the loop goroutine.
func (t *IdleTimer) Stop() bool {
	if _, ok := t.loop.idle[t]; !ok {
		return false
	}
	delete(t.loop.idle, t)
	return true
}

// Idle adapts the loop to the scheduler's idle-timer primitive.
type Idle struct {
	Loop *Loop
}

func (i Idle) AfterIdle(d time.Duration, fn func()) scheduler.Timer {
	return i.Loop.AfterIdle(d, fn)
}
