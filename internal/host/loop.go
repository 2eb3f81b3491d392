// Package host provides the single-goroutine event loop that idle work
// runs on.
package host

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
)

// ErrLoopClosed is returned when work is submitted to a loop that has exited.
var ErrLoopClosed = errors.New("host loop closed")

// Loop runs submitted tasks one at a time on a single goroutine. State that
// is only touched from tasks needs no locking.
//
// Every task counts as activity. Idle timers registered with AfterIdle fire
// once the loop has gone their full delay without running a task.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	clock clock.Clock

	// Owned by the loop goroutine.
	idle       map[*IdleTimer]struct{}
	seq        uint64
	lastActive time.Time
}

// New returns a loop that is not yet running. A nil clk means wall time.
func New(clk clock.Clock) *Loop {
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
		clock: clk,
		idle:  make(map[*IdleTimer]struct{}),
	}
}

// Run processes tasks until ctx is cancelled. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	l.lastActive = l.clock.Now()

	for {
		var (
			timer   *clock.Timer
			timerCh <-chan time.Time
		)
		if deadline, ok := l.nextDeadline(); ok {
			d := deadline.Sub(l.clock.Now())
			if d < 0 {
				d = 0
			}
			timer = l.clock.Timer(d)
			timerCh = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case fn := <-l.tasks:
			fn()
			l.lastActive = l.clock.Now()

		case <-timerCh:
			l.fireDue(l.clock.Now())
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Submit queues fn to run on the loop goroutine.
func (l *Loop) Submit(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	if err := l.Submit(func() { errCh <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// fn may have completed just before the loop exited.
		select {
		case err := <-errCh:
			return err
		default:
			return ErrLoopClosed
		}
	}
}

func (l *Loop) deadline(t *IdleTimer) time.Time {
	base := t.armedAt
	if l.lastActive.After(base) {
		base = l.lastActive
	}
	return base.Add(t.delay)
}

func (l *Loop) nextDeadline() (time.Time, bool) {
	var (
		next time.Time
		ok   bool
	)
	for t := range l.idle {
		d := l.deadline(t)
		if !ok || d.Before(next) {
			next, ok = d, true
		}
	}
	return next, ok
}

func (l *Loop) fireDue(now time.Time) {
	var due []*IdleTimer
	for t := range l.idle {
		if !l.deadline(t).After(now) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].seq < due[j].seq })
	for _, t := range due {
		if _, ok := l.idle[t]; !ok {
			continue
		}
		delete(l.idle, t)
		t.fn()
	}
}
