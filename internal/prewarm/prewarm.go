// Package prewarm issues idle requires for configured features at daemon
// start and, for entries with a cron expression, on every occurrence.
package prewarm

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/benbjohnson/clock"
)

const maxSleepCap = 60 * time.Second

// Prewarmer owns a heap of pending triggers and a goroutine that sleeps
// until the next one is due.
type Prewarmer struct {
	ctx   context.Context
	clock clock.Clock
	h     eventHeap
}

// Validate checks entries before they are handed to New.
func Validate(entries []Entry) error {
	for i, e := range entries {
		if e.Feature == "" {
			return fmt.Errorf("prewarm[%d]: feature is required", i)
		}
		if e.Cron != "" && !gronx.IsValid(e.Cron) {
			return fmt.Errorf("prewarm[%d] (%s): invalid cron expression %q", i, e.Feature, e.Cron)
		}
	}
	return nil
}

// New validates entries and starts the prewarm goroutine, which calls
// onTrigger for every entry right away and again at each cron occurrence.
// An entry whose onTrigger returns false is not triggered again. The
// goroutine exits when ctx is cancelled.
func New(ctx context.Context, clk clock.Clock, entries []Entry, onTrigger func(Entry) bool) (*Prewarmer, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	p := &Prewarmer{
		ctx:   ctx,
		clock: clk,
	}
	now := clk.Now()
	for _, e := range entries {
		heapPush(&p.h, event{entry: e, triggerAt: now})
	}
	go p.run(onTrigger)
	return p, nil
}

func (p *Prewarmer) run(onTrigger func(Entry) bool) {
	var timer *clock.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		next, ok := p.next(p.clock.Now())
		if !ok {
			return nil
		}
		timer = p.clock.Timer(next)
		return timer.C
	}

	timerCh := resetTimer()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-timerCh:
			p.fire(p.clock.Now(), onTrigger)
			timerCh = resetTimer()
		}
	}
}

// next returns how long to sleep until the earliest trigger, capped at
// maxSleepCap. It reports false when nothing is pending.
func (p *Prewarmer) next(now time.Time) (time.Duration, bool) {
	if p.h.Len() == 0 {
		return 0, false
	}
	d := p.h[0].triggerAt.Sub(now)
	if d > maxSleepCap {
		d = maxSleepCap
	}
	if d < 0 {
		d = 0
	}
	return d, true
}

// fire triggers every event due at now and re-adds recurring ones at their
// next occurrence unless onTrigger rejected them.
func (p *Prewarmer) fire(now time.Time, onTrigger func(Entry) bool) {
	for p.h.Len() > 0 && !p.h[0].triggerAt.After(now) {
		ev := heapPop(&p.h)
		if !onTrigger(ev.entry) || ev.entry.Cron == "" {
			continue
		}
		next, err := nextCronOccurrence(ev.entry.Cron, now)
		if err == nil {
			heapPush(&p.h, event{entry: ev.entry, triggerAt: next})
		}
	}
}

// nextCronOccurrence returns the next time expr fires strictly after start.
func nextCronOccurrence(expr string, start time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, start, false)
}
