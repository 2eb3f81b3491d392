package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/warpdl/idleload/pkg/logger"
)

// ErrClosed is returned by IdleRequire after Close.
var ErrClosed = errors.New("scheduler closed")

// Scheduler holds the queue of pending actions and the single idle timer
// that drains it. Outside of Drain, a timer is armed exactly when the queue
// is non-empty or the cache has unsaved changes.
type Scheduler struct {
	queue actionHeap
	seq   uint64

	cache  DependencyCache
	loader Loader
	idle   IdleTimer
	timer  Timer

	// draining suppresses timer arming while Drain runs; Drain re-arms
	// once on the way out.
	draining bool
	closed   bool

	delay       time.Duration
	maxDuration time.Duration
	clock       clock.Clock
	log         logger.Logger
	hooks       Hooks
	stats       Stats
}

// New creates a Scheduler with an empty queue and no armed timer.
func New(cache DependencyCache, loader Loader, idle IdleTimer, opts Options) *Scheduler {
	s := &Scheduler{
		cache:       cache,
		loader:      loader,
		idle:        idle,
		delay:       opts.Delay,
		maxDuration: opts.MaxDuration,
		clock:       opts.Clock,
		log:         opts.Logger,
		hooks:       opts.Hooks,
	}
	if s.delay <= 0 {
		s.delay = DefaultDelay
	}
	if s.maxDuration <= 0 {
		s.maxDuration = DefaultMaxDuration
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.log == nil {
		s.log = logger.NewNopLogger()
	}
	return s
}

// Schedule queues a at the given order and arms the idle timer if none is
// armed. Orders outside the public range are allowed here; validation is
// IdleRequire's job.
func (s *Scheduler) Schedule(a Action, order float64) {
	s.seq++
	heapPush(&s.queue, Entry{Order: order, Action: a, seq: s.seq})
	if !s.draining && s.timer == nil && !s.closed {
		s.arm()
	}
}

func (s *Scheduler) arm() {
	s.timer = s.idle.AfterIdle(s.delay, s.onIdle)
}

func (s *Scheduler) onIdle() {
	if err := s.Drain(); err != nil {
		s.log.Error("idle drain: %v", err)
	}
}

// pending reports whether there is anything left for a drain to do.
func (s *Scheduler) pending() bool {
	return s.queue.Len() > 0 || s.cache.Dirty()
}

// Drain runs queued actions until the time slice is used up or nothing is
// left, flushing the dependency cache once the queue empties. It re-arms the
// idle timer if work remains. A host load error or a failed flush ends the
// pass early and is returned.
func (s *Scheduler) Drain() error {
	if s.draining || s.closed {
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.draining = true
	start := s.clock.Now()
	defer func() {
		s.draining = false
		s.stats.Drains++
		s.stats.LastDrain = s.clock.Since(start)
		if s.pending() {
			s.arm()
		}
	}()

	for s.clock.Since(start) < s.maxDuration && s.pending() {
		if s.queue.Len() == 0 {
			if err := s.flush(); err != nil {
				return err
			}
			continue
		}
		e := heapPop(&s.queue)
		if err := s.dispatch(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) flush() error {
	if err := s.cache.Flush(); err != nil {
		return fmt.Errorf("flush dependency cache: %w", err)
	}
	s.stats.Flushes++
	s.log.Debug("dependency cache flushed")
	if s.hooks.CacheFlushed != nil {
		s.hooks.CacheFlushed()
	}
	return nil
}

// FlushCache writes the dependency cache now if it is dirty.
func (s *Scheduler) FlushCache() error {
	if !s.cache.Dirty() {
		return nil
	}
	return s.flush()
}

// Wake arms the idle timer if there is pending work and none is armed. Call
// it after changing the cache outside of a drain.
func (s *Scheduler) Wake() {
	if !s.draining && s.timer == nil && !s.closed && s.pending() {
		s.arm()
	}
}

func (s *Scheduler) dispatch(e Entry) error {
	s.stats.Actions++
	s.log.Debug("drain: %s at %v", e.Action, e.Order)
	if s.hooks.BeforeAction != nil {
		s.hooks.BeforeAction(e)
	}
	switch e.Action.Kind {
	case KindLoadCache:
		s.cache.EnsureLoaded()
	case KindIdleRequire:
		s.expand(e)
	case KindRequire:
		res, err := s.load(e.Action)
		if err != nil {
			return err
		}
		if res.Fresh {
			order := res.Order
			if len(order) == 0 {
				order = res.Loaded
			}
			s.cache.Record(string(e.Action.Feature), featureStrings(order))
		}
	case KindDependencyRequire:
		if _, err := s.load(e.Action); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown action kind %d", e.Action.Kind)
	}
	return nil
}

func (s *Scheduler) load(a Action) (LoadResult, error) {
	res, err := s.loader.Load(a.Feature)
	if err != nil {
		return res, fmt.Errorf("%s: %w", a, err)
	}
	if s.hooks.FeatureLoaded != nil {
		s.hooks.FeatureLoaded(a, res)
	}
	return res, nil
}

// expand replaces an IdleRequire by one DependencyRequire per recorded
// dependency, or by a lowest-priority Require on a cache miss.
func (s *Scheduler) expand(e Entry) {
	f := e.Action.Feature
	deps, ok := s.cache.Lookup(string(f))
	if !ok {
		s.stats.Fallbacks++
		s.Schedule(Require(f), OrderFallback)
		return
	}
	s.stats.Expansions++
	steps := make([]Feature, 0, len(deps)+1)
	for _, d := range deps {
		steps = append(steps, Feature(d))
	}
	if len(steps) == 0 || steps[len(steps)-1] != f {
		steps = append(steps, f)
	}
	// Sub-orders stay strictly between e.Order and e.Order+1.
	n := float64(len(steps) + 1)
	for i, d := range steps {
		s.Schedule(DependencyRequire(d), e.Order+float64(i+1)/n)
	}
}

// Close disarms the idle timer, drops pending actions and writes the
// dependency cache if it has unsaved changes.
func (s *Scheduler) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if n := s.queue.Len(); n > 0 {
		s.log.Info("Dropping %d pending idle actions", n)
	}
	s.queue = nil
	return s.FlushCache()
}

// Pending returns the queued entries in the order they will run.
func (s *Scheduler) Pending() []Entry {
	out := make([]Entry, len(s.queue))
	copy(out, s.queue)
	sort.Slice(out, func(i, j int) bool { return actionHeap(out).Less(i, j) })
	return out
}

// Status returns a snapshot of the scheduler state.
func (s *Scheduler) Status() Status {
	return Status{
		Pending:  s.queue.Len(),
		Armed:    s.timer != nil,
		Draining: s.draining,
		Closed:   s.closed,
		Stats:    s.stats,
	}
}

func featureStrings(fs []Feature) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}
