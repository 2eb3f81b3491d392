package scheduler

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/warpdl/idleload/pkg/logger"
)

// LoadResult describes what a host load did.
type LoadResult struct {
	// Fresh is false when the feature was already resident and the call
	// was a no-op.
	Fresh bool
	// Loaded lists every feature that was loaded by the call, in completion
	// order: leaves first, the requested feature last.
	Loaded []Feature
	// Order is the feature's full load order, including dependencies that
	// were already resident. Hosts that cannot observe it leave it empty
	// and Loaded is recorded instead.
	Order []Feature
}

// Loader is the host's load primitive. A load may pull in further features
// as a side effect; those are reported in LoadResult.Loaded.
type Loader interface {
	Load(f Feature) (LoadResult, error)
}

// Timer is an armed one-shot idle timer.
type Timer interface {
	// Stop disarms the timer. It reports false if the timer already fired
	// or was stopped.
	Stop() bool
}

// IdleTimer is the host's idle-timer primitive: fn runs on the host's event
// loop once the host has been inactive for d.
type IdleTimer interface {
	AfterIdle(d time.Duration, fn func()) Timer
}

// DependencyCache is the persisted feature -> load order mapping consulted
// during expansion. *depcache.Cache implements it.
type DependencyCache interface {
	EnsureLoaded()
	Lookup(f string) ([]string, bool)
	Record(f string, deps []string)
	Dirty() bool
	Flush() error
}

// Hooks are optional callbacks fired from inside Drain.
type Hooks struct {
	// BeforeAction runs just before an entry is dispatched.
	BeforeAction func(e Entry)
	// FeatureLoaded runs after a successful Require or DependencyRequire.
	FeatureLoaded func(a Action, res LoadResult)
	// CacheFlushed runs after the dependency cache was written.
	CacheFlushed func()
}

// Options configure a Scheduler. Zero durations fall back to the defaults.
type Options struct {
	// Delay is the idle period the timer waits for before draining.
	Delay time.Duration
	// MaxDuration bounds the wall-clock time of one drain pass.
	MaxDuration time.Duration
	Clock       clock.Clock
	Logger      logger.Logger
	Hooks       Hooks
}

const (
	DefaultDelay       = 100 * time.Millisecond
	DefaultMaxDuration = 10 * time.Millisecond
)

// Stats are cumulative counters since the Scheduler was created.
type Stats struct {
	Drains     int           `json:"drains"`
	Actions    int           `json:"actions"`
	Expansions int           `json:"expansions"`
	Fallbacks  int           `json:"fallbacks"`
	Flushes    int           `json:"flushes"`
	LastDrain  time.Duration `json:"lastDrain"`
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	Pending  int   `json:"pending"`
	Armed    bool  `json:"armed"`
	Draining bool  `json:"draining"`
	Closed   bool  `json:"closed"`
	Stats    Stats `json:"stats"`
}
