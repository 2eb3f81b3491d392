// Package scheduler implements the idle-time action scheduler.
//
// Pending work is kept in a min-heap of [Entry] values ordered by a numeric
// order key (smaller runs first) with insertion sequence as the tie-break.
// Nothing runs on submission: [Scheduler.Schedule] only arms a one-shot idle
// timer, and each time the host reports an idle period the timer invokes
// [Scheduler.Drain], which pops and executes actions until a wall-clock slice
// is used up. Whatever remains re-arms the timer for the next idle period.
//
// A deferred feature load ([Scheduler.IdleRequire]) is expanded through the
// dependency cache: when the feature's load order has been recorded on an
// earlier run, each dependency is scheduled on its own so the load can be
// spread across several slices; otherwise the feature is loaded as one unit
// at the lowest priority and the host's observed load order, including
// dependencies that were already resident, is recorded for next time.
//
// A Scheduler is not safe for concurrent use. It is meant to be owned by the
// host's single event loop, which also delivers the idle timer callbacks.
package scheduler
