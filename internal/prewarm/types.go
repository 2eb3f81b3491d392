package prewarm

import "time"

// Entry is one configured prewarm request.
type Entry struct {
	Feature string  `toml:"feature" json:"feature"`
	Order   float64 `toml:"order" json:"order"`
	// Cron re-requests the feature on every occurrence. Empty means the
	// feature is requested once, at start.
	Cron string `toml:"cron" json:"cron,omitempty"`
}

// event is a pending trigger in the heap.
type event struct {
	entry     Entry
	triggerAt time.Time
}
