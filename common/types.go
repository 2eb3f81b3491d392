package common

// JSON-RPC method names served by the daemon.
const (
	MethodGetVersion  = "system.getVersion"
	MethodIdleRequire = "idle.require"
	MethodIdleStatus  = "idle.status"
	MethodCacheList   = "cache.list"
	MethodCacheForget = "cache.forget"
	MethodCacheClear  = "cache.clear"
	MethodCacheFlush  = "cache.flush"
)

// Push notifications sent to connected clients.
const (
	NotifyFeatureLoaded = "idle.featureLoaded"
	NotifyCacheFlushed  = "idle.cacheFlushed"
)

// VersionResult is the response for system.getVersion.
type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"buildType,omitempty"`
}

// RequireParams is the input for idle.require.
type RequireParams struct {
	Feature string  `json:"feature"`
	Order   float64 `json:"order,omitempty"`
}

// FeatureParams is a common input with just a feature name.
type FeatureParams struct {
	Feature string `json:"feature"`
}

// SchedulerStats mirrors the scheduler's cumulative counters.
type SchedulerStats struct {
	Drains      int   `json:"drains"`
	Actions     int   `json:"actions"`
	Expansions  int   `json:"expansions"`
	Fallbacks   int   `json:"fallbacks"`
	Flushes     int   `json:"flushes"`
	LastDrainUS int64 `json:"lastDrainUs"`
}

// PendingAction is one queued scheduler entry.
type PendingAction struct {
	Order   float64 `json:"order"`
	Kind    string  `json:"kind"`
	Feature string  `json:"feature,omitempty"`
}

// CacheStatus describes the dependency cache.
type CacheStatus struct {
	Path    string `json:"path"`
	Loaded  bool   `json:"loaded"`
	Dirty   bool   `json:"dirty"`
	Entries int    `json:"entries"`
}

// StatusResult is the response for idle.status.
type StatusResult struct {
	Pending  []PendingAction `json:"pending"`
	Armed    bool            `json:"armed"`
	Draining bool            `json:"draining"`
	Stats    SchedulerStats  `json:"stats"`
	Cache    CacheStatus     `json:"cache"`
	Resident []string        `json:"resident,omitempty"`
	// Available lists the top-level modules in the feature directory.
	Available []string `json:"available,omitempty"`
}

// CacheEntry is one learned feature load order.
type CacheEntry struct {
	Feature      string   `json:"feature"`
	Dependencies []string `json:"dependencies"`
}

// CacheListResult is the response for cache.list.
type CacheListResult struct {
	Entries []CacheEntry `json:"entries"`
}

// ForgetResult is the response for cache.forget.
type ForgetResult struct {
	Removed bool `json:"removed"`
}

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}

// FeatureLoadedNotification is pushed after a feature load completes.
type FeatureLoadedNotification struct {
	Feature string   `json:"feature"`
	Kind    string   `json:"kind"`
	Loaded  []string `json:"loaded,omitempty"`
}

// CacheFlushedNotification is pushed after the dependency cache is written.
type CacheFlushedNotification struct {
	Entries int `json:"entries"`
}
