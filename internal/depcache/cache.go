// Package depcache holds the learned feature -> dependency load order
// mapping and its persistence.
package depcache

import (
	"errors"
	"io/fs"
	"sort"

	"github.com/warpdl/idleload/pkg/logger"
)

// Cache maps a feature to the features it pulls in, leaves first. It is
// read from its Store lazily and written back only when dirty.
//
// A Cache is not safe for concurrent use; it belongs to the goroutine that
// drives the scheduler.
type Cache struct {
	store   Store
	log     logger.Logger
	entries map[string][]string
	loaded  bool
	dirty   bool
}

// New returns an empty, unloaded cache backed by store.
func New(store Store, l logger.Logger) *Cache {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Cache{
		store:   store,
		log:     l,
		entries: make(map[string][]string),
	}
}

// EnsureLoaded reads the store the first time it is called. A missing or
// unreadable store leaves the cache empty.
func (c *Cache) EnsureLoaded() {
	if c.loaded {
		return
	}
	c.loaded = true
	c.dirty = false
	m, err := c.store.Read()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.log.Warning("dependency cache %s unreadable, starting empty: %v", c.store, err)
		}
		return
	}
	for f, deps := range m {
		c.entries[f] = cloneDeps(deps)
	}
	c.log.Debug("dependency cache loaded: %d features", len(c.entries))
}

// Lookup returns the recorded dependencies of f. An unloaded cache has no
// entries.
func (c *Cache) Lookup(f string) ([]string, bool) {
	deps, ok := c.entries[f]
	if !ok {
		return nil, false
	}
	return cloneDeps(deps), true
}

// Record stores deps as the load order of f and marks the cache dirty.
func (c *Cache) Record(f string, deps []string) {
	c.EnsureLoaded()
	c.entries[f] = cloneDeps(deps)
	c.dirty = true
}

// Forget drops the entry for f and reports whether there was one.
func (c *Cache) Forget(f string) bool {
	c.EnsureLoaded()
	if _, ok := c.entries[f]; !ok {
		return false
	}
	delete(c.entries, f)
	c.dirty = true
	return true
}

// Reset drops every entry. The empty mapping is written on the next flush.
func (c *Cache) Reset() {
	c.EnsureLoaded()
	c.entries = make(map[string][]string)
	c.dirty = true
}

// Flush writes the mapping if it is dirty.
func (c *Cache) Flush() error {
	if !c.dirty {
		return nil
	}
	if err := c.store.Write(c.Entries()); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// Entries returns a copy of the loaded mapping.
func (c *Cache) Entries() map[string][]string {
	out := make(map[string][]string, len(c.entries))
	for f, deps := range c.entries {
		out[f] = cloneDeps(deps)
	}
	return out
}

// Features returns the cached feature names, sorted.
func (c *Cache) Features() []string {
	out := make([]string, 0, len(c.entries))
	for f := range c.entries {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (c *Cache) Len() int     { return len(c.entries) }
func (c *Cache) Loaded() bool { return c.loaded }
func (c *Cache) Dirty() bool  { return c.dirty }

// Close releases the store.
func (c *Cache) Close() error {
	return c.store.Close()
}

func cloneDeps(deps []string) []string {
	if deps == nil {
		return []string{}
	}
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}
