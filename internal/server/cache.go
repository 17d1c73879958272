package server

import (
	"sync"
	"time"

	"github.com/mj1618/winsync/internal/model"
	"github.com/mj1618/winsync/internal/registry"
	"github.com/mj1618/winsync/internal/store"
)

// cacheEntry holds a decoded roster with its timestamp.
type cacheEntry struct {
	result    model.RosterResult
	timestamp time.Time
}

// RosterCache provides a TTL-based cache in front of roster reads, so bursts
// of tool calls do not each hit a slow backend.
type RosterCache struct {
	mu    sync.Mutex
	store store.Store
	key   string
	ttl   time.Duration
	entry *cacheEntry
	now   func() time.Time
}

// NewRosterCache creates a new cache over key in s. A ttl of 0 disables
// caching.
func NewRosterCache(s store.Store, key string, ttl time.Duration) *RosterCache {
	return &RosterCache{store: s, key: key, ttl: ttl, now: time.Now}
}

// Key returns the roster key being read.
func (c *RosterCache) Key() string {
	return c.key
}

// Read returns the cached roster if within TTL, otherwise reads fresh.
// Read errors are not cached.
func (c *RosterCache) Read() (model.RosterResult, error) {
	if c.ttl > 0 {
		c.mu.Lock()
		if e := c.entry; e != nil && c.now().Sub(e.timestamp) < c.ttl {
			res := e.result
			res.Roster = res.Roster.Clone()
			c.mu.Unlock()
			return res, nil
		}
		c.mu.Unlock()
	}

	res, err := registry.ReadRoster(c.store, c.key)
	if err != nil {
		return model.RosterResult{}, err
	}
	if c.ttl > 0 {
		c.mu.Lock()
		c.entry = &cacheEntry{result: res, timestamp: c.now()}
		c.mu.Unlock()
		res.Roster = res.Roster.Clone()
	}
	return res, nil
}

// Invalidate drops the cached roster.
func (c *RosterCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}
