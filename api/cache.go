package main

import (
	"sync"
	"time"
)

const (
	identityCacheTTL        = 300 * time.Second
	identityCacheMaxEntries = 10000
)

type cacheEntry struct {
	user    *user
	addedAt time.Time
}

// identityCache maps a verified token subject to its resolved user record so
// protected requests don't hit the database on every call. Entries expire
// lazily on lookup; the entry count is capped, evicting the oldest insertion
// first, so the map cannot grow without bound. Concurrent puts for the same
// subject are last-write-wins.
type identityCache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	entries    map[int]cacheEntry
}

func newIdentityCache() *identityCache {
	return &identityCache{
		ttl:        identityCacheTTL,
		maxEntries: identityCacheMaxEntries,
		now:        time.Now,
		entries:    make(map[int]cacheEntry),
	}
}

func (c *identityCache) get(userID int) (*user, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.addedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent put may have
		// refreshed the entry in the meantime.
		if e, ok = c.entries[userID]; ok && c.now().Sub(e.addedAt) >= c.ttl {
			delete(c.entries, userID)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.user, true
}

func (c *identityCache) put(u *user) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[u.ID]; !ok && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[u.ID] = cacheEntry{user: u, addedAt: c.now()}
}

func (c *identityCache) evictOldestLocked() {
	var oldestID int
	var oldestAt time.Time
	first := true
	for id, e := range c.entries {
		if first || e.addedAt.Before(oldestAt) {
			oldestID = id
			oldestAt = e.addedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestID)
	}
}
