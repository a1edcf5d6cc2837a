package main

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityCacheHitWithinTTL(t *testing.T) {
	c := newIdentityCache()
	base := time.Now()
	c.now = func() time.Time { return base }

	u := &user{ID: 1, Email: "a@x.com"}
	c.put(u)

	c.now = func() time.Time { return base.Add(identityCacheTTL - time.Second) }
	got, ok := c.get(1)
	require.True(t, ok)
	assert.Equal(t, u, got)
}

func TestIdentityCacheExpires(t *testing.T) {
	c := newIdentityCache()
	base := time.Now()
	c.now = func() time.Time { return base }

	c.put(&user{ID: 1, Email: "a@x.com"})

	c.now = func() time.Time { return base.Add(identityCacheTTL) }
	_, ok := c.get(1)
	assert.False(t, ok)

	// The expired entry was purged, not just hidden.
	c.mu.RLock()
	_, present := c.entries[1]
	c.mu.RUnlock()
	assert.False(t, present)
}

func TestIdentityCacheMiss(t *testing.T) {
	c := newIdentityCache()
	_, ok := c.get(99)
	assert.False(t, ok)
}

func TestIdentityCacheLastWriteWins(t *testing.T) {
	c := newIdentityCache()

	c.put(&user{ID: 1, Email: "old@x.com"})
	c.put(&user{ID: 1, Email: "new@x.com"})

	got, ok := c.get(1)
	require.True(t, ok)
	assert.Equal(t, "new@x.com", got.Email)
}

func TestIdentityCacheBounded(t *testing.T) {
	c := newIdentityCache()
	c.maxEntries = 2
	base := time.Now()
	c.now = func() time.Time { return base }

	c.put(&user{ID: 1})
	c.now = func() time.Time { return base.Add(time.Second) }
	c.put(&user{ID: 2})
	c.now = func() time.Time { return base.Add(2 * time.Second) }
	c.put(&user{ID: 3})

	// The oldest insertion was evicted to make room.
	_, ok := c.get(1)
	assert.False(t, ok)
	_, ok = c.get(2)
	assert.True(t, ok)
	_, ok = c.get(3)
	assert.True(t, ok)
}

func TestIdentityCacheConcurrentAccess(t *testing.T) {
	c := newIdentityCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := i % 5
		go func() {
			defer wg.Done()
			c.put(&user{ID: id})
		}()
		go func() {
			defer wg.Done()
			c.get(id)
		}()
	}
	wg.Wait()
}
