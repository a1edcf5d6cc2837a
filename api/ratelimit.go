package main

import (
	"sync"
	"time"
)

const (
	rateLimitWindow     = 60 * time.Second
	rateLimitThreshold  = 10
	rateLimitMaxClients = 10000
)

// rateLimiter is a sliding-log limiter: it keeps the exact timestamps of
// admitted requests per client key and prunes them on every check, so it
// neither over- nor under-admits at window boundaries. Prune, count, and
// append happen under a single lock so concurrent requests for the same
// client can never slip past the threshold.
type rateLimiter struct {
	mu         sync.Mutex
	window     time.Duration
	threshold  int
	maxClients int
	now        func() time.Time
	requests   map[string][]time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		window:     rateLimitWindow,
		threshold:  rateLimitThreshold,
		maxClients: rateLimitMaxClients,
		now:        time.Now,
		requests:   make(map[string][]time.Time),
	}
}

func (rl *rateLimiter) allow(clientKey string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	history, tracked := rl.requests[clientKey]
	recent := history[:0]
	for _, t := range history {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) >= rl.threshold {
		rl.requests[clientKey] = recent
		return false
	}
	if !tracked && len(rl.requests) >= rl.maxClients {
		rl.dropIdleLocked(cutoff)
	}
	rl.requests[clientKey] = append(recent, now)
	return true
}

// dropIdleLocked removes keys whose whole log has aged out of the window,
// bounding the number of distinct clients tracked.
func (rl *rateLimiter) dropIdleLocked(cutoff time.Time) {
	for key, times := range rl.requests {
		idle := true
		for _, t := range times {
			if t.After(cutoff) {
				idle = false
				break
			}
		}
		if idle {
			delete(rl.requests, key)
		}
	}
}
