package tenant

import (
	"sync"
	"time"
)

// domainCache is an in-memory map of email domain -> tenant id. The whole
// cache carries a single refresh timestamp: once the TTL has elapsed every
// entry is considered stale, which mirrors coarse invalidation on mutation.
// Callers must tolerate up-to-TTL staleness.
type domainCache struct {
	mu            sync.RWMutex
	entries       map[string]uint
	lastRefreshed time.Time
	ttl           time.Duration
}

func newDomainCache(ttl time.Duration) *domainCache {
	return &domainCache{
		entries: make(map[string]uint),
		ttl:     ttl,
	}
}

// get returns the cached tenant id for domain, or false when the domain is
// absent or the cache as a whole has expired.
func (c *domainCache) get(domain string, now time.Time) (uint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if now.Sub(c.lastRefreshed) > c.ttl {
		return 0, false
	}
	id, ok := c.entries[domain]
	return id, ok
}

// set stores a resolution result. If the cache has expired, the entry map is
// swapped for a fresh one so stale entries never outlive the TTL.
func (c *domainCache) set(domain string, tenantID uint, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastRefreshed) > c.ttl {
		c.entries = make(map[string]uint)
		c.lastRefreshed = now
	} else if len(c.entries) == 0 {
		c.lastRefreshed = now
	}
	c.entries[domain] = tenantID
}

// invalidate clears the entire cache. Mutating operations always clear
// everything rather than single keys, to avoid partial-staleness bugs.
func (c *domainCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]uint)
	c.lastRefreshed = time.Time{}
}

func (c *domainCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
