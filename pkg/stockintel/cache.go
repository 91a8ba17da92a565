package stockintel

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	report   *Report
	cachedAt time.Time
}

// reportCache holds finished reports per symbol with a TTL and coalesces
// concurrent computations for the same symbol into a single flight.
// Failures are never cached; a failed flight is shared by its concurrent
// waiters and the next caller starts fresh.
type reportCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	group   singleflight.Group
	now     func() time.Time
}

func newReportCache(ttl time.Duration) *reportCache {
	return &reportCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *reportCache) get(symbol string) (*Report, bool) {
	c.mu.RLock()
	entry, ok := c.entries[symbol]
	c.mu.RUnlock()
	if !ok || c.now().Sub(entry.cachedAt) > c.ttl {
		return nil, false
	}
	return entry.report, true
}

func (c *reportCache) set(symbol string, report *Report) {
	c.mu.Lock()
	c.entries[symbol] = cacheEntry{report: report, cachedAt: c.now()}
	c.mu.Unlock()
}

// GetOrCompute returns the cached report for symbol or runs compute once,
// sharing the result (or error) with every concurrent caller.
func (c *reportCache) GetOrCompute(symbol string, compute func() (*Report, error)) (*Report, error) {
	if report, ok := c.get(symbol); ok {
		return report, nil
	}

	v, err, _ := c.group.Do(symbol, func() (any, error) {
		// A winner may have populated the cache while this caller was
		// waiting to enter the flight.
		if report, ok := c.get(symbol); ok {
			return report, nil
		}
		report, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(symbol, report)
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Report), nil
}

// Invalidate drops the cached report for symbol, if any.
func (c *reportCache) Invalidate(symbol string) {
	c.mu.Lock()
	delete(c.entries, symbol)
	c.mu.Unlock()
}

// Purge removes all expired entries and returns how many were dropped.
func (c *reportCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for symbol, entry := range c.entries {
		if c.now().Sub(entry.cachedAt) > c.ttl {
			delete(c.entries, symbol)
			dropped++
		}
	}
	return dropped
}
