// Package cache provides a bounded, TTL-based result cache for pipeline runs.
// Keys are derived from normalized request text so trivially reworded requests
// still hit. The cache stores formatted results, never pipeline state.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
)

// entry is a single cached value with its lifetime bounds.
type entry struct {
	value     any
	createdAt time.Time
	expiresAt time.Time
}

// Stats reports cache counters for the introspection endpoint.
type Stats struct {
	Entries     int   `json:"entries"`
	MaxEntries  int   `json:"max_entries"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Evictions   int64 `json:"evictions"`
	Expirations int64 `json:"expirations"`
}

// Cache is a size-bounded TTL cache safe for concurrent use.
// On overflow the entry with the oldest creation time is evicted.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	maxEntries int
	ttl        time.Duration
	logger     *slog.Logger

	hits        int64
	misses      int64
	evictions   int64
	expirations int64

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// New creates a cache. A positive sweepInterval starts a background sweeper
// removing expired entries; call Close to stop it.
func New(maxEntries int, ttl, sweepInterval time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cache{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		logger:     logger,
	}

	if sweepInterval > 0 {
		c.sweepStop = make(chan struct{})
		c.sweepDone = make(chan struct{})
		go c.sweepLoop(sweepInterval)
	}

	return c
}

// Key computes the cache key for raw request text: lower-cased,
// punctuation-stripped, whitespace-collapsed, then hashed.
func Key(rawText string) string {
	normalized := Normalize(rawText)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Normalize returns the canonical form of request text used for keying.
func Normalize(rawText string) string {
	var b strings.Builder
	b.Grow(len(rawText))

	lastSpace := true
	for _, r := range strings.ToLower(rawText) {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// Stripped entirely
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

// Get returns the cached value for key, or (nil, false) on miss or expiry.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have replaced it.
		if cur, still := c.entries[key]; still && cur == e {
			delete(c.entries, key)
			c.expirations++
		}
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return e.value, true
}

// Set stores a value under key, evicting the oldest entry on overflow.
func (c *Cache) Set(key string, value any) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}

	c.entries[key] = &entry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(c.ttl),
	}
}

// Delete removes a single entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries:     len(c.entries),
		MaxEntries:  c.maxEntries,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}
}

// Close stops the background sweeper. Safe to call once.
func (c *Cache) Close() {
	if c.sweepStop == nil {
		return
	}
	close(c.sweepStop)
	<-c.sweepDone
}

// evictOldestLocked removes the entry with the oldest creation time.
// Caller must hold the write lock.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time

	for k, e := range c.entries {
		if oldestKey == "" || e.createdAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.createdAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}

// sweepLoop periodically removes expired entries until Close is called.
func (c *Cache) sweepLoop(interval time.Duration) {
	defer close(c.sweepDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.sweepStop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep removes all expired entries in one pass.
func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			c.expirations++
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("Swept expired cache entries", "removed", removed, "remaining", len(c.entries))
	}
}
