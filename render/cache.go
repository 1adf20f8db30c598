// ABOUTME: In-memory cache wrapping a formula rendering function with sha256-keyed entries.
// ABOUTME: Supports TTL-based expiry, concurrent access, and manual clearing.
package render

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// RenderFunc is the signature of a rendering function the cache wraps.
type RenderFunc func(display string) string

// cacheEntry holds one cached render result with its creation timestamp.
type cacheEntry struct {
	text      string
	createdAt time.Time
}

// Cache wraps a rendering function with an in-memory cache. Keys are the
// sha256 of the source formula; entries expire after the configured TTL.
type Cache struct {
	renderFn RenderFunc
	ttl      time.Duration
	entries  map[string]*cacheEntry
	mu       sync.RWMutex
}

// NewCache creates a Cache wrapping renderFn. Cached entries expire after
// the given TTL.
func NewCache(renderFn RenderFunc, ttl time.Duration) *Cache {
	return &Cache{
		renderFn: renderFn,
		ttl:      ttl,
		entries:  make(map[string]*cacheEntry),
	}
}

// Render returns the rendered form of display, using a cached result when
// one is present and not expired.
func (c *Cache) Render(display string) string {
	key := cacheKey(display)

	c.mu.RLock()
	if entry, ok := c.entries[key]; ok {
		if time.Since(entry.createdAt) < c.ttl {
			text := entry.text
			c.mu.RUnlock()
			return text
		}
	}
	c.mu.RUnlock()

	text := c.renderFn(display)

	c.mu.Lock()
	c.entries[key] = &cacheEntry{
		text:      text,
		createdAt: time.Now(),
	}
	c.mu.Unlock()

	return text
}

// Len returns the number of entries currently held, including expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// cacheKey derives a deterministic key from the source formula.
func cacheKey(display string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(display)))
}
