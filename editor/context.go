// ABOUTME: Thread-safe store for server-wide context variables
// ABOUTME: Global variables join every model's context when scopes are resolved

package editor

import (
	"sort"
	"sync"
)

// ContextStore holds context variables shared by every session on the server.
// Values are formula text, so a global like discount_rate can be referenced
// from any node's formula.
type ContextStore struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewContextStore creates an empty ContextStore.
func NewContextStore() *ContextStore {
	return &ContextStore{
		values: make(map[string]string),
	}
}

// Set stores a value under the given key, replacing any existing value.
func (c *ContextStore) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Get retrieves a value by key. The second return value reports whether
// the key was present.
func (c *ContextStore) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Remove deletes a key and reports whether it was present.
func (c *ContextStore) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	delete(c.values, key)
	return ok
}

// Keys returns all keys in sorted order.
func (c *ContextStore) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of all values.
func (c *ContextStore) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Len returns the number of stored keys.
func (c *ContextStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}
