package rulecache

import "sync"

// MemoryCache is a simple in-memory cache for rule tables.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string][]byte)}
}

// Get retrieves a cached value by key
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// Set stores a copy of value in the cache
func (c *MemoryCache) Set(key string, value []byte) {
	v := make([]byte, len(value))
	copy(v, value)
	c.mu.Lock()
	c.data[key] = v
	c.mu.Unlock()
}

// Len returns the number of stored entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
