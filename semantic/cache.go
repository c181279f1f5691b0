package semantic

import "sync"

// Cache is the in-memory vector cache keyed by exact document text.
// Entries are never replaced once set; Reset empties it.
type Cache struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{vectors: make(map[string][]float32)}
}

// Get returns the vector cached for text.
func (c *Cache) Get(text string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vectors[text]
	return v, ok
}

// Put stores vec under text unless an entry already exists.
// It reports whether the entry was added.
func (c *Cache) Put(text string, vec []float32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.vectors[text]; ok {
		return false
	}
	c.vectors[text] = vec
	return true
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors = make(map[string][]float32)
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}
