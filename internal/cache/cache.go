// Package cache provides thread-safe generic caching plus the process-wide
// caches for static hashes, syntax CSS and rendered previews.
package cache

import "sync"

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

// GetOrSet returns the value for key, creating it with create if absent.
// create runs under the write lock so it is called at most once per key.
func (c *Cache[K, V]) GetOrSet(key K, create func() V) V {
	if val, ok := c.Get(key); ok {
		return val
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if val, ok := c.items[key]; ok {
		return val
	}
	val := create()
	c.items[key] = val
	return val
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// DeleteFunc removes every entry for which del returns true and returns
// the number removed.
func (c *Cache[K, V]) DeleteFunc(del func(K, V) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, v := range c.items {
		if del(k, v) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V)
}

// RenderedPreview is a cached markdown preview.
type RenderedPreview struct {
	HTML  []byte
	Title string
}

var renderedPreviewCache = NewCache[string, *RenderedPreview]()

func GetRenderedPreview(contentHash, syntaxTheme string) (*RenderedPreview, bool) {
	return renderedPreviewCache.Get(contentHash + ":" + syntaxTheme)
}

func SetRenderedPreview(contentHash, syntaxTheme string, preview *RenderedPreview) {
	renderedPreviewCache.Set(contentHash+":"+syntaxTheme, preview)
}

func ClearRenderedPreviewCache() {
	renderedPreviewCache.Clear()
}
