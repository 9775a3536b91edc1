package utils

import (
	"sync"
	"time"

	"gridDashboard/internal/models"
)

// CacheEntry represents a cached value with expiration
type CacheEntry struct {
	Value     interface{}
	ExpiresAt time.Time
}

// IsExpired checks if the cache entry has expired
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Cache represents an in-memory cache with TTL support
type Cache struct {
	data       map[string]*CacheEntry
	mutex      sync.RWMutex
	defaultTTL time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewCache creates a new in-memory cache. Call Close to stop the janitor.
func NewCache(defaultTTL time.Duration) *Cache {
	cache := &Cache{
		data:       make(map[string]*CacheEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go cache.cleanupExpired(5 * time.Minute)

	return cache
}

// Get retrieves a value from the cache
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	entry, exists := c.data[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	if entry.IsExpired(c.now()) {
		c.Delete(key)
		return nil, false
	}

	return entry.Value, true
}

// Set stores a value in the cache with default TTL
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value in the cache with custom TTL
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = &CacheEntry{
		Value:     value,
		ExpiresAt: c.now().Add(ttl),
	}
}

// Delete removes a value from the cache
func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
}

// Clear removes all entries from the cache
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]*CacheEntry)
}

// Size returns the number of items in the cache
func (c *Cache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.data)
}

// Close stops the cleanup goroutine
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanupExpired removes expired entries from the cache
func (c *Cache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mutex.Lock()
			now := c.now()
			for key, entry := range c.data {
				if entry.IsExpired(now) {
					delete(c.data, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}

// ViewListCache keeps the saved views of each grid so the views endpoint
// does not hit the database on every page load.
type ViewListCache struct {
	cache *Cache
}

// NewViewListCache creates a view list cache
func NewViewListCache(ttl time.Duration) *ViewListCache {
	return &ViewListCache{
		cache: NewCache(ttl),
	}
}

func viewListKey(gridKey string) string {
	return "views:" + gridKey
}

// Get returns a copy of the cached list for a grid
func (vc *ViewListCache) Get(gridKey string) ([]models.ViewRecord, bool) {
	value, exists := vc.cache.Get(viewListKey(gridKey))
	if !exists {
		return nil, false
	}

	list, ok := value.([]models.ViewRecord)
	if !ok {
		return nil, false
	}
	return append([]models.ViewRecord{}, list...), true
}

// Set caches the list for a grid
func (vc *ViewListCache) Set(gridKey string, list []models.ViewRecord) {
	vc.cache.Set(viewListKey(gridKey), append([]models.ViewRecord{}, list...))
}

// Invalidate drops the cached list of one grid
func (vc *ViewListCache) Invalidate(gridKey string) {
	vc.cache.Delete(viewListKey(gridKey))
}

// Clear drops every cached list
func (vc *ViewListCache) Clear() {
	vc.cache.Clear()
}

// Close stops the underlying cache
func (vc *ViewListCache) Close() {
	vc.cache.Close()
}
