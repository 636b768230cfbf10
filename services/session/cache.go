package session

import (
	"container/list"
	"sync"
	"time"
)

// cacheEntry represents a single cache entry with TTL
type cacheEntry struct {
	session    *Session
	insertedAt time.Time
	element    *list.Element // For LRU tracking
}

func (e *cacheEntry) isExpired(ttl time.Duration) bool {
	return time.Since(e.insertedAt) > ttl
}

// Cache is an in-memory LRU cache with TTL for sessions.
// onEvict runs, with the lock held, for every session that leaves the cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry // Key: session ID
	lruList *list.List
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64
	onEvict func(*Session)
}

// NewCache creates a new Cache with specified max size and TTL
func NewCache(maxSize int, ttl time.Duration, onEvict func(*Session)) *Cache {
	if onEvict == nil {
		onEvict = func(*Session) {}
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		onEvict: onEvict,
	}
}

// Get returns the session stored under id, or nil if absent or expired
func (c *Cache) Get(id string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[id]
	if !exists || entry.isExpired(c.ttl) {
		c.misses++
		if exists {
			c.removeEntry(id)
		}
		return nil
	}

	c.lruList.MoveToFront(entry.element)
	c.hits++

	return entry.session
}

// Set stores s under s.ID, replacing and evicting any previous session with that ID
func (c *Cache) Set(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[s.ID]; exists {
		if entry.session != s {
			c.onEvict(entry.session)
		}
		entry.session = s
		entry.insertedAt = time.Now()
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &cacheEntry{
		session:    s,
		insertedAt: time.Now(),
	}
	entry.element = c.lruList.PushFront(s.ID)
	c.entries[s.ID] = entry
}

// Delete removes one session and reports whether it was present
func (c *Cache) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, exists := c.entries[id]
	c.removeEntry(id)
	return exists
}

// DeleteWhere removes every session matching fn and returns how many were removed
func (c *Cache) DeleteWhere(fn func(*Session) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, entry := range c.entries {
		if fn(entry.session) {
			c.removeEntry(id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included until cleanup
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lruList.Len()
}

// Clear removes all entries from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		c.onEvict(entry.session)
	}
	c.entries = make(map[string]*cacheEntry)
	c.lruList.Init()
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Size:    c.lruList.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: c.calculateHitRate(),
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

func (c *Cache) calculateHitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// removeEntry must be called with lock held
func (c *Cache) removeEntry(id string) {
	if entry, exists := c.entries[id]; exists {
		c.lruList.Remove(entry.element)
		delete(c.entries, id)
		c.onEvict(entry.session)
	}
}

// evictLRU must be called with lock held
func (c *Cache) evictLRU() {
	back := c.lruList.Back()
	if back == nil {
		return
	}
	c.removeEntry(back.Value.(string))
}

// CleanupExpired removes all expired entries and returns how many were removed
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	expired := make([]string, 0)
	for id, entry := range c.entries {
		if entry.isExpired(c.ttl) {
			expired = append(expired, id)
		}
	}

	for _, id := range expired {
		c.removeEntry(id)
	}

	return len(expired)
}

// StartCleanupWorker periodically removes expired entries until stopCh is closed.
// afterSweep, if set, runs after each pass.
func (c *Cache) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}, afterSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := c.CleanupExpired()
			if afterSweep != nil {
				afterSweep(removed)
			}
		case <-stopCh:
			return
		}
	}
}
