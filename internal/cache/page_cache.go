// Package cache provides in-memory caching of rendered HTML pages.
package cache

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// CachedPage holds one rendered HTML response
type CachedPage struct {
	Body        []byte
	ContentType string
	CreatedAt   time.Time
	LastUsed    time.Time
	Size        int64
}

// PageCache provides short-lived caching of fully rendered pages.
// Keys include the request path and query so each page variant is
// cached separately.
type PageCache struct {
	cache       map[string]*CachedPage
	mutex       sync.RWMutex
	maxEntries  int           // Maximum number of cached pages
	maxAge      time.Duration // Maximum age of entries
	cleanupTick time.Duration // How often to run cleanup
	stopCleanup chan bool
	cachedSize  int64        // Size of the cache in bytes
	countermux  sync.RWMutex // Mutex for counters
	hits        int64        // Cache hit counter
	misses      int64        // Cache miss counter
}

// NewPageCache creates a new page cache with specified limits
func NewPageCache(maxEntries int, maxAge time.Duration) *PageCache {
	pc := &PageCache{
		cache:       make(map[string]*CachedPage),
		maxEntries:  maxEntries,
		maxAge:      maxAge,
		cleanupTick: time.Minute,
		stopCleanup: make(chan bool),
	}

	// Start cleanup goroutine
	go pc.cleanup()

	return pc
}

// Get retrieves a cached page by key
func (pc *PageCache) Get(key string) (*CachedPage, bool) {
	pc.mutex.RLock()
	entry, exists := pc.cache[key]
	pc.mutex.RUnlock()

	if !exists {
		pc.countermux.Lock()
		pc.misses++
		pc.countermux.Unlock()
		return nil, false
	}

	// Check if entry is expired
	if time.Since(entry.CreatedAt) > pc.maxAge {
		pc.Remove(key)
		pc.countermux.Lock()
		pc.misses++
		pc.countermux.Unlock()
		return nil, false
	}

	pc.countermux.Lock()
	pc.hits++
	pc.countermux.Unlock()

	pc.mutex.Lock()
	entry.LastUsed = time.Now()
	pc.mutex.Unlock()

	return entry, true
}

// Set stores a rendered page in the cache
func (pc *PageCache) Set(key string, body []byte, contentType string) {
	entry := &CachedPage{
		Body:        body,
		ContentType: contentType,
		CreatedAt:   time.Now(),
		LastUsed:    time.Now(),
		Size:        int64(len(body) + len(contentType) + len(key) + 100),
	}

	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	// Remove old entry if it exists
	if oldEntry, exists := pc.cache[key]; exists {
		pc.updateCachedSize(-oldEntry.Size)
	}

	pc.cache[key] = entry
	pc.updateCachedSize(entry.Size)

	pc.evictIfNeeded()
}

// Remove removes a specific cache entry
func (pc *PageCache) Remove(key string) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	if entry, exists := pc.cache[key]; exists {
		pc.updateCachedSize(-entry.Size)
		delete(pc.cache, key)
	}
}

// Clear removes all cache entries
func (pc *PageCache) Clear() {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	count := len(pc.cache)
	pc.cache = make(map[string]*CachedPage)
	pc.updateCachedSize(-pc.getCachedSize())

	log.Printf("PageCache: Cleared all cache entries (%d entries)", count)
}

// evictIfNeeded removes the least recently used entries when over capacity
// (must be called with mutex held)
func (pc *PageCache) evictIfNeeded() {
	for len(pc.cache) > pc.maxEntries {
		var oldestKey string
		var oldestTime time.Time
		first := true

		for key, entry := range pc.cache {
			if first || entry.LastUsed.Before(oldestTime) {
				oldestKey = key
				oldestTime = entry.LastUsed
				first = false
			}
		}

		if entry, exists := pc.cache[oldestKey]; exists {
			pc.updateCachedSize(-entry.Size)
			delete(pc.cache, oldestKey)
		}
	}
}

// cleanup periodically removes expired entries
func (pc *PageCache) cleanup() {
	ticker := time.NewTicker(pc.cleanupTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pc.removeExpired()
		case <-pc.stopCleanup:
			return
		}
	}
}

// removeExpired removes all expired entries
func (pc *PageCache) removeExpired() {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	now := time.Now()
	for key, entry := range pc.cache {
		if now.Sub(entry.CreatedAt) > pc.maxAge {
			pc.updateCachedSize(-entry.Size)
			delete(pc.cache, key)
		}
	}
}

// Stop terminates the cleanup goroutine
func (pc *PageCache) Stop() {
	close(pc.stopCleanup)
}

// GetStats returns cache statistics
func (pc *PageCache) GetStats() map[string]interface{} {
	pc.mutex.RLock()
	entryCount := len(pc.cache)
	pc.mutex.RUnlock()

	pc.countermux.RLock()
	hits := pc.hits
	misses := pc.misses
	pc.countermux.RUnlock()

	totalRequests := hits + misses
	hitRate := 0.0
	if totalRequests > 0 {
		hitRate = float64(hits) / float64(totalRequests) * 100
	}

	return map[string]interface{}{
		"entries":     entryCount,
		"max_entries": pc.maxEntries,
		"size_bytes":  pc.GetCachedSize(),
		"size_human":  pc.GetCachedSizeHuman(),
		"max_age":     pc.maxAge.String(),
		"hits":        hits,
		"misses":      misses,
		"hit_rate":    hitRate,
	}
}

// GetCachedSize returns the current cache size in bytes
func (pc *PageCache) GetCachedSize() int64 {
	pc.countermux.RLock()
	defer pc.countermux.RUnlock()
	return pc.cachedSize
}

// GetCachedSizeHuman returns human-readable cache size
func (pc *PageCache) GetCachedSizeHuman() string {
	size := pc.GetCachedSize()
	if size < 1024 {
		return fmt.Sprintf("%d bytes", size)
	}
	if size < 1024*1024 {
		return fmt.Sprintf("%.2f KB", float64(size)/1024.0)
	}
	return fmt.Sprintf("%.2f MB", float64(size)/(1024.0*1024.0))
}

// getCachedSize returns cached size without lock (must be called with lock held)
func (pc *PageCache) getCachedSize() int64 {
	pc.countermux.RLock()
	defer pc.countermux.RUnlock()
	return pc.cachedSize
}

// updateCachedSize updates the cached size counter (thread-safe)
func (pc *PageCache) updateCachedSize(delta int64) {
	pc.countermux.Lock()
	pc.cachedSize += delta
	if pc.cachedSize < 0 {
		pc.cachedSize = 0
	}
	pc.countermux.Unlock()
}
