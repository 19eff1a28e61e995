// ABOUTME: Thread-safe TTL cache for remote token verification results
// ABOUTME: Keeps hot tokens from hammering the auth service on every request

package auth

import (
	"container/list"
	"sync"
	"time"
)

// cacheEntry stores the vouched user ID, timestamp, and list element for a
// cached token.
type cacheEntry struct {
	userID    string
	timestamp time.Time
	element   *list.Element
}

// TokenCache is a thread-safe, TTL-based, size-limited cache of positive
// remote verification results. Only successes are cached: rejections and
// outages must be re-checked on every request. The TTL bounds how long a
// token revoked at the authority keeps working here, so keep it short.
// Uses a doubly-linked list to maintain insertion order for O(1) eviction.
type TokenCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   *list.List // tokens in insertion order, oldest at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// NewTokenCache creates a cache with the given TTL and maximum size.
// A background goroutine periodically cleans up expired entries.
func NewTokenCache(ttl time.Duration, maxSize int) *TokenCache {
	c := &TokenCache{
		entries: make(map[string]*cacheEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Get returns the cached user ID for the token, if present and fresh.
func (c *TokenCache) Get(token string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[token]
	if !ok || time.Since(entry.timestamp) >= c.ttl {
		return "", false
	}
	return entry.userID, true
}

// Put records a verified token. If the cache is at capacity, the oldest
// entry is evicted to make room.
func (c *TokenCache) Put(token, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	// Refresh an existing entry in place
	if entry, exists := c.entries[token]; exists {
		entry.userID = userID
		entry.timestamp = now
		c.order.MoveToBack(entry.element)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(token)
	c.entries[token] = &cacheEntry{
		userID:    userID,
		timestamp: now,
		element:   elem,
	}
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (c *TokenCache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	token, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.entries, token)
}

// cleanup runs in a background goroutine, periodically removing expired
// entries.
func (c *TokenCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup removes all expired entries from the cache.
func (c *TokenCache) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for token, entry := range c.entries {
		if now.Sub(entry.timestamp) > c.ttl {
			c.order.Remove(entry.element)
			delete(c.entries, token)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call
// multiple times.
func (c *TokenCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
