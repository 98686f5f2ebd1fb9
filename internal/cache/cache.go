// Package cache holds the read-through profile cache that sits in front of
// the user store. The auth middleware resolves bearer identities through it;
// every profile or credential mutation must delete the entry before the
// mutating call reports success.
package cache

import (
	"strings"
	"sync"

	"pulsewatch.io/sentiment-api/internal/store"
)

// ProfileCache is the contract a key-value profile cache must satisfy.
// Delete returns an error so a failed invalidation can be surfaced instead
// of silently serving stale profiles.
type ProfileCache interface {
	Get(key string) (*store.User, bool)
	Set(key string, user *store.User)
	Delete(key string) error
}

// ProfileKey derives the cache key for a user from their email. The email
// is lower-cased so the key is stable across credential spellings.
func ProfileKey(email string) string {
	return "user:" + strings.ToLower(email)
}

// MemoryCache is an in-process ProfileCache. It holds copies, not shared
// pointers, so a caller mutating a returned User cannot poison the cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]store.User
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]store.User)}
}

func (c *MemoryCache) Get(key string) (*store.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	copied := u
	return &copied, true
}

func (c *MemoryCache) Set(key string, user *store.User) {
	if user == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = *user
}

func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
