// Package tokencache holds short-lived provider access tokens in memory.
package tokencache

import (
	"sync"
	"time"
)

// MinRemaining is how long a cached token must still be valid to be handed out.
const MinRemaining = 5 * time.Second

type entry struct {
	token     string
	expiresAt time.Time
}

// Cache is a concurrency-safe token cache keyed by provider account.
type Cache struct {
	mu   sync.RWMutex
	m    map[string]entry
	nowF func() time.Time
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		m:    make(map[string]entry),
		nowF: time.Now,
	}
}

// Put stores token for key until expiresAt.
func (c *Cache) Put(key, token string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = entry{token: token, expiresAt: expiresAt}
}

// Get returns the token for key if it stays valid for at least MinRemaining.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(c.nowF().Add(MinRemaining)) {
		c.mu.Lock()
		if cur, ok := c.m[key]; ok && cur == e {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return e.token, true
}

// Delete drops key, e.g. after the provider rejected the token.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}
