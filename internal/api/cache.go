package api

import (
	"sync"
	"time"

	"github.com/user/quotabar/internal/provider"
)

// Cache holds the last completed fetch snapshot for the usage endpoint so
// a dashboard polling the server does not hammer providers.
type Cache struct {
	mu        sync.RWMutex
	data      map[provider.ProviderID]provider.FetchResult
	updatedAt time.Time
	ttl       time.Duration
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

func (c *Cache) Get() (map[provider.ProviderID]provider.FetchResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil || time.Since(c.updatedAt) > c.ttl {
		return nil, false
	}
	return c.data, true
}

func (c *Cache) Set(data map[provider.ProviderID]provider.FetchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = data
	c.updatedAt = time.Now()
}
