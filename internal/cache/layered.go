package cache

import (
	"errors"
	"time"
)

// LayeredCache puts a memory layer in front of a persistent one
type LayeredCache struct {
	memory     Cache
	persistent Cache
}

// NewLayeredCache creates a layered cache
func NewLayeredCache(memory, persistent Cache) *LayeredCache {
	return &LayeredCache{memory: memory, persistent: persistent}
}

// Get checks memory first, then the persistent layer, promoting hits
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}
	if val, found := c.persistent.Get(key); found {
		_ = c.memory.Set(key, val, 0)
		return val, true
	}
	return nil, false
}

// Set writes the persistent layer first, then memory
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.persistent.Set(key, value, ttl); err != nil {
		return err
	}
	return c.memory.Set(key, value, ttl)
}

// Delete removes a value from both layers
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.persistent.Delete(key))
}

// Clear removes all values from both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.persistent.Clear())
}

// Close closes both layers
func (c *LayeredCache) Close() error {
	return errors.Join(c.memory.Close(), c.persistent.Close())
}
