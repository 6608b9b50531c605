// Package cache is the local key-value tier: an in-memory layer over a
// persistent store on disk or in badger.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// NoExpiry keeps an entry until it is deleted
const NoExpiry time.Duration = 0

// Cache defines the interface for caching.
// A zero ttl means the entry never expires.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
	Close() error
}

// PageKey generates a cache key for a fetched page URL
func PageKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "page_v1_" + hex.EncodeToString(hash[:])
}
