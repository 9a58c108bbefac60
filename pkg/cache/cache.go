// Package cache provides the short-lived in-process cache used in front
// of the live market API.
package cache

import "time"

// Cache is a TTL cache keyed by string. Implementations may reject a Set
// (admission policy), so callers must treat every Get as optional.
type Cache interface {
	Get(key string) (interface{}, bool)

	// Set stores a value with a TTL. Returns false if the value was dropped.
	Set(key string, value interface{}, ttl time.Duration) bool

	Delete(key string)
	Clear()

	// Wait blocks until buffered writes are visible to Get.
	Wait()

	Close()
}
