package cache

import "time"

// CacheService is the in-process cache used for similar-product results,
// carrier auth tokens and idempotency records.
type CacheService interface {
	// Get returns the value and true when the key is present and unexpired.
	Get(key string) (interface{}, bool)

	Set(key string, value interface{}, duration time.Duration)

	// Add stores the value only when the key is absent or expired.
	// It reports false when another value already holds the key.
	Add(key string, value interface{}, duration time.Duration) bool

	Delete(key string)

	Flush()
}
