package idempotency

import (
	"context"
	"errors"
	"time"
)

var ErrNotReserved = errors.New("idempotency: key not reserved")

// Record is what is remembered for one Idempotency-Key.
type Record struct {
	RequestHash string `json:"requestHash"`
	Completed   bool   `json:"completed"`
	StatusCode  int    `json:"statusCode,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Store remembers responses by key for TTL.
type Store interface {
	// Reserve claims key for a request with the given body hash. When the key
	// is already held it returns the existing record and false.
	Reserve(ctx context.Context, key, requestHash string) (*Record, bool, error)
	// Complete stores the final response for a reserved key.
	Complete(ctx context.Context, key string, rec Record) error
	// Release forgets the key so the request can be retried.
	Release(ctx context.Context, key string) error
}

func recordKey(key string) string {
	return "idem:" + key
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 24 * time.Hour
	}
	return ttl
}
