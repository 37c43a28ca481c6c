package idempotency

import (
	"context"
	"time"

	"nutrastore-backend/pkg/cache"
)

// MemoryStore keeps records in the process cache. It is used when no Redis
// is configured and only deduplicates within one instance.
type MemoryStore struct {
	cache cache.CacheService
	ttl   time.Duration
}

func NewMemoryStore(c cache.CacheService, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: c, ttl: ttlOrDefault(ttl)}
}

func (s *MemoryStore) Reserve(_ context.Context, key, requestHash string) (*Record, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if s.cache.Add(recordKey(key), Record{RequestHash: requestHash}, s.ttl) {
			return nil, true, nil
		}
		if v, ok := s.cache.Get(recordKey(key)); ok {
			rec := v.(Record)
			return &rec, false, nil
		}
	}
	return nil, false, ErrNotReserved
}

func (s *MemoryStore) Complete(_ context.Context, key string, rec Record) error {
	rec.Completed = true
	s.cache.Set(recordKey(key), rec, s.ttl)
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.cache.Delete(recordKey(key))
	return nil
}
