package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TraderGenie/pkg/cache"
)

// Store holds cache entries keyed by request signature. Stores never drop
// an entry because it is past its TTL; freshness is decided by the gateway.
type Store interface {
	Load(ctx context.Context, sig string) (Entry, bool, error)
	Save(ctx context.Context, sig string, e Entry) error
}

// MemoryStore is the in-process store.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]Entry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]Entry)}
}

func (s *MemoryStore) Load(_ context.Context, sig string) (Entry, bool, error) {
	s.mu.RLock()
	e, ok := s.m[sig]
	s.mu.RUnlock()
	return e, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, sig string, e Entry) error {
	s.mu.Lock()
	s.m[sig] = e
	s.mu.Unlock()
	return nil
}

// Len reports the number of cached signatures.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// RedisStore shares entries between replicas. Keys expire after retention,
// which should be well past the longest TTL so stale serves stay possible.
type RedisStore struct {
	cache     cache.Service
	retention time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(c cache.Service, retention time.Duration) *RedisStore {
	return &RedisStore{cache: c, retention: retention}
}

func (s *RedisStore) Load(ctx context.Context, sig string) (Entry, bool, error) {
	var e Entry
	if err := s.cache.Get(ctx, redisKey(sig), &e); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("redis load: %w", err)
	}
	return e, true, nil
}

func (s *RedisStore) Save(ctx context.Context, sig string, e Entry) error {
	if err := s.cache.Set(ctx, redisKey(sig), e, s.retention); err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

func redisKey(sig string) string {
	return cache.GenerateKey("upstream", cache.HashKey(sig))
}

// LayeredStore reads the local tier first and falls back to the shared one.
// Writes go to the shared tier first, then locally.
type LayeredStore struct {
	local  Store
	shared Store
}

var _ Store = (*LayeredStore)(nil)

func NewLayeredStore(local, shared Store) *LayeredStore {
	return &LayeredStore{local: local, shared: shared}
}

func (s *LayeredStore) Load(ctx context.Context, sig string) (Entry, bool, error) {
	if e, ok, _ := s.local.Load(ctx, sig); ok {
		return e, true, nil
	}
	e, ok, err := s.shared.Load(ctx, sig)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	_ = s.local.Save(ctx, sig, e)
	return e, true, nil
}

func (s *LayeredStore) Save(ctx context.Context, sig string, e Entry) error {
	err := s.shared.Save(ctx, sig, e)
	_ = s.local.Save(ctx, sig, e)
	return err
}
