package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"

	"TraderGenie/internal/domain/models"
	domainrepo "TraderGenie/internal/domain/repository"
	"TraderGenie/pkg/cache"
)

// UserStrategyStore persists user-authored strategies.
type UserStrategyStore interface {
	List(ctx context.Context) ([]models.Strategy, error)
	Get(ctx context.Context, id string) (models.Strategy, error)
	// Create fails with ErrStrategyIDTaken when id is in use.
	Create(ctx context.Context, s models.Strategy) error
	// SetActive flips is_active on an existing strategy in one step; it never
	// recreates a strategy deleted concurrently.
	SetActive(ctx context.Context, id string, active bool) (models.Strategy, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStrategyStore keeps user strategies in process.
type MemoryStrategyStore struct {
	mu sync.RWMutex
	m  map[string]models.Strategy
}

var _ UserStrategyStore = (*MemoryStrategyStore)(nil)

func NewMemoryStrategyStore() *MemoryStrategyStore {
	return &MemoryStrategyStore{m: make(map[string]models.Strategy)}
}

func (s *MemoryStrategyStore) List(_ context.Context) ([]models.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Strategy, 0, len(s.m))
	for _, v := range s.m {
		out = append(out, v.Clone())
	}
	sortByID(out)
	return out, nil
}

func (s *MemoryStrategyStore) Get(_ context.Context, id string) (models.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[id]
	if !ok {
		return models.Strategy{}, domainrepo.ErrStrategyNotFound
	}
	return v.Clone(), nil
}

func (s *MemoryStrategyStore) Create(_ context.Context, st models.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[st.ID]; ok {
		return domainrepo.ErrStrategyIDTaken
	}
	s.m[st.ID] = st.Clone()
	return nil
}

func (s *MemoryStrategyStore) SetActive(_ context.Context, id string, active bool) (models.Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[id]
	if !ok {
		return models.Strategy{}, domainrepo.ErrStrategyNotFound
	}
	v.IsActive = active
	s.m[id] = v
	return v.Clone(), nil
}

func (s *MemoryStrategyStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return domainrepo.ErrStrategyNotFound
	}
	delete(s.m, id)
	return nil
}

// RedisStrategyStore keeps user strategies as JSON in one hash,
// <prefix>:strategies, field = strategy id.
type RedisStrategyStore struct {
	client redis.UniversalClient
	key    string
}

var _ UserStrategyStore = (*RedisStrategyStore)(nil)

func NewRedisStrategyStore(c *cache.RedisCache) *RedisStrategyStore {
	return &RedisStrategyStore{
		client: c.Client(),
		key:    cache.GenerateKey(c.Prefix(), "strategies"),
	}
}

func (s *RedisStrategyStore) List(ctx context.Context) ([]models.Strategy, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	out := make([]models.Strategy, 0, len(raw))
	for id, v := range raw {
		var st models.Strategy
		if err := json.Unmarshal([]byte(v), &st); err != nil {
			return nil, fmt.Errorf("decode strategy %s: %w", id, err)
		}
		out = append(out, st)
	}
	sortByID(out)
	return out, nil
}

func (s *RedisStrategyStore) Get(ctx context.Context, id string) (models.Strategy, error) {
	v, err := s.client.HGet(ctx, s.key, id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Strategy{}, domainrepo.ErrStrategyNotFound
		}
		return models.Strategy{}, fmt.Errorf("get strategy: %w", err)
	}
	var st models.Strategy
	if err := json.Unmarshal([]byte(v), &st); err != nil {
		return models.Strategy{}, fmt.Errorf("decode strategy %s: %w", id, err)
	}
	return st, nil
}

func (s *RedisStrategyStore) Create(ctx context.Context, st models.Strategy) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	ok, err := s.client.HSetNX(ctx, s.key, st.ID, data).Result()
	if err != nil {
		return fmt.Errorf("create strategy: %w", err)
	}
	if !ok {
		return domainrepo.ErrStrategyIDTaken
	}
	return nil
}

// swapStrategyScript replaces field ARGV[1] with ARGV[3] only while it still
// holds ARGV[2]. Returns 1 on swap, 0 when the field is gone, -1 when it changed.
var swapStrategyScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if not cur then
	return 0
end
if cur ~= ARGV[2] then
	return -1
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
return 1
`)

const swapAttempts = 3

func (s *RedisStrategyStore) SetActive(ctx context.Context, id string, active bool) (models.Strategy, error) {
	for i := 0; i < swapAttempts; i++ {
		cur, err := s.client.HGet(ctx, s.key, id).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return models.Strategy{}, domainrepo.ErrStrategyNotFound
			}
			return models.Strategy{}, fmt.Errorf("get strategy: %w", err)
		}
		var st models.Strategy
		if err := json.Unmarshal([]byte(cur), &st); err != nil {
			return models.Strategy{}, fmt.Errorf("decode strategy %s: %w", id, err)
		}
		st.IsActive = active
		data, err := json.Marshal(st)
		if err != nil {
			return models.Strategy{}, err
		}

		n, err := swapStrategyScript.Run(ctx, s.client, []string{s.key}, id, cur, string(data)).Int()
		if err != nil {
			return models.Strategy{}, fmt.Errorf("toggle strategy: %w", err)
		}
		switch n {
		case 1:
			return st, nil
		case 0:
			return models.Strategy{}, domainrepo.ErrStrategyNotFound
		}
	}
	return models.Strategy{}, fmt.Errorf("toggle strategy %s: changed concurrently %d times", id, swapAttempts)
}

func (s *RedisStrategyStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.HDel(ctx, s.key, id).Result()
	if err != nil {
		return fmt.Errorf("delete strategy: %w", err)
	}
	if n == 0 {
		return domainrepo.ErrStrategyNotFound
	}
	return nil
}

func sortByID(s []models.Strategy) {
	sort.Slice(s, func(i, j int) bool { return s[i].ID < s[j].ID })
}
