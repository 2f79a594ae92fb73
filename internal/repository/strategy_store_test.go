package repository

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TraderGenie/internal/domain/models"
	domainrepo "TraderGenie/internal/domain/repository"
	"TraderGenie/pkg/cache"
)

func TestRedisStrategyStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStrategyStore(cache.NewRedisCacheFromClient(db, "tg"))
	ctx := context.Background()

	st := userStrategy("rsi-dip")
	raw, err := json.Marshal(st)
	require.NoError(t, err)

	mock.ExpectHSetNX("tg:strategies", "rsi-dip", raw).SetVal(true)
	require.NoError(t, store.Create(ctx, st))

	mock.ExpectHSetNX("tg:strategies", "rsi-dip", raw).SetVal(false)
	assert.ErrorIs(t, store.Create(ctx, st), domainrepo.ErrStrategyIDTaken)

	mock.ExpectHGet("tg:strategies", "rsi-dip").SetVal(string(raw))
	got, err := store.Get(ctx, "rsi-dip")
	require.NoError(t, err)
	assert.Equal(t, "RSI dip", got.Name)
	assert.Equal(t, 35.0, got.EntryRules.Conditions[0].Value.Num)

	mock.ExpectHGet("tg:strategies", "missing").RedisNil()
	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domainrepo.ErrStrategyNotFound)

	other := userStrategy("abc")
	otherRaw, _ := json.Marshal(other)
	mock.ExpectHGetAll("tg:strategies").SetVal(map[string]string{
		"rsi-dip": string(raw),
		"abc":     string(otherRaw),
	})
	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "abc", list[0].ID)

	mock.ExpectHDel("tg:strategies", "rsi-dip").SetVal(1)
	require.NoError(t, store.Delete(ctx, "rsi-dip"))
	mock.ExpectHDel("tg:strategies", "rsi-dip").SetVal(0)
	assert.ErrorIs(t, store.Delete(ctx, "rsi-dip"), domainrepo.ErrStrategyNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStrategyStore_Isolation(t *testing.T) {
	s := NewMemoryStrategyStore()
	ctx := context.Background()

	st := userStrategy("x")
	require.NoError(t, s.Create(ctx, st))
	st.EntryRules.Conditions[0].Value.Num = 1

	got, err := s.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 35.0, got.EntryRules.Conditions[0].Value.Num)
}

func toggled(t *testing.T, raw []byte, active bool) string {
	t.Helper()
	var st models.Strategy
	require.NoError(t, json.Unmarshal(raw, &st))
	st.IsActive = active
	out, err := json.Marshal(st)
	require.NoError(t, err)
	return string(out)
}

func TestRedisStrategyStore_SetActive(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStrategyStore(cache.NewRedisCacheFromClient(db, "tg"))
	ctx := context.Background()
	key := []string{"tg:strategies"}
	sha := swapStrategyScript.Hash()

	raw, err := json.Marshal(userStrategy("rsi-dip"))
	require.NoError(t, err)
	off := toggled(t, raw, false)

	mock.ExpectHGet("tg:strategies", "rsi-dip").SetVal(string(raw))
	mock.ExpectEvalSha(sha, key, "rsi-dip", string(raw), off).SetVal(int64(1))
	got, err := store.SetActive(ctx, "rsi-dip", false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "RSI dip", got.Name)

	// deleted between the read and the swap
	mock.ExpectHGet("tg:strategies", "rsi-dip").SetVal(string(raw))
	mock.ExpectEvalSha(sha, key, "rsi-dip", string(raw), off).SetVal(int64(0))
	_, err = store.SetActive(ctx, "rsi-dip", false)
	assert.ErrorIs(t, err, domainrepo.ErrStrategyNotFound)

	// changed underneath: re-read and swap against the new value
	renamed := userStrategy("rsi-dip")
	renamed.Name = "RSI dip v2"
	renamedRaw, err := json.Marshal(renamed)
	require.NoError(t, err)
	mock.ExpectHGet("tg:strategies", "rsi-dip").SetVal(string(raw))
	mock.ExpectEvalSha(sha, key, "rsi-dip", string(raw), off).SetVal(int64(-1))
	mock.ExpectHGet("tg:strategies", "rsi-dip").SetVal(string(renamedRaw))
	mock.ExpectEvalSha(sha, key, "rsi-dip", string(renamedRaw), toggled(t, renamedRaw, false)).SetVal(int64(1))
	got, err = store.SetActive(ctx, "rsi-dip", false)
	require.NoError(t, err)
	assert.Equal(t, "RSI dip v2", got.Name)

	mock.ExpectHGet("tg:strategies", "gone").RedisNil()
	_, err = store.SetActive(ctx, "gone", true)
	assert.ErrorIs(t, err, domainrepo.ErrStrategyNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStrategyStore_SetActiveNeverRecreates(t *testing.T) {
	s := NewMemoryStrategyStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, userStrategy("x")))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.SetActive(ctx, "x", i%2 == 0)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Delete(ctx, "x")
	}()
	wg.Wait()

	_, err := s.Get(ctx, "x")
	assert.ErrorIs(t, err, domainrepo.ErrStrategyNotFound)
	_, err = s.SetActive(ctx, "x", true)
	assert.ErrorIs(t, err, domainrepo.ErrStrategyNotFound)
}
