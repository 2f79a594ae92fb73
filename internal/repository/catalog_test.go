package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TraderGenie/internal/domain/models"
	domainrepo "TraderGenie/internal/domain/repository"
	"TraderGenie/internal/engine"
)

func userStrategy(id string) models.Strategy {
	return models.Strategy{
		ID:   id,
		Name: "RSI dip",
		Type: models.StrategyCustom,
		EntryRules: models.RuleSet{Logic: models.LogicAnd, Conditions: []models.Condition{
			{Indicator: models.IndRSIEstimate, Operator: models.OpLT, Value: models.Number(35)},
		}},
		RiskParams: models.RiskParams{RiskPercent: 1, RewardRatio: 2},
		IsActive:   true,
	}
}

func TestBuiltinStore_Definitions(t *testing.T) {
	s := NewBuiltinStore()
	list := s.List(context.Background())

	ids := make([]string, len(list))
	for i, st := range list {
		ids[i] = st.ID
		assert.True(t, st.IsBuiltin)
		assert.True(t, st.IsActive)
		require.NoError(t, ValidateStrategy(st), st.ID)
	}
	assert.Equal(t, []string{"trend-continuation", "mean-reversion", "breakout-retest", "meme-pump-short", "volume-breakout"}, ids)

	meme, ok := s.Get(context.Background(), "meme-pump-short")
	require.True(t, ok)
	assert.Equal(t, models.StrategyMemeShort, meme.Type)
	assert.Equal(t, "Meme Coin Pump Short", meme.Name)
}

func TestBuiltinStore_ReturnsCopies(t *testing.T) {
	s := NewBuiltinStore()
	ctx := context.Background()

	got, _ := s.Get(ctx, "trend-continuation")
	got.EntryRules.Conditions[0].Value = models.Number(999)
	got.Timeframes[0] = "1d"

	again, _ := s.Get(ctx, "trend-continuation")
	assert.Equal(t, 0.0, again.EntryRules.Conditions[0].Value.Num)
	assert.Equal(t, "1h", again.Timeframes[0])
}

func TestBuiltinStore_ConcurrentToggle(t *testing.T) {
	s := NewBuiltinStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(on bool) {
			defer wg.Done()
			s.SetActive(ctx, "mean-reversion", on)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			_ = s.List(ctx)
		}()
	}
	wg.Wait()

	st, ok := s.SetActive(ctx, "mean-reversion", false)
	require.True(t, ok)
	assert.False(t, st.IsActive)
}

func TestCatalog_ListAndToggle(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(NewBuiltinStore(), NewMemoryStrategyStore())

	_, err := c.Create(ctx, userStrategy("zz-user"))
	require.NoError(t, err)
	_, err = c.Create(ctx, userStrategy("aa-user"))
	require.NoError(t, err)

	all, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 7)
	assert.Equal(t, "trend-continuation", all[0].ID)
	assert.Equal(t, "aa-user", all[5].ID)
	assert.Equal(t, "zz-user", all[6].ID)

	_, err = c.SetActive(ctx, "trend-continuation", false)
	require.NoError(t, err)
	_, err = c.SetActive(ctx, "zz-user", false)
	require.NoError(t, err)

	active, err := c.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 5)
	for _, s := range active {
		assert.NotEqual(t, "trend-continuation", s.ID)
		assert.NotEqual(t, "zz-user", s.ID)
	}

	got, err := c.Get(ctx, "zz-user")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestCatalog_Create(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(NewBuiltinStore(), NewMemoryStrategyStore())

	created, err := c.Create(ctx, userStrategy(""))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.IsBuiltin)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, []string{"1h"}, created.Timeframes)

	_, err = c.Create(ctx, userStrategy(created.ID))
	assert.ErrorIs(t, err, domainrepo.ErrStrategyIDTaken)

	_, err = c.Create(ctx, userStrategy("trend-continuation"))
	assert.ErrorIs(t, err, domainrepo.ErrStrategyIDTaken)

	bad := userStrategy("bad")
	bad.EntryRules.Conditions[0].Operator = "between"
	_, err = c.Create(ctx, bad)
	assert.ErrorIs(t, err, domainrepo.ErrInvalidStrategy)
	assert.ErrorIs(t, err, engine.ErrMalformedCondition)

	bad = userStrategy("bad-type")
	bad.Type = "scalp"
	_, err = c.Create(ctx, bad)
	assert.ErrorIs(t, err, domainrepo.ErrInvalidStrategy)
}

func TestCatalog_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(NewBuiltinStore(), NewMemoryStrategyStore())

	assert.ErrorIs(t, c.Delete(ctx, "meme-pump-short"), domainrepo.ErrBuiltinImmutable)
	assert.ErrorIs(t, c.Delete(ctx, "nope"), domainrepo.ErrStrategyNotFound)

	_, err := c.Create(ctx, userStrategy("mine"))
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, "mine"))

	_, err = c.Get(ctx, "mine")
	assert.ErrorIs(t, err, domainrepo.ErrStrategyNotFound)
	_, err = c.SetActive(ctx, "mine", true)
	assert.ErrorIs(t, err, domainrepo.ErrStrategyNotFound)
}
