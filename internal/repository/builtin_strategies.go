package repository

import (
	"context"
	"sync"
	"time"

	"TraderGenie/internal/domain/models"
)

var builtinCreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func cond(k models.IndicatorKey, op models.Operator, v models.ConditionValue) models.Condition {
	return models.Condition{Indicator: k, Operator: op, Value: v}
}

// builtinDefinitions is the static strategy table. Entries are never mutated;
// BuiltinStore hands out clones.
var builtinDefinitions = []models.Strategy{
	{
		ID:          "trend-continuation",
		Name:        "Trend Continuation",
		Description: "Joins an established up-move while price holds above its trend line on rising volume.",
		Type:        models.StrategyTrend,
		Timeframes:  []string{"1h", "4h"},
		EntryRules: models.RuleSet{Logic: models.LogicAnd, Conditions: []models.Condition{
			cond(models.IndPriceChange24h, models.OpGT, models.Number(0)),
			cond(models.IndPriceAboveEMA, models.OpEQ, models.Flag(true)),
			cond(models.IndVolumeTrend, models.OpGT, models.Number(1.0)),
		}},
		ExitRules: &models.RuleSet{Logic: models.LogicOr, Conditions: []models.Condition{
			cond(models.IndPriceAboveEMA, models.OpEQ, models.Flag(false)),
			cond(models.IndRSIOverbought, models.OpEQ, models.Flag(true)),
		}},
		RiskParams: models.RiskParams{RiskPercent: 1, RewardRatio: 2},
		Filters:    models.Filters{MinMarketCap: 100_000_000, MinVolume: 1_000_000},
	},
	{
		ID:          "mean-reversion",
		Name:        "Mean Reversion",
		Description: "Fades an oversold flush near the bottom of the daily range.",
		Type:        models.StrategyReversal,
		Timeframes:  []string{"1h"},
		EntryRules: models.RuleSet{Logic: models.LogicAnd, Conditions: []models.Condition{
			cond(models.IndRSIEstimate, models.OpLT, models.Number(30)),
			cond(models.IndPricePosition, models.OpLTE, models.Number(0.2)),
			cond(models.IndVolumeRatio, models.OpGTE, models.Number(1.0)),
		}},
		ExitRules: &models.RuleSet{Logic: models.LogicOr, Conditions: []models.Condition{
			cond(models.IndRSIEstimate, models.OpGT, models.Number(55)),
		}},
		RiskParams: models.RiskParams{RiskPercent: 1, RewardRatio: 1.5},
		Filters:    models.Filters{MinMarketCap: 500_000_000},
	},
	{
		ID:          "breakout-retest",
		Name:        "Breakout Retest",
		Description: "Buys strength pressing the top of the range after a measured daily move.",
		Type:        models.StrategyBreakout,
		Timeframes:  []string{"4h"},
		EntryRules: models.RuleSet{Logic: models.LogicAnd, Conditions: []models.Condition{
			cond(models.IndPricePosition, models.OpGTE, models.Number(0.85)),
			cond(models.IndPriceChange24h, models.OpBetween, models.Range(3, 15)),
			cond(models.IndVolumeRatio, models.OpGTE, models.Number(1.0)),
		}},
		RiskParams: models.RiskParams{RiskPercent: 1.5, RewardRatio: 2.5},
		Filters:    models.Filters{MinVolume: 5_000_000},
	},
	{
		ID:          "meme-pump-short",
		Name:        "Meme Coin Pump Short",
		Description: "Shorts small caps that pumped hard and are stalling on an overbought reading.",
		Type:        models.StrategyMemeShort,
		Timeframes:  []string{"15m", "1h"},
		EntryRules: models.RuleSet{Logic: models.LogicAnd, Conditions: []models.Condition{
			cond(models.IndPriceChange24h, models.OpGT, models.Number(30)),
			cond(models.IndRSIOverbought, models.OpEQ, models.Flag(true)),
			cond(models.IndPriceStall, models.OpEQ, models.Flag(true)),
		}},
		RiskParams: models.RiskParams{RiskPercent: 0.5, RewardRatio: 2},
		Filters:    models.Filters{MaxMarketCap: 5_000_000_000},
	},
	{
		ID:          "volume-breakout",
		Name:        "Volume Breakout",
		Description: "Takes any asset showing both an upper-range close and above-average volume.",
		Type:        models.StrategyBreakout,
		Timeframes:  []string{"1h"},
		EntryRules: models.RuleSet{Logic: models.LogicOr, Conditions: []models.Condition{
			cond(models.IndVolumeSpike, models.OpEQ, models.Flag(true)),
			cond(models.IndVolumeRevival, models.OpEQ, models.Flag(true)),
			cond(models.IndPriceNearHigh, models.OpEQ, models.Flag(true)),
		}},
		RiskParams: models.RiskParams{RiskPercent: 1, RewardRatio: 2},
		Filters:    models.Filters{MinVolume: 10_000_000},
	},
}

// BuiltinStore serves the static table. Active flags live in the store,
// guarded by its lock, never in the shared definitions.
type BuiltinStore struct {
	mu     sync.RWMutex
	order  []string
	defs   map[string]models.Strategy
	active map[string]bool
}

func NewBuiltinStore() *BuiltinStore {
	s := &BuiltinStore{
		order:  make([]string, 0, len(builtinDefinitions)),
		defs:   make(map[string]models.Strategy, len(builtinDefinitions)),
		active: make(map[string]bool, len(builtinDefinitions)),
	}
	for _, d := range builtinDefinitions {
		d = d.Clone()
		d.IsBuiltin = true
		d.CreatedAt = builtinCreatedAt
		s.order = append(s.order, d.ID)
		s.defs[d.ID] = d
		s.active[d.ID] = true
	}
	return s
}

func (s *BuiltinStore) List(_ context.Context) []models.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Strategy, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.snapshot(id))
	}
	return out
}

func (s *BuiltinStore) Get(_ context.Context, id string) (models.Strategy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.defs[id]; !ok {
		return models.Strategy{}, false
	}
	return s.snapshot(id), true
}

func (s *BuiltinStore) Has(id string) bool {
	s.mu.RLock()
	_, ok := s.defs[id]
	s.mu.RUnlock()
	return ok
}

func (s *BuiltinStore) SetActive(_ context.Context, id string, active bool) (models.Strategy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defs[id]; !ok {
		return models.Strategy{}, false
	}
	s.active[id] = active
	return s.snapshot(id), true
}

// snapshot must be called with the lock held.
func (s *BuiltinStore) snapshot(id string) models.Strategy {
	out := s.defs[id].Clone()
	out.IsActive = s.active[id]
	return out
}
