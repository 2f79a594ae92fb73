package usecase

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"TraderGenie/internal/domain/models"
	"TraderGenie/internal/engine"
	"TraderGenie/pkg/logger"
)

const (
	WarnLowVolume           = "low volume"
	WarnExtremelyOverbought = "extremely overbought"
	WarnExtremelyOversold   = "extremely oversold"
)

// ScanParams is one orchestrator pass: every asset against every strategy.
type ScanParams struct {
	Strategies    []models.Strategy
	Assets        []models.RawAssetSnapshot
	MinConfidence int
	// Limit caps the ranked output; zero or less keeps everything.
	Limit int
}

// Orchestrator turns raw snapshots into ranked signals. It holds no state
// between runs and is safe for concurrent use.
type Orchestrator struct {
	workers int
	now     func() time.Time
	newID   func() uuid.UUID
	log     *logger.Logger
}

type OrchestratorOption func(*Orchestrator)

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		workers: 8,
		now:     time.Now,
		newID:   uuid.New,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithWorkers bounds how many assets are evaluated in parallel.
func WithWorkers(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithOrchestratorClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

func WithIDGenerator(f func() uuid.UUID) OrchestratorOption {
	return func(o *Orchestrator) { o.newID = f }
}

func WithOrchestratorLogger(l *logger.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// Run evaluates every (asset, strategy) pair and returns the passing signals
// sorted by confidence, highest first. Equal confidences keep asset order,
// then strategy order.
func (o *Orchestrator) Run(p ScanParams) []models.Signal {
	perAsset := make([][]models.Signal, len(p.Assets))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for i := range p.Assets {
		i := i
		g.Go(func() error {
			perAsset[i] = o.scanAsset(p.Assets[i], p.Strategies, p.MinConfidence)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.Signal, 0)
	for _, sigs := range perAsset {
		out = append(out, sigs...)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out
}

func (o *Orchestrator) scanAsset(asset models.RawAssetSnapshot, strategies []models.Strategy, minConfidence int) []models.Signal {
	ind := engine.DeriveIndicators(asset)

	var out []models.Signal
	for i := range strategies {
		if sig, ok := o.evaluatePair(asset, ind, strategies[i], minConfidence); ok {
			out = append(out, sig)
		}
	}
	return out
}

// evaluatePair never lets one pair take down the batch; a panic counts as
// "did not pass".
func (o *Orchestrator) evaluatePair(asset models.RawAssetSnapshot, ind models.Snapshot, st models.Strategy, minConfidence int) (sig models.Signal, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("strategy evaluation panicked",
				logger.String("coin_id", asset.ID),
				logger.String("strategy_id", st.ID),
				logger.Any("panic", r),
			)
			sig, ok = models.Signal{}, false
		}
	}()

	if !st.Filters.Allows(asset) {
		return models.Signal{}, false
	}

	ev := engine.Evaluate(st.EntryRules, ind)
	if !ev.Passed || ev.Confidence < minConfidence {
		return models.Signal{}, false
	}

	dir := DirectionFor(st.Type, ind)
	levels := engine.ComputeLevels(ind.CurrentPrice, dir, st.RiskParams.RewardRatio, ind.High24h, ind.Low24h)

	return models.Signal{
		ID:                o.newID(),
		AssetID:           asset.ID,
		Symbol:            asset.Symbol,
		Name:              asset.Name,
		StrategyID:        st.ID,
		StrategyName:      st.Name,
		Direction:         dir,
		Score:             ev.Confidence,
		Confidence:        models.TierFor(ev.Confidence),
		TradeLevels:       levels,
		MatchedConditions: ev.Matched,
		Warnings:          Warnings(ind),
		Invalidation:      Invalidation(dir, levels.StopLoss),
		Timeframe:         st.PrimaryTimeframe(),
		Indicators:        ind.Map(),
		CreatedAt:         o.now().UTC(),
	}, true
}

// DirectionFor picks the signal side from the strategy type.
func DirectionFor(t models.StrategyType, ind models.Snapshot) models.Direction {
	switch {
	case t == models.StrategyMemeShort:
		return models.DirectionShort
	case t == models.StrategyReversal && ind.RSIOverbought:
		return models.DirectionSell
	default:
		return models.DirectionBuy
	}
}

// Warnings lists the risk flags raised by ind. Never nil.
func Warnings(ind models.Snapshot) []string {
	w := []string{}
	if ind.VolumeRatio < 0.5 {
		w = append(w, WarnLowVolume)
	}
	if ind.RSIEstimate > 80 {
		w = append(w, WarnExtremelyOverbought)
	}
	if ind.RSIEstimate < 20 {
		w = append(w, WarnExtremelyOversold)
	}
	return w
}

// Invalidation describes the price move that voids the setup.
func Invalidation(dir models.Direction, stopLoss float64) string {
	side := "below"
	if dir.IsShort() {
		side = "above"
	}
	return fmt.Sprintf("price closes %s %s", side, strconv.FormatFloat(stopLoss, 'f', -1, 64))
}
