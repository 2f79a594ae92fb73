package usecase

import (
	"context"
	"fmt"
	"time"

	"TraderGenie/internal/domain/models"
	domainrepo "TraderGenie/internal/domain/repository"
	"TraderGenie/internal/domain/service"
	"TraderGenie/pkg/logger"
	"TraderGenie/pkg/metrics"
)

// ScanDefaults are applied when a request leaves a field unset.
type ScanDefaults struct {
	Limit         int
	MinConfidence int
	UniverseSize  int
}

// Scanner runs scans end to end: strategies from the catalog, the asset
// universe from the market service, the orchestrator, then the sinks.
type Scanner struct {
	strategies domainrepo.StrategyRepository
	market     service.Universe
	orch       *Orchestrator

	store     domainrepo.SignalStore
	publisher domainrepo.SignalPublisher
	metrics   domainrepo.Metrics
	log       *logger.Logger

	defaults  ScanDefaults
	sinkLimit time.Duration
	now       func() time.Time
}

type ScannerOption func(*Scanner)

func NewScanner(strategies domainrepo.StrategyRepository, market service.Universe, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		strategies: strategies,
		market:     market,
		orch:       NewOrchestrator(),
		metrics:    metrics.Noop{},
		log:        logger.Nop(),
		defaults:   ScanDefaults{Limit: 20, MinConfidence: 50, UniverseSize: 100},
		sinkLimit:  10 * time.Second,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func WithOrchestrator(o *Orchestrator) ScannerOption {
	return func(s *Scanner) {
		if o != nil {
			s.orch = o
		}
	}
}

// WithSignalStore keeps emitted signals for History.
func WithSignalStore(st domainrepo.SignalStore) ScannerOption {
	return func(s *Scanner) { s.store = st }
}

// WithSignalPublisher fans emitted signals out after each scan.
func WithSignalPublisher(p domainrepo.SignalPublisher) ScannerOption {
	return func(s *Scanner) { s.publisher = p }
}

func WithScanMetrics(m domainrepo.Metrics) ScannerOption {
	return func(s *Scanner) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithScanLogger(l *logger.Logger) ScannerOption {
	return func(s *Scanner) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDefaults overrides the non-zero fields of d.
func WithDefaults(d ScanDefaults) ScannerOption {
	return func(s *Scanner) {
		if d.Limit > 0 {
			s.defaults.Limit = d.Limit
		}
		if d.MinConfidence > 0 {
			s.defaults.MinConfidence = d.MinConfidence
		}
		if d.UniverseSize > 0 {
			s.defaults.UniverseSize = d.UniverseSize
		}
	}
}

func WithScannerClock(now func() time.Time) ScannerOption {
	return func(s *Scanner) { s.now = now }
}

// Scan evaluates the active strategies, optionally narrowed to
// req.StrategyIDs, against the current universe. An upstream outage yields a
// degraded empty result, not an error; only a catalog failure is returned.
func (s *Scanner) Scan(ctx context.Context, req models.ScanRequest) (models.ScanResult, error) {
	start := time.Now()
	defer func() { s.metrics.RecordLatency("scan", time.Since(start).Seconds()) }()

	res := models.ScanResult{Signals: []models.Signal{}, Timestamp: s.now().UTC()}

	strategies, err := s.selectStrategies(ctx, req.StrategyIDs)
	if err != nil {
		s.metrics.RecordError("strategy_catalog")
		return res, fmt.Errorf("load strategies: %w", err)
	}
	res.StrategiesUsed = len(strategies)
	if len(strategies) == 0 {
		s.metrics.RecordScan("empty", nil)
		return res, nil
	}

	batch, err := s.market.ScanUniverse(ctx, s.defaults.UniverseSize)
	if err != nil {
		s.log.Error("scan degraded: market data unavailable", logger.Error(err))
		s.metrics.RecordScan("degraded", nil)
		res.Degraded = true
		res.Error = err.Error()
		return res, nil
	}
	res.ScannedAssets = len(batch.Assets)
	res.Stale = batch.Stale

	minConf := s.defaults.MinConfidence
	if req.MinConfidence != nil {
		minConf = *req.MinConfidence
	}
	limit := s.defaults.Limit
	if req.Limit != nil {
		limit = *req.Limit
	}

	res.Signals = s.orch.Run(ScanParams{
		Strategies:    strategies,
		Assets:        batch.Assets,
		MinConfidence: minConf,
		Limit:         limit,
	})

	byStrategy := make(map[string]int, len(strategies))
	for _, sig := range res.Signals {
		byStrategy[sig.StrategyID]++
	}
	outcome := "ok"
	if res.Stale {
		outcome = "stale"
	}
	s.metrics.RecordScan(outcome, byStrategy)

	s.log.Info("scan complete",
		logger.Int("scanned_coins", res.ScannedAssets),
		logger.Int("strategies", res.StrategiesUsed),
		logger.Int("signals", len(res.Signals)),
		logger.Bool("stale", res.Stale),
		logger.Duration("took_ms", time.Since(start)),
	)

	s.sink(ctx, res.Signals)
	return res, nil
}

// History returns stored signals, newest first.
func (s *Scanner) History(ctx context.Context, assetID string, limit int) ([]models.Signal, error) {
	if s.store == nil {
		return []models.Signal{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	out, err := s.store.History(ctx, assetID, limit)
	if err != nil {
		s.metrics.RecordError("signal_history")
		return nil, fmt.Errorf("signal history: %w", err)
	}
	if out == nil {
		out = []models.Signal{}
	}
	return out, nil
}

func (s *Scanner) selectStrategies(ctx context.Context, ids []string) ([]models.Strategy, error) {
	active, err := s.strategies.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return active, nil
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := active[:0]
	for _, st := range active {
		if _, ok := want[st.ID]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

// sink hands signals to the store and publisher. Failures are logged and
// counted; the scan result stands either way.
func (s *Scanner) sink(ctx context.Context, signals []models.Signal) {
	if len(signals) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sinkLimit)
	defer cancel()

	if s.store != nil {
		if err := s.store.StoreBatch(ctx, signals); err != nil {
			s.metrics.RecordError("signal_store")
			s.log.Error("store signals failed", logger.Int("count", len(signals)), logger.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishBatch(ctx, signals); err != nil {
			s.metrics.RecordError("signal_publish")
			s.log.Error("publish signals failed", logger.Int("count", len(signals)), logger.Error(err))
		}
	}
}
