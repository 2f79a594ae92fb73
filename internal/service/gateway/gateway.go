package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"TraderGenie/pkg/logger"
)

// ErrUpstreamUnavailable is returned when the live call failed and no
// entry, fresh or stale, exists for the signature.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// ErrInvalidPayload marks a 2xx body rejected by Request.Validate.
var ErrInvalidPayload = errors.New("invalid upstream payload")

// Fetcher performs exactly one live upstream call.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// Metrics receives one outcome per lookup: hit, live, stale or error.
type Metrics interface {
	RecordFetch(endpoint, outcome string, d time.Duration)
}

const (
	outcomeHit   = "hit"
	outcomeLive  = "live"
	outcomeStale = "stale"
	outcomeError = "error"
)

// Gateway is a TTL-cached, cooldown-limited, stale-tolerant view of the
// upstream. One instance is shared by every caller in the process.
type Gateway struct {
	fetcher      Fetcher
	store        Store
	cooldown     *Cooldown
	ttl          map[TTLClass]time.Duration
	fetchTimeout time.Duration
	breaker      *gobreaker.CircuitBreaker
	now          func() time.Time
	log          *logger.Logger
	metrics      Metrics

	flights singleflight.Group
}

type Option func(*Gateway)

func New(f Fetcher, opts ...Option) *Gateway {
	g := &Gateway{
		fetcher:      f,
		store:        NewMemoryStore(),
		cooldown:     NewCooldown(500 * time.Millisecond),
		ttl:          map[TTLClass]time.Duration{TTLShort: 30 * time.Second, TTLLong: 120 * time.Second},
		fetchTimeout: 30 * time.Second,
		now:          time.Now,
		log:          logger.Nop(),
		metrics:      noopMetrics{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fetch returns the payload for req. A fresh entry is returned without
// touching the cooldown. Otherwise one live call is made after the cooldown;
// on failure an existing stale entry is served instead.
func (g *Gateway) Fetch(ctx context.Context, req Request, class TTLClass) (Result, error) {
	sig := req.Signature()

	if e, ok := g.load(ctx, sig); ok && g.fresh(e, class) {
		g.metrics.RecordFetch(req.route(), outcomeHit, 0)
		g.log.Debug("upstream cache hit", logger.String("signature", sig))
		return Result{Payload: e.Payload, FetchedAt: e.FetchedAt, Cached: true}, nil
	}

	// concurrent misses for one signature share a single live call
	v, err, _ := g.flights.Do(sig, func() (interface{}, error) {
		return g.refresh(context.WithoutCancel(ctx), req, sig, class)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// TTL returns the freshness window of class.
func (g *Gateway) TTL(class TTLClass) time.Duration {
	return g.ttl[class]
}

func (g *Gateway) refresh(ctx context.Context, req Request, sig string, class TTLClass) (Result, error) {
	prev, hasPrev := g.load(ctx, sig)
	if hasPrev && g.fresh(prev, class) {
		g.metrics.RecordFetch(req.route(), outcomeHit, 0)
		return Result{Payload: prev.Payload, FetchedAt: prev.FetchedAt, Cached: true}, nil
	}

	start := time.Now()
	payload, err := g.live(ctx, req)
	took := time.Since(start)

	if err == nil {
		e := Entry{Payload: payload, FetchedAt: g.now(), Class: class}
		if serr := g.store.Save(ctx, sig, e); serr != nil {
			g.log.Warn("upstream cache save failed", logger.String("signature", sig), logger.Error(serr))
		}
		g.metrics.RecordFetch(req.route(), outcomeLive, took)
		return Result{Payload: e.Payload, FetchedAt: e.FetchedAt}, nil
	}

	if hasPrev {
		g.metrics.RecordFetch(req.route(), outcomeStale, took)
		g.log.Warn("serving stale upstream data",
			logger.String("signature", sig),
			logger.Duration("age_ms", g.now().Sub(prev.FetchedAt)),
			logger.Error(err),
		)
		return Result{Payload: prev.Payload, FetchedAt: prev.FetchedAt, Stale: true}, nil
	}

	g.metrics.RecordFetch(req.route(), outcomeError, took)
	g.log.Error("upstream fetch failed", logger.String("signature", sig), logger.Error(err))
	return Result{}, fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, req.route(), err)
}

func (g *Gateway) live(ctx context.Context, req Request) ([]byte, error) {
	if err := g.cooldown.Wait(ctx); err != nil {
		return nil, fmt.Errorf("cooldown: %w", err)
	}

	fctx, cancel := context.WithTimeout(ctx, g.fetchTimeout)
	defer cancel()

	call := func() (interface{}, error) {
		payload, err := g.fetcher.Fetch(fctx, req)
		if err != nil {
			return nil, err
		}
		if req.Validate != nil {
			if err := req.Validate(payload); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
		}
		return payload, nil
	}

	var (
		v   interface{}
		err error
	)
	if g.breaker == nil {
		v, err = call()
	} else {
		v, err = g.breaker.Execute(call)
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (g *Gateway) load(ctx context.Context, sig string) (Entry, bool) {
	e, ok, err := g.store.Load(ctx, sig)
	if err != nil {
		g.log.Warn("upstream cache load failed", logger.String("signature", sig), logger.Error(err))
		return Entry{}, false
	}
	return e, ok
}

func (g *Gateway) fresh(e Entry, class TTLClass) bool {
	return g.now().Sub(e.FetchedAt) < g.ttl[class]
}

// WithStore replaces the default in-memory store.
func WithStore(s Store) Option {
	return func(g *Gateway) {
		g.store = s
	}
}

// WithCooldown sets the minimum gap between live calls.
func WithCooldown(d time.Duration) Option {
	return func(g *Gateway) {
		g.cooldown = NewCooldown(d)
	}
}

// WithTTL sets the freshness window of a TTL class.
func WithTTL(class TTLClass, d time.Duration) Option {
	return func(g *Gateway) {
		g.ttl[class] = d
	}
}

// WithFetchTimeout bounds each live call.
func WithFetchTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.fetchTimeout = d
		}
	}
}

// WithBreaker trips after maxFailures consecutive live failures and stays
// open for openTimeout. An open breaker counts as a failed live call.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(g *Gateway) {
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "upstream",
			Timeout: openTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= maxFailures
			},
		})
	}
}

// WithClock overrides the time source used for freshness decisions.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.now = now
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(g *Gateway) {
		if m != nil {
			g.metrics = m
		}
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordFetch(string, string, time.Duration) {}
