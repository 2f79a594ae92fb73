package repository

import (
	"context"
	"errors"
	"time"

	"TraderGenie/internal/domain/models"
)

var (
	ErrStrategyNotFound = errors.New("strategy not found")
	ErrBuiltinImmutable = errors.New("built-in strategies cannot be created or deleted")
	ErrStrategyIDTaken  = errors.New("strategy id already exists")
	ErrInvalidStrategy  = errors.New("invalid strategy")
)

// StrategyRepository is the read/toggle view over built-in and user strategies.
type StrategyRepository interface {
	List(ctx context.Context) ([]models.Strategy, error)
	ListActive(ctx context.Context) ([]models.Strategy, error)
	Get(ctx context.Context, id string) (models.Strategy, error)
	SetActive(ctx context.Context, id string, active bool) (models.Strategy, error)
	Create(ctx context.Context, s models.Strategy) (models.Strategy, error)
	Delete(ctx context.Context, id string) error
}

// SignalStore keeps emitted signals for the history endpoint.
type SignalStore interface {
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, signals []models.Signal) error
	History(ctx context.Context, assetID string, limit int) ([]models.Signal, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalPublisher fans emitted signals out to downstream consumers.
type SignalPublisher interface {
	PublishBatch(ctx context.Context, signals []models.Signal) error
	Close() error
}

// Locker guards work that must run on one replica at a time.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type Metrics interface {
	RecordFetch(endpoint, outcome string, d time.Duration)
	RecordScan(result string, signalsByStrategy map[string]int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
