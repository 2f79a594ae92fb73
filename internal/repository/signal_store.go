package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"TraderGenie/internal/domain/models"
	domainrepo "TraderGenie/internal/domain/repository"
)

// SignalTableDDL creates the signal history table.
func SignalTableDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id               UUID,
	ts               DateTime64(3, 'UTC'),
	coin_id          LowCardinality(String),
	symbol           LowCardinality(String),
	strategy_id      LowCardinality(String),
	signal_type      LowCardinality(String),
	confidence_score UInt8,
	confidence       LowCardinality(String),
	entry_price      Float64,
	stop_loss        Float64,
	take_profit      Float64,
	risk_reward      Float64,
	payload          String
) ENGINE = MergeTree
ORDER BY (coin_id, ts)
TTL toDateTime(ts) + INTERVAL 90 DAY`, table)
}

const signalColumns = "id, ts, coin_id, symbol, strategy_id, signal_type, confidence_score, confidence, entry_price, stop_loss, take_profit, risk_reward, payload"

// ClickHouseSignalStore keeps signal history in ClickHouse. The full signal
// is kept as JSON in payload; the typed columns serve ad-hoc queries.
type ClickHouseSignalStore struct {
	db    *sql.DB
	table string
}

var _ domainrepo.SignalStore = (*ClickHouseSignalStore)(nil)

func NewClickHouseSignalStore(db *sql.DB, table string) *ClickHouseSignalStore {
	return &ClickHouseSignalStore{db: db, table: table}
}

func (s *ClickHouseSignalStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, SignalTableDDL(s.table)); err != nil {
		return fmt.Errorf("init signal table: %w", err)
	}
	return nil
}

func (s *ClickHouseSignalStore) StoreBatch(ctx context.Context, signals []models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	const chunkSize = 1000
	for start := 0; start < len(signals); start += chunkSize {
		end := min(start+chunkSize, len(signals))

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*13)
		for _, sig := range signals[start:end] {
			payload, err := json.Marshal(sig)
			if err != nil {
				return fmt.Errorf("encode signal %s: %w", sig.ID, err)
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				sig.ID.String(),
				sig.CreatedAt,
				sig.AssetID,
				sig.Symbol,
				sig.StrategyID,
				string(sig.Direction),
				uint8(sig.Score),
				string(sig.Confidence),
				sig.Entry,
				sig.StopLoss,
				sig.TakeProfit,
				sig.RiskReward,
				string(payload),
			)
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, signalColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert signals: %w", err)
		}
	}
	return nil
}

// History returns the newest signals first, optionally for one asset.
func (s *ClickHouseSignalStore) History(ctx context.Context, assetID string, limit int) ([]models.Signal, error) {
	q := fmt.Sprintf("SELECT payload FROM %s", s.table)
	args := make([]interface{}, 0, 2)
	if assetID != "" {
		q += " WHERE coin_id = ?"
		args = append(args, assetID)
	}
	q += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	out := make([]models.Signal, 0, limit)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var sig models.Signal
		if err := json.Unmarshal([]byte(payload), &sig); err != nil {
			return nil, fmt.Errorf("decode signal: %w", err)
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *ClickHouseSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseSignalStore) Close() error {
	return nil
}

// MemorySignalStore is a bounded in-process history used when ClickHouse
// is disabled.
type MemorySignalStore struct {
	mu       sync.RWMutex
	signals  []models.Signal
	capacity int
}

var _ domainrepo.SignalStore = (*MemorySignalStore)(nil)

func NewMemorySignalStore(capacity int) *MemorySignalStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemorySignalStore{capacity: capacity}
}

func (s *MemorySignalStore) Init(context.Context) error { return nil }

func (s *MemorySignalStore) StoreBatch(_ context.Context, signals []models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, signals...)
	if over := len(s.signals) - s.capacity; over > 0 {
		s.signals = append([]models.Signal(nil), s.signals[over:]...)
	}
	return nil
}

func (s *MemorySignalStore) History(_ context.Context, assetID string, limit int) ([]models.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Signal, 0, limit)
	for i := len(s.signals) - 1; i >= 0 && len(out) < limit; i-- {
		if assetID == "" || s.signals[i].AssetID == assetID {
			out = append(out, s.signals[i])
		}
	}
	return out, nil
}

func (s *MemorySignalStore) Health(context.Context) error { return nil }

func (s *MemorySignalStore) Close() error { return nil }
