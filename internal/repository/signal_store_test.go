package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TraderGenie/internal/domain/models"
	pkgkafka "TraderGenie/pkg/kafka"
)

func sampleSignal(asset string, score int) models.Signal {
	return models.Signal{
		ID:         uuid.New(),
		AssetID:    asset,
		Symbol:     "BTC",
		StrategyID: "trend-continuation",
		Direction:  models.DirectionBuy,
		Score:      score,
		Confidence: models.TierFor(score),
		TradeLevels: models.TradeLevels{
			Entry: 100, StopLoss: 90, TakeProfit: 120, TakeProfit2: 130, RiskReward: 2,
		},
		Indicators: models.Snapshot{
			CurrentPrice: 100, PriceChange24h: 5, VolumeRatio: 1.2, RSIEstimate: 60, PriceAboveEMA: true,
		}.Map(),
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestClickHouseSignalStore_StoreBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewClickHouseSignalStore(db, "signals")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO signals (" + signalColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?),(?")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err = store.StoreBatch(context.Background(), []models.Signal{sampleSignal("bitcoin", 100), sampleSignal("ethereum", 67)})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseSignalStore_StoreBatchEmptyIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewClickHouseSignalStore(db, "signals").StoreBatch(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseSignalStore_History(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sig := sampleSignal("bitcoin", 100)
	payload, err := json.Marshal(sig)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM signals WHERE coin_id = ? ORDER BY ts DESC LIMIT ?")).
		WithArgs("bitcoin", 10).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(string(payload)))

	got, err := NewClickHouseSignalStore(db, "signals").History(context.Background(), "bitcoin", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sig.ID, got[0].ID)
	assert.Equal(t, 120.0, got[0].TakeProfit)
	assert.Equal(t, sig.Indicators, got[0].Indicators)
	assert.Equal(t, models.BoolValue(true), got[0].Indicators[models.IndPriceAboveEMA])

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM signals ORDER BY ts DESC LIMIT ?")).
		WithArgs(5).
		WillReturnError(errors.New("connection reset"))
	_, err = NewClickHouseSignalStore(db, "signals").History(context.Background(), "", 5)
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseSignalStore_Init(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS signals")).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, NewClickHouseSignalStore(db, "signals").Init(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemorySignalStore_HistoryNewestFirst(t *testing.T) {
	s := NewMemorySignalStore(3)
	ctx := context.Background()

	a, b, c, d := sampleSignal("bitcoin", 60), sampleSignal("ethereum", 70), sampleSignal("bitcoin", 80), sampleSignal("bitcoin", 90)
	require.NoError(t, s.StoreBatch(ctx, []models.Signal{a, b}))
	require.NoError(t, s.StoreBatch(ctx, []models.Signal{c, d}))

	all, err := s.History(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3, "capacity drops the oldest")
	assert.Equal(t, d.ID, all[0].ID)
	assert.Equal(t, b.ID, all[2].ID)

	btc, err := s.History(ctx, "bitcoin", 1)
	require.NoError(t, err)
	require.Len(t, btc, 1)
	assert.Equal(t, d.ID, btc[0].ID)
}

type captureWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSignalPublisher(t *testing.T) {
	w := &captureWriter{}
	p := NewKafkaSignalPublisher(pkgkafka.NewProducerWithWriter(w), "signals.v1")

	sig := sampleSignal("solana", 88)
	require.NoError(t, p.PublishBatch(context.Background(), []models.Signal{sig}))
	require.NoError(t, p.PublishBatch(context.Background(), nil))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "signals.v1", w.msgs[0].Topic)
	assert.Equal(t, []byte("solana"), w.msgs[0].Key)

	var decoded models.Signal
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, sig.ID, decoded.ID)
	assert.Equal(t, models.TierHigh, decoded.Confidence)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
