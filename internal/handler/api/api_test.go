package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TraderGenie/internal/domain/models"
	"TraderGenie/internal/repository"
	"TraderGenie/internal/service/coingecko"
	"TraderGenie/internal/service/gateway"
	"TraderGenie/internal/usecase"
	xhttp "TraderGenie/pkg/http"
	"TraderGenie/pkg/logger"
)

type stubMarket struct {
	batch  models.MarketBatch
	err    error
	coinVs string
}

func (s *stubMarket) ScanUniverse(context.Context, int) (models.MarketBatch, error) {
	return s.batch, s.err
}

func (s *stubMarket) Prices(context.Context, []string, string) (models.MarketBatch, error) {
	return s.batch, s.err
}

func (s *stubMarket) TopCoins(context.Context, int, string) (models.MarketBatch, error) {
	return s.batch, s.err
}

func (s *stubMarket) Trending(context.Context) (models.TrendingBatch, error) {
	return models.TrendingBatch{
		Coins: []models.TrendingCoin{{ID: "pepe", Name: "Pepe", Symbol: "PEPE", MarketCapRank: 30}},
		Stale: s.batch.Stale,
	}, s.err
}

func (s *stubMarket) Coin(_ context.Context, id, vsCurrency string) (models.CoinDetail, error) {
	s.coinVs = vsCurrency
	if s.err != nil {
		return models.CoinDetail{}, s.err
	}
	if id != "alpha" {
		return models.CoinDetail{}, fmt.Errorf("%w: /coins/%s: %w", gateway.ErrUpstreamUnavailable, id, coingecko.ErrNotFound)
	}
	return models.CoinDetail{ID: "alpha", Symbol: "ALP", CurrentPrice: 100, MarketCapRank: 7}, nil
}

func (s *stubMarket) Global(context.Context, string) (models.GlobalMarket, error) {
	return models.GlobalMarket{TotalMarketCap: 2.4e12, MarketCapPercentage: map[string]float64{"btc": 52.1}}, s.err
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testAPI struct {
	srv    *xhttp.Server
	market *stubMarket
	store  *repository.MemorySignalStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	market := &stubMarket{batch: models.MarketBatch{Assets: []models.RawAssetSnapshot{{
		ID: "alpha", Symbol: "ALP", Name: "Alpha",
		CurrentPrice: 100, High24h: 110, Low24h: 90,
		PriceChangePct24h: 5, PriceChangePct1h: 0.5,
		Volume24h: 50_000_000, MarketCap: 1_000_000_000,
	}}}}
	catalog := repository.NewCatalog(repository.NewBuiltinStore(), repository.NewMemoryStrategyStore())
	store := repository.NewMemorySignalStore(100)
	scanner := usecase.NewScanner(catalog, market, usecase.WithSignalStore(store))
	l := logger.Nop()

	reg := prometheus.NewRegistry()
	srv := xhttp.NewServer(xhttp.Handlers{
		NewHealthHandler(store),
		NewMarketHandler(l, market),
		NewStrategiesHandler(l, usecase.NewStrategyService(catalog, l)),
		NewScannerHandler(l, scanner),
	}, xhttp.WithMetrics(reg, reg, "/metrics"), xhttp.WithLogger(l))

	return &testAPI{srv: srv, market: market, store: store}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	a.srv.Echo().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

const rsiDipBody = `{
  "id": "rsi-dip",
  "name": "RSI dip",
  "type": "custom",
  "timeframes": ["4h", "weekly"],
  "entry_rules": {"logic": "AND", "conditions": [
    {"indicator": "rsi_estimate", "operator": "<", "value": 35},
    {"indicator": "price_change_24h", "operator": "between", "value": [-10, -2]}
  ]},
  "ai_generated": true
}`

func TestStrategies_ListAndGet(t *testing.T) {
	a := newTestAPI(t)

	rec, env := a.do(t, http.MethodGet, "/api/strategies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list xhttp.ListDataResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 5, list.Total)

	rec, env = a.do(t, http.MethodGet, "/api/strategies/meme-pump-short", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st models.Strategy
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, models.StrategyMemeShort, st.Type)
	assert.True(t, st.IsBuiltin)

	rec, _ = a.do(t, http.MethodGet, "/api/strategies/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStrategies_CreateValidatesAndConflicts(t *testing.T) {
	a := newTestAPI(t)

	rec, env := a.do(t, http.MethodPost, "/api/strategies", rsiDipBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var st models.Strategy
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, "rsi-dip", st.ID)
	assert.True(t, st.IsActive)
	assert.True(t, st.AIGenerated)
	assert.Equal(t, []string{"4h"}, st.Timeframes)
	assert.Equal(t, 2.0, st.RiskParams.RewardRatio)
	assert.Equal(t, []float64{-10, -2}, st.EntryRules.Conditions[1].Value.List)

	rec, _ = a.do(t, http.MethodPost, "/api/strategies", rsiDipBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = a.do(t, http.MethodPost, "/api/strategies", `{"type":"custom","entry_rules":{"logic":"AND","conditions":[{"indicator":"rsi_estimate","operator":"<","value":30}]}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var verrs []xhttp.ValidationError
	require.NoError(t, json.Unmarshal(env.Data, &verrs))
	require.NotEmpty(t, verrs)
	assert.Equal(t, "name", verrs[0].Field)
	assert.Equal(t, "ERR_REQUIRED", verrs[0].Code)

	bad := strings.Replace(rsiDipBody, `[-10, -2]`, `[5]`, 1)
	bad = strings.Replace(bad, `"rsi-dip"`, `"rsi-dip-2"`, 1)
	rec, _ = a.do(t, http.MethodPost, "/api/strategies", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = a.do(t, http.MethodPost, "/api/strategies", `{"name":"x","type":"custom","entry_rules":{"logic":"XOR","conditions":[{"indicator":"rsi_estimate","operator":"<","value":30}]}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStrategies_ToggleAndDelete(t *testing.T) {
	a := newTestAPI(t)

	rec, _ := a.do(t, http.MethodPatch, "/api/strategies/trend-continuation/active", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := a.do(t, http.MethodPatch, "/api/strategies/trend-continuation/active", `{"active":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var st models.Strategy
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.False(t, st.IsActive)

	rec, env = a.do(t, http.MethodGet, "/api/strategies?active=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list xhttp.ListDataResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 4, list.Total)

	rec, _ = a.do(t, http.MethodDelete, "/api/strategies/trend-continuation", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec, _ = a.do(t, http.MethodDelete, "/api/strategies/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = a.do(t, http.MethodPost, "/api/strategies", rsiDipBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = a.do(t, http.MethodDelete, "/api/strategies/rsi-dip", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestScanner_ScanAndHistory(t *testing.T) {
	a := newTestAPI(t)

	rec, env := a.do(t, http.MethodPost, "/api/scanner/scan", `{"min_confidence": 80, "limit": 5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res models.ScanResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 1, res.ScannedAssets)
	assert.Equal(t, 5, res.StrategiesUsed)
	require.Len(t, res.Signals, 1)
	assert.Equal(t, "trend-continuation", res.Signals[0].StrategyID)
	assert.Equal(t, models.DirectionBuy, res.Signals[0].Direction)

	rec, env = a.do(t, http.MethodGet, "/api/scanner/history?coin_id=alpha", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Rows  []models.Signal `json:"rows"`
		Total int64           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Rows, 1)
	assert.Equal(t, res.Signals[0].ID, list.Rows[0].ID)
	assert.Equal(t, res.Signals[0].Indicators, list.Rows[0].Indicators)

	rec, _ = a.do(t, http.MethodPost, "/api/scanner/scan", `{"min_confidence": 101}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanner_UpstreamOutageIsDegraded(t *testing.T) {
	a := newTestAPI(t)
	a.market.err = fmt.Errorf("%w: /coins/markets: %w", gateway.ErrUpstreamUnavailable, errors.New("timeout"))

	rec, env := a.do(t, http.MethodPost, "/api/scanner/scan", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.ScanResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Degraded)
	assert.Empty(t, res.Signals)

	rec, _ = a.do(t, http.MethodGet, "/api/market/prices", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMarket_UpstreamRateLimitIsTagged(t *testing.T) {
	a := newTestAPI(t)
	a.market.err = fmt.Errorf("%w: /coins/markets: %w", gateway.ErrUpstreamUnavailable,
		fmt.Errorf("%w: /coins/markets: status 429", coingecko.ErrRateLimited))

	rec, env := a.do(t, http.MethodGet, "/api/market/top-coins", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var errs []xhttp.AppError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_UNAVAILABLE", errs[0].Code)
	assert.Equal(t, "upstream_rate_limited", errs[0].Params["reason"])
}

func TestMarket_StaleHeader(t *testing.T) {
	a := newTestAPI(t)
	a.market.batch.Stale = true
	a.market.batch.FetchedAt = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	rec, env := a.do(t, http.MethodGet, "/api/market/top-coins?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Warning"))
	var batch models.MarketBatch
	require.NoError(t, json.Unmarshal(env.Data, &batch))
	assert.True(t, batch.Stale)

	rec, _ = a.do(t, http.MethodGet, "/api/market/top-coins?limit=1000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarket_Lookups(t *testing.T) {
	a := newTestAPI(t)

	rec, env := a.do(t, http.MethodGet, "/api/market/trending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var trending models.TrendingBatch
	require.NoError(t, json.Unmarshal(env.Data, &trending))
	require.Len(t, trending.Coins, 1)
	assert.Equal(t, "PEPE", trending.Coins[0].Symbol)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderCacheControl))

	rec, env = a.do(t, http.MethodGet, "/api/market/coin/alpha?vs_currency=eur", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var coin models.CoinDetail
	require.NoError(t, json.Unmarshal(env.Data, &coin))
	assert.Equal(t, 7, coin.MarketCapRank)
	assert.Equal(t, "eur", a.market.coinVs)

	rec, env = a.do(t, http.MethodGet, "/api/market/coin/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var errs []xhttp.AppError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_NOT_FOUND", errs[0].Code)

	rec, env = a.do(t, http.MethodGet, "/api/market/global", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var global models.GlobalMarket
	require.NoError(t, json.Unmarshal(env.Data, &global))
	assert.Equal(t, 52.1, global.MarketCapPercentage["btc"])

	rec, _ = a.do(t, http.MethodGet, "/api/market/global?vs_currency=us1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarket_LookupOutageIsUnavailable(t *testing.T) {
	a := newTestAPI(t)
	a.market.err = fmt.Errorf("%w: /global: %w", gateway.ErrUpstreamUnavailable, errors.New("timeout"))

	for _, path := range []string{"/api/market/trending", "/api/market/coin/alpha", "/api/market/global"} {
		rec, _ := a.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestAPI(t)

	rec, env := a.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var h healthResponse
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "ok", h.Components["signal_store"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	a.srv.Echo().ServeHTTP(mrec, req)
	require.Equal(t, http.StatusOK, mrec.Code)
	assert.Contains(t, mrec.Body.String(), `tradergenie_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
}
