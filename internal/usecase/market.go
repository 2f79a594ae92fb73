package usecase

import (
	"context"
	"fmt"

	"TraderGenie/internal/domain/models"
	"TraderGenie/internal/domain/service"
	"TraderGenie/internal/service/coingecko"
	"TraderGenie/internal/service/gateway"
)

// MarketService serves CoinGecko market data through the shared gateway.
// The wide scan lookup uses the long TTL; every other lookup uses the short one.
type MarketService struct {
	gw         *gateway.Gateway
	vsCurrency string
}

var _ service.MarketData = (*MarketService)(nil)

func NewMarketService(gw *gateway.Gateway, vsCurrency string) *MarketService {
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	return &MarketService{gw: gw, vsCurrency: vsCurrency}
}

func (s *MarketService) ScanUniverse(ctx context.Context, size int) (models.MarketBatch, error) {
	if size <= 0 {
		size = 100
	}
	return s.fetch(ctx, coingecko.UniverseRequest(s.vsCurrency, size), gateway.TTLLong)
}

func (s *MarketService) Prices(ctx context.Context, ids []string, vsCurrency string) (models.MarketBatch, error) {
	if len(ids) == 0 {
		return models.MarketBatch{Assets: []models.RawAssetSnapshot{}}, nil
	}
	return s.fetch(ctx, coingecko.PricesRequest(ids, s.currency(vsCurrency)), gateway.TTLShort)
}

func (s *MarketService) TopCoins(ctx context.Context, limit int, vsCurrency string) (models.MarketBatch, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.fetch(ctx, coingecko.TopCoinsRequest(s.currency(vsCurrency), limit), gateway.TTLShort)
}

func (s *MarketService) Trending(ctx context.Context) (models.TrendingBatch, error) {
	req := coingecko.TrendingRequest()
	res, err := s.gw.Fetch(ctx, req, gateway.TTLShort)
	if err != nil {
		return models.TrendingBatch{}, err
	}
	coins, err := coingecko.DecodeTrending(res.Payload)
	if err != nil {
		return models.TrendingBatch{}, fmt.Errorf("%s: %w", req.Endpoint, err)
	}
	return models.TrendingBatch{Coins: coins, FetchedAt: res.FetchedAt, Stale: res.Stale}, nil
}

func (s *MarketService) Coin(ctx context.Context, id, vsCurrency string) (models.CoinDetail, error) {
	req := coingecko.CoinRequest(id)
	res, err := s.gw.Fetch(ctx, req, gateway.TTLShort)
	if err != nil {
		return models.CoinDetail{}, err
	}
	coin, err := coingecko.DecodeCoin(res.Payload, s.currency(vsCurrency), res.FetchedAt)
	if err != nil {
		return models.CoinDetail{}, fmt.Errorf("%s: %w", req.Endpoint, err)
	}
	coin.Stale = res.Stale
	return coin, nil
}

func (s *MarketService) Global(ctx context.Context, vsCurrency string) (models.GlobalMarket, error) {
	req := coingecko.GlobalRequest()
	res, err := s.gw.Fetch(ctx, req, gateway.TTLShort)
	if err != nil {
		return models.GlobalMarket{}, err
	}
	global, err := coingecko.DecodeGlobal(res.Payload, s.currency(vsCurrency), res.FetchedAt)
	if err != nil {
		return models.GlobalMarket{}, fmt.Errorf("%s: %w", req.Endpoint, err)
	}
	global.Stale = res.Stale
	return global, nil
}

func (s *MarketService) currency(vs string) string {
	if vs == "" {
		return s.vsCurrency
	}
	return vs
}

func (s *MarketService) fetch(ctx context.Context, req gateway.Request, class gateway.TTLClass) (models.MarketBatch, error) {
	res, err := s.gw.Fetch(ctx, req, class)
	if err != nil {
		return models.MarketBatch{}, err
	}
	assets, err := coingecko.DecodeMarkets(res.Payload, res.FetchedAt)
	if err != nil {
		return models.MarketBatch{}, fmt.Errorf("%s: %w", req.Endpoint, err)
	}
	return models.MarketBatch{Assets: assets, FetchedAt: res.FetchedAt, Stale: res.Stale}, nil
}
