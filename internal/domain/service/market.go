package service

import (
	"context"

	"TraderGenie/internal/domain/models"
)

// Universe is the part of market data the scanner needs.
type Universe interface {
	// ScanUniverse returns the wide multi-asset batch used by the scanner.
	ScanUniverse(ctx context.Context, size int) (models.MarketBatch, error)
}

// MarketData serves upstream market snapshots through the cached gateway.
type MarketData interface {
	Universe
	Prices(ctx context.Context, ids []string, vsCurrency string) (models.MarketBatch, error)
	TopCoins(ctx context.Context, limit int, vsCurrency string) (models.MarketBatch, error)
	Trending(ctx context.Context) (models.TrendingBatch, error)
	// Coin is the single-asset lookup by CoinGecko id.
	Coin(ctx context.Context, id, vsCurrency string) (models.CoinDetail, error)
	Global(ctx context.Context, vsCurrency string) (models.GlobalMarket, error)
}
