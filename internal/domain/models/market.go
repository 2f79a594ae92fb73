package models

import "time"

// RawAssetSnapshot is one upstream market record for a single asset.
// Numeric fields the provider left null are zero.
type RawAssetSnapshot struct {
	ID                string    `json:"id"`
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	CurrentPrice      float64   `json:"current_price"`
	PriceChangePct24h float64   `json:"price_change_percentage_24h"`
	PriceChangePct1h  float64   `json:"price_change_percentage_1h"`
	High24h           float64   `json:"high_24h"`
	Low24h            float64   `json:"low_24h"`
	Volume24h         float64   `json:"total_volume"`
	MarketCap         float64   `json:"market_cap"`
	LastUpdated       time.Time `json:"last_updated"`
}

// MarketBatch is a decoded upstream response plus its cache provenance.
type MarketBatch struct {
	Assets    []RawAssetSnapshot `json:"coins"`
	FetchedAt time.Time          `json:"fetched_at"`
	Stale     bool               `json:"stale"`
}

// TrendingCoin is one entry of the search-trending list.
type TrendingCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
	Thumb         string `json:"thumb"`
	Score         int    `json:"score"`
}

type TrendingBatch struct {
	Coins     []TrendingCoin `json:"trending"`
	FetchedAt time.Time      `json:"fetched_at"`
	Stale     bool           `json:"stale"`
}

// CoinDetail is the single-asset lookup. Currency-denominated fields are in
// the requested quote currency.
type CoinDetail struct {
	ID                string    `json:"id"`
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	Image             string    `json:"image"`
	CurrentPrice      float64   `json:"current_price"`
	PriceChange24h    float64   `json:"price_change_24h"`
	PriceChangePct24h float64   `json:"price_change_percentage_24h"`
	MarketCap         float64   `json:"market_cap"`
	MarketCapRank     int       `json:"market_cap_rank"`
	Volume24h         float64   `json:"total_volume"`
	High24h           float64   `json:"high_24h"`
	Low24h            float64   `json:"low_24h"`
	ATH               float64   `json:"ath"`
	ATL               float64   `json:"atl"`
	CirculatingSupply float64   `json:"circulating_supply"`
	TotalSupply       float64   `json:"total_supply"`
	LastUpdated       time.Time `json:"last_updated"`
	FetchedAt         time.Time `json:"fetched_at"`
	Stale             bool      `json:"stale"`
}

// GlobalMarket is the aggregate crypto market view.
type GlobalMarket struct {
	TotalMarketCap         float64            `json:"total_market_cap"`
	TotalVolume            float64            `json:"total_volume"`
	MarketCapPercentage    map[string]float64 `json:"market_cap_percentage"`
	MarketCapChangePct24h  float64            `json:"market_cap_change_percentage_24h"`
	ActiveCryptocurrencies int                `json:"active_cryptocurrencies"`
	Markets                int                `json:"markets"`
	UpdatedAt              time.Time          `json:"updated_at"`
	FetchedAt              time.Time          `json:"fetched_at"`
	Stale                  bool               `json:"stale"`
}
