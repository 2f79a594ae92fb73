package coingecko

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"TraderGenie/internal/domain/models"
	"TraderGenie/internal/service/gateway"
	"TraderGenie/pkg/util"
)

const trendingLimit = 10

func TrendingRequest() gateway.Request {
	return gateway.Request{Endpoint: "/search/trending", Validate: validateTrending}
}

// CoinRequest is the single-asset lookup. Market data is requested without
// tickers or community payloads.
func CoinRequest(id string) gateway.Request {
	return gateway.Request{
		Endpoint: "/coins/" + url.PathEscape(id),
		Route:    "/coins/{id}",
		Params: url.Values{
			"localization":   {"false"},
			"tickers":        {"false"},
			"market_data":    {"true"},
			"community_data": {"false"},
			"developer_data": {"false"},
		},
		Validate: validateCoin,
	}
}

func GlobalRequest() gateway.Request {
	return gateway.Request{Endpoint: "/global", Validate: validateGlobal}
}

type trendingBody struct {
	Coins []struct {
		Item struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			Symbol        string `json:"symbol"`
			MarketCapRank *int   `json:"market_cap_rank"`
			Thumb         string `json:"thumb"`
			Score         int    `json:"score"`
		} `json:"item"`
	} `json:"coins"`
}

// DecodeTrending keeps the first ten trending entries.
func DecodeTrending(body []byte) ([]models.TrendingCoin, error) {
	var b trendingBody
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("decode trending: %w", err)
	}
	if b.Coins == nil {
		return nil, errors.New("decode trending: missing coins")
	}

	out := make([]models.TrendingCoin, 0, trendingLimit)
	for _, c := range b.Coins {
		if len(out) == trendingLimit {
			break
		}
		out = append(out, models.TrendingCoin{
			ID:            c.Item.ID,
			Name:          c.Item.Name,
			Symbol:        strings.ToUpper(c.Item.Symbol),
			MarketCapRank: rank(c.Item.MarketCapRank),
			Thumb:         c.Item.Thumb,
			Score:         c.Item.Score,
		})
	}
	return out, nil
}

type coinBody struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  struct {
		Large string `json:"large"`
	} `json:"image"`
	MarketCapRank *int   `json:"market_cap_rank"`
	LastUpdated   string `json:"last_updated"`
	MarketData    struct {
		CurrentPrice      map[string]float64 `json:"current_price"`
		PriceChange24h    *float64           `json:"price_change_24h"`
		PriceChangePct24h *float64           `json:"price_change_percentage_24h"`
		MarketCap         map[string]float64 `json:"market_cap"`
		TotalVolume       map[string]float64 `json:"total_volume"`
		High24h           map[string]float64 `json:"high_24h"`
		Low24h            map[string]float64 `json:"low_24h"`
		ATH               map[string]float64 `json:"ath"`
		ATL               map[string]float64 `json:"atl"`
		CirculatingSupply *float64           `json:"circulating_supply"`
		TotalSupply       *float64           `json:"total_supply"`
	} `json:"market_data"`
}

// DecodeCoin reads a /coins/{id} body. Per-currency fields are picked for
// vsCurrency; a missing currency reads as zero.
func DecodeCoin(body []byte, vsCurrency string, fetchedAt time.Time) (models.CoinDetail, error) {
	var b coinBody
	if err := json.Unmarshal(body, &b); err != nil {
		return models.CoinDetail{}, fmt.Errorf("decode coin: %w", err)
	}
	if b.ID == "" {
		return models.CoinDetail{}, errors.New("decode coin: missing id")
	}

	vs := strings.ToLower(vsCurrency)
	md := b.MarketData
	return models.CoinDetail{
		ID:                b.ID,
		Symbol:            strings.ToUpper(b.Symbol),
		Name:              b.Name,
		Image:             b.Image.Large,
		CurrentPrice:      md.CurrentPrice[vs],
		PriceChange24h:    num(md.PriceChange24h),
		PriceChangePct24h: num(md.PriceChangePct24h),
		MarketCap:         md.MarketCap[vs],
		MarketCapRank:     rank(b.MarketCapRank),
		Volume24h:         md.TotalVolume[vs],
		High24h:           md.High24h[vs],
		Low24h:            md.Low24h[vs],
		ATH:               md.ATH[vs],
		ATL:               md.ATL[vs],
		CirculatingSupply: num(md.CirculatingSupply),
		TotalSupply:       num(md.TotalSupply),
		LastUpdated:       util.ParseTimeDefault(b.LastUpdated, fetchedAt),
		FetchedAt:         fetchedAt,
	}, nil
}

type globalBody struct {
	Data *struct {
		ActiveCryptocurrencies int                `json:"active_cryptocurrencies"`
		Markets                int                `json:"markets"`
		TotalMarketCap         map[string]float64 `json:"total_market_cap"`
		TotalVolume            map[string]float64 `json:"total_volume"`
		MarketCapPercentage    map[string]float64 `json:"market_cap_percentage"`
		MarketCapChangePct24h  *float64           `json:"market_cap_change_percentage_24h_usd"`
		UpdatedAt              int64              `json:"updated_at"`
	} `json:"data"`
}

// DecodeGlobal reads a /global body. The 24h change is reported by the
// provider in USD terms only.
func DecodeGlobal(body []byte, vsCurrency string, fetchedAt time.Time) (models.GlobalMarket, error) {
	var b globalBody
	if err := json.Unmarshal(body, &b); err != nil {
		return models.GlobalMarket{}, fmt.Errorf("decode global: %w", err)
	}
	if b.Data == nil {
		return models.GlobalMarket{}, errors.New("decode global: missing data")
	}

	vs := strings.ToLower(vsCurrency)
	d := b.Data
	updated := fetchedAt
	if d.UpdatedAt > 0 {
		updated = time.Unix(d.UpdatedAt, 0).UTC()
	}
	share := d.MarketCapPercentage
	if share == nil {
		share = map[string]float64{}
	}
	return models.GlobalMarket{
		TotalMarketCap:         d.TotalMarketCap[vs],
		TotalVolume:            d.TotalVolume[vs],
		MarketCapPercentage:    share,
		MarketCapChangePct24h:  num(d.MarketCapChangePct24h),
		ActiveCryptocurrencies: d.ActiveCryptocurrencies,
		Markets:                d.Markets,
		UpdatedAt:              updated,
		FetchedAt:              fetchedAt,
	}, nil
}

func validateTrending(body []byte) error {
	_, err := DecodeTrending(body)
	return err
}

func validateCoin(body []byte) error {
	_, err := DecodeCoin(body, "usd", time.Time{})
	return err
}

func validateGlobal(body []byte) error {
	_, err := DecodeGlobal(body, "usd", time.Time{})
	return err
}

func rank(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
