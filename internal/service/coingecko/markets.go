package coingecko

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"TraderGenie/internal/domain/models"
	"TraderGenie/internal/service/gateway"
	"TraderGenie/pkg/util"
)

const marketsEndpoint = "/coins/markets"

// UniverseRequest is the wide scan lookup: the top perPage assets by market cap
// with 1h and 24h change.
func UniverseRequest(vsCurrency string, perPage int) gateway.Request {
	return gateway.Request{Endpoint: marketsEndpoint, Params: url.Values{
		"vs_currency":             {vsCurrency},
		"order":                   {"market_cap_desc"},
		"per_page":                {strconv.Itoa(perPage)},
		"page":                    {"1"},
		"sparkline":               {"false"},
		"price_change_percentage": {"1h,24h"},
	}, Validate: validateMarkets}
}

// TopCoinsRequest is the short-lived market-cap leaderboard.
func TopCoinsRequest(vsCurrency string, limit int) gateway.Request {
	return gateway.Request{Endpoint: marketsEndpoint, Params: url.Values{
		"vs_currency":             {vsCurrency},
		"order":                   {"market_cap_desc"},
		"per_page":                {strconv.Itoa(limit)},
		"page":                    {"1"},
		"sparkline":               {"false"},
		"price_change_percentage": {"24h"},
	}, Validate: validateMarkets}
}

// PricesRequest looks up a fixed id list.
func PricesRequest(ids []string, vsCurrency string) gateway.Request {
	return gateway.Request{Endpoint: marketsEndpoint, Params: url.Values{
		"vs_currency":             {vsCurrency},
		"ids":                     {strings.Join(ids, ",")},
		"order":                   {"market_cap_desc"},
		"sparkline":               {"false"},
		"price_change_percentage": {"1h,24h"},
	}, Validate: validateMarkets}
}

// marketRow mirrors one /coins/markets element. Pointers absorb nulls.
type marketRow struct {
	ID                   string   `json:"id"`
	Symbol               string   `json:"symbol"`
	Name                 string   `json:"name"`
	CurrentPrice         *float64 `json:"current_price"`
	PriceChangePct24h    *float64 `json:"price_change_percentage_24h"`
	PriceChangePct1hCurr *float64 `json:"price_change_percentage_1h_in_currency"`
	High24h              *float64 `json:"high_24h"`
	Low24h               *float64 `json:"low_24h"`
	TotalVolume          *float64 `json:"total_volume"`
	MarketCap            *float64 `json:"market_cap"`
	LastUpdated          string   `json:"last_updated"`
}

// DecodeMarkets turns a /coins/markets body into snapshots. Null numeric
// fields become zero; an unparseable last_updated falls back to fetchedAt.
func DecodeMarkets(body []byte, fetchedAt time.Time) ([]models.RawAssetSnapshot, error) {
	var rows []marketRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}
	if rows == nil {
		return nil, errors.New("decode markets: body is not an array")
	}

	out := make([]models.RawAssetSnapshot, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			continue
		}
		out = append(out, models.RawAssetSnapshot{
			ID:                r.ID,
			Symbol:            strings.ToUpper(r.Symbol),
			Name:              r.Name,
			CurrentPrice:      num(r.CurrentPrice),
			PriceChangePct24h: num(r.PriceChangePct24h),
			PriceChangePct1h:  num(r.PriceChangePct1hCurr),
			High24h:           num(r.High24h),
			Low24h:            num(r.Low24h),
			Volume24h:         num(r.TotalVolume),
			MarketCap:         num(r.MarketCap),
			LastUpdated:       util.ParseTimeDefault(r.LastUpdated, fetchedAt),
		})
	}
	return out, nil
}

func validateMarkets(body []byte) error {
	_, err := DecodeMarkets(body, time.Time{})
	return err
}

func num(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
