package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trendingFixture(n int) string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, fmt.Sprintf(`{"item":{"id":"coin-%d","name":"Coin %d","symbol":"c%d","market_cap_rank":%d,"thumb":"t%d.png","score":%d}}`, i, i, i, i+1, i, i))
	}
	return `{"coins":[` + strings.Join(items, ",") + `],"nfts":[]}`
}

const coinFixture = `{
  "id":"bitcoin","symbol":"btc","name":"Bitcoin","market_cap_rank":1,
  "image":{"thumb":"t.png","large":"l.png"},
  "market_data":{
    "current_price":{"usd":64000,"eur":59000},
    "price_change_24h":1200.5,"price_change_percentage_24h":1.9,
    "market_cap":{"usd":1.26e12},"total_volume":{"usd":3.1e10},
    "high_24h":{"usd":65000},"low_24h":{"usd":62000},
    "ath":{"usd":73700},"atl":{"usd":67.81},
    "circulating_supply":19700000,"total_supply":null
  },
  "last_updated":"2024-05-01T12:00:00.000Z"
}`

const globalFixture = `{"data":{
  "active_cryptocurrencies":13000,"markets":1050,
  "total_market_cap":{"usd":2.4e12,"eur":2.2e12},"total_volume":{"usd":9.1e10},
  "market_cap_percentage":{"btc":52.1,"eth":16.8},
  "market_cap_change_percentage_24h_usd":-1.25,"updated_at":1714564800
}}`

func TestDecodeTrending_KeepsFirstTen(t *testing.T) {
	coins, err := DecodeTrending([]byte(trendingFixture(15)))
	require.NoError(t, err)
	require.Len(t, coins, 10)
	assert.Equal(t, "coin-0", coins[0].ID)
	assert.Equal(t, "C0", coins[0].Symbol)
	assert.Equal(t, 1, coins[0].MarketCapRank)
	assert.Equal(t, "coin-9", coins[9].ID)

	nullRank, err := DecodeTrending([]byte(`{"coins":[{"item":{"id":"x","symbol":"x","market_cap_rank":null}}]}`))
	require.NoError(t, err)
	assert.Zero(t, nullRank[0].MarketCapRank)

	_, err = DecodeTrending([]byte(`{"status":{"error_code":429}}`))
	assert.Error(t, err)
}

func TestDecodeCoin_PicksQuoteCurrency(t *testing.T) {
	fetchedAt := time.Date(2024, 5, 1, 12, 1, 0, 0, time.UTC)

	usd, err := DecodeCoin([]byte(coinFixture), "USD", fetchedAt)
	require.NoError(t, err)
	assert.Equal(t, "BTC", usd.Symbol)
	assert.Equal(t, "l.png", usd.Image)
	assert.Equal(t, 64000.0, usd.CurrentPrice)
	assert.Equal(t, 1200.5, usd.PriceChange24h)
	assert.Equal(t, 1.26e12, usd.MarketCap)
	assert.Equal(t, 73700.0, usd.ATH)
	assert.Equal(t, 19700000.0, usd.CirculatingSupply)
	assert.Zero(t, usd.TotalSupply)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), usd.LastUpdated.UTC())
	assert.Equal(t, fetchedAt, usd.FetchedAt)

	eur, err := DecodeCoin([]byte(coinFixture), "eur", fetchedAt)
	require.NoError(t, err)
	assert.Equal(t, 59000.0, eur.CurrentPrice)
	assert.Zero(t, eur.MarketCap)

	_, err = DecodeCoin([]byte(`{"error":"coin not found"}`), "usd", fetchedAt)
	assert.Error(t, err)
}

func TestDecodeGlobal(t *testing.T) {
	fetchedAt := time.Date(2024, 5, 1, 12, 1, 0, 0, time.UTC)

	g, err := DecodeGlobal([]byte(globalFixture), "usd", fetchedAt)
	require.NoError(t, err)
	assert.Equal(t, 2.4e12, g.TotalMarketCap)
	assert.Equal(t, 9.1e10, g.TotalVolume)
	assert.Equal(t, 52.1, g.MarketCapPercentage["btc"])
	assert.Equal(t, -1.25, g.MarketCapChangePct24h)
	assert.Equal(t, 13000, g.ActiveCryptocurrencies)
	assert.Equal(t, 1050, g.Markets)
	assert.Equal(t, time.Unix(1714564800, 0).UTC(), g.UpdatedAt)

	_, err = DecodeGlobal([]byte(`[]`), "usd", fetchedAt)
	assert.Error(t, err)
	_, err = DecodeGlobal([]byte(`{"status":"ok"}`), "usd", fetchedAt)
	assert.Error(t, err)
}

func TestRequestValidators(t *testing.T) {
	assert.NoError(t, UniverseRequest("usd", 100).Validate([]byte(marketsBody)))
	assert.NoError(t, UniverseRequest("usd", 100).Validate([]byte(`[]`)))
	assert.Error(t, UniverseRequest("usd", 100).Validate([]byte(`{"status":{"error_code":429}}`)))
	assert.Error(t, PricesRequest([]string{"bitcoin"}, "usd").Validate([]byte(`null`)))

	assert.NoError(t, TrendingRequest().Validate([]byte(trendingFixture(3))))
	assert.NoError(t, CoinRequest("bitcoin").Validate([]byte(coinFixture)))
	assert.Error(t, CoinRequest("bitcoin").Validate([]byte(`{}`)))
	assert.NoError(t, GlobalRequest().Validate([]byte(globalFixture)))
}

func TestCoinRequest_EscapesIDAndSharesRoute(t *testing.T) {
	a := CoinRequest("bitcoin")
	b := CoinRequest("wrapped bitcoin")

	assert.Equal(t, "/coins/bitcoin", a.Endpoint)
	assert.Equal(t, "/coins/wrapped%20bitcoin", b.Endpoint)
	assert.Equal(t, a.Route, b.Route)
	assert.NotEqual(t, a.Signature(), b.Signature())
	assert.Equal(t, "true", a.Params.Get("market_data"))
}

func TestClient_NotFoundIsTagged(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"coin not found"}`))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	_, err := c.Fetch(context.Background(), CoinRequest("nope"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "/coins/nope", gotPath)
}
