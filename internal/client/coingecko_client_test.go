package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCoinGeckoTestServer(t *testing.T, handler http.HandlerFunc) CoinGeckoClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	// Generous limiter so tests never wait.
	return NewCoinGeckoClient(srv.URL, 2*time.Second, 1000, 1000, zap.NewNop())
}

func TestGetSimplePrice(t *testing.T) {
	c := newCoinGeckoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "alephium", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"alephium":{"usd":1.85,"usd_24h_change":-2.3}}`))
	})

	price, err := c.GetSimplePrice(context.Background(), "alephium")
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, 1.85, price.USD)
	assert.Equal(t, -2.3, price.USDChange24h)
}

func TestGetSimplePriceUnknownCoin(t *testing.T) {
	c := newCoinGeckoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})

	price, err := c.GetSimplePrice(context.Background(), "no-such-coin")
	require.NoError(t, err, "an unknown coin id is not an error")
	assert.Nil(t, price)
}

func TestGetSimplePriceHTTPError(t *testing.T) {
	c := newCoinGeckoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	})

	_, err := c.GetSimplePrice(context.Background(), "alephium")
	assert.Error(t, err)
}

func TestGetSimplePriceEmptyID(t *testing.T) {
	c := newCoinGeckoTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := c.GetSimplePrice(context.Background(), "")
	assert.Error(t, err)
}

func TestGetMarkets(t *testing.T) {
	c := newCoinGeckoTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "alephium,ayin", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"alephium","symbol":"alph","current_price":1.85,"total_volume":4200000,"market_cap_rank":250},
			{"id":"ayin","symbol":"ayin","current_price":0.42}
		]`))
	})

	markets, err := c.GetMarkets(context.Background(), []string{"alephium", "ayin"})
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "alephium", markets[0].ID)
	assert.Equal(t, 1.85, markets[0].CurrentPrice)
	assert.Equal(t, 250, markets[0].MarketCapRank)
	assert.Equal(t, 0.42, markets[1].CurrentPrice)
}

func TestGetMarketsEmptyIDs(t *testing.T) {
	c := newCoinGeckoTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := c.GetMarkets(context.Background(), nil)
	assert.Error(t, err)
}
