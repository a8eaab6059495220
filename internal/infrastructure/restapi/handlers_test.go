package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portfolio_engine/internal/domain/entity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPriceService struct {
	prices map[string]entity.TokenPrice
}

func (s *stubPriceService) GetAlphPrice(ctx context.Context) float64 {
	return s.GetTokenPrice(ctx, entity.AlphTokenID).PriceUSD
}

func (s *stubPriceService) GetTokenPrice(ctx context.Context, tokenID string) entity.TokenPrice {
	key := strings.ToLower(tokenID)
	if p, ok := s.prices[key]; ok {
		return p
	}
	return entity.EstimatedPrice(key, "", time.Now())
}

func (s *stubPriceService) GetMultipleTokenPrices(ctx context.Context, tokenIDs []string) map[string]entity.TokenPrice {
	out := make(map[string]entity.TokenPrice, len(tokenIDs))
	for _, id := range tokenIDs {
		out[strings.ToLower(id)] = s.GetTokenPrice(ctx, id)
	}
	return out
}

type stubPortfolioService struct {
	snapshot *entity.PortfolioSnapshot
}

func (s *stubPortfolioService) Aggregate(ctx context.Context, wallets []entity.Wallet) *entity.PortfolioSnapshot {
	return s.snapshot
}

type stubWalletProvider struct {
	wallets []entity.Wallet
	err     error
}

func (s *stubWalletProvider) GetWallets() ([]entity.Wallet, error) {
	return s.wallets, s.err
}

func testRouter(prices *stubPriceService, portfolio *stubPortfolioService, wallets *stubWalletProvider) *gin.Engine {
	if prices == nil {
		prices = &stubPriceService{}
	}
	if portfolio == nil {
		portfolio = &stubPortfolioService{snapshot: &entity.PortfolioSnapshot{}}
	}
	if wallets == nil {
		wallets = &stubWalletProvider{wallets: []entity.Wallet{{Address: "addr1"}}}
	}
	return SetupRouter(NewPriceHandler(prices), NewPortfolioHandler(portfolio, wallets))
}

func TestGetAlphPriceEndpoint(t *testing.T) {
	prices := &stubPriceService{prices: map[string]entity.TokenPrice{
		entity.AlphTokenID: {TokenID: entity.AlphTokenID, Symbol: "ALPH", PriceUSD: 1.85, Source: entity.SourceMobula, Confidence: entity.ConfidenceHigh},
	}}
	router := testRouter(prices, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/prices/alph", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp APIPriceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1.85, resp.Data.PriceUSD)
	assert.Equal(t, entity.SourceMobula, resp.Data.Source)
	assert.Equal(t, "Price resolved successfully.", resp.StatusMessage)
}

func TestGetTokenPriceEndpointEstimate(t *testing.T) {
	router := testRouter(nil, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/prices/deadbeef", nil))

	require.Equal(t, http.StatusOK, w.Code, "resolution never fails outright")
	var resp APIPriceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, entity.SourceEstimate, resp.Data.Source)
	assert.Zero(t, resp.Data.PriceUSD)
	assert.Contains(t, resp.StatusMessage, "estimate")
}

func TestQueryPricesEndpoint(t *testing.T) {
	prices := &stubPriceService{prices: map[string]entity.TokenPrice{
		"aa00": {TokenID: "aa00", PriceUSD: 2.0, Source: entity.SourceMobula, Confidence: entity.ConfidenceHigh},
	}}
	router := testRouter(prices, nil, nil)

	body := strings.NewReader(`{"tokenIds":["aa00","bb11"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prices/query", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp APIPriceQueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, 2.0, resp.Data["aa00"].PriceUSD)
	assert.Equal(t, entity.SourceEstimate, resp.Data["bb11"].Source)
	assert.Contains(t, resp.StatusMessage, "estimates")
}

func TestQueryPricesEndpointBadRequest(t *testing.T) {
	router := testRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prices/query", strings.NewReader(`{"tokenIds":[]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPortfolioEndpoint(t *testing.T) {
	portfolio := &stubPortfolioService{snapshot: &entity.PortfolioSnapshot{
		Balances: map[string]float64{"addr1": 1.5},
		TotalUSD: 3.0,
	}}
	router := testRouter(nil, portfolio, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/portfolio", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp APIPortfolioResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3.0, resp.Data.TotalUSD)
	assert.Equal(t, "Portfolio retrieved successfully.", resp.StatusMessage)
}

func TestGetPortfolioEndpointPartialErrors(t *testing.T) {
	portfolio := &stubPortfolioService{snapshot: &entity.PortfolioSnapshot{
		Holdings: map[string]*entity.ConsolidatedHolding{"aa00": {TokenID: "aa00"}},
		Errors:   []entity.PortfolioError{{WalletAddress: "addr2", Message: "node returned 500"}},
	}}
	router := testRouter(nil, portfolio, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/portfolio", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp APIPortfolioResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.ServiceErrors, 1)
	assert.Contains(t, resp.StatusMessage, "Some wallets encountered errors")
}

func TestGetPortfolioEndpointWalletLoadFailure(t *testing.T) {
	wallets := &stubWalletProvider{err: errors.New("file missing")}
	router := testRouter(nil, nil, wallets)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/portfolio", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetPortfolioEndpointNoWallets(t *testing.T) {
	router := testRouter(nil, nil, &stubWalletProvider{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/portfolio", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp APIPortfolioResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.StatusMessage, "No wallets are tracked")
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(nil, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
