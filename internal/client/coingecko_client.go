package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolio_engine/internal/entity"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CoinGeckoClient defines the interface for the secondary market-data
// provider. Queries run on provider-specific coin ids; a (nil, nil) /
// (empty, nil) result means the provider has no entry, errors are reserved
// for transport and HTTP failures.
type CoinGeckoClient interface {
	GetSimplePrice(ctx context.Context, coinID string) (*entity.CoinGeckoSimplePrice, error)
	GetMarkets(ctx context.Context, coinIDs []string) ([]entity.CoinGeckoMarketData, error)
}

// coinGeckoClientImpl is the resty implementation of CoinGeckoClient. The
// public CoinGecko API throttles aggressively, hence the client-side limiter.
type coinGeckoClientImpl struct {
	rest    *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewCoinGeckoClient creates a new instance of coinGeckoClientImpl.
func NewCoinGeckoClient(baseURL string, timeout time.Duration, ratePerSec float64, burst int, logger *zap.Logger) CoinGeckoClient {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	if burst <= 0 {
		burst = 1
	}
	rest := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &coinGeckoClientImpl{
		rest:    rest,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		logger:  logger.Named("CoinGeckoClient"),
	}
}

// GetSimplePrice fetches the USD quote for a single coin id.
func (c *coinGeckoClientImpl) GetSimplePrice(ctx context.Context, coinID string) (*entity.CoinGeckoSimplePrice, error) {
	if coinID == "" {
		return nil, fmt.Errorf("coinID cannot be empty")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	result := make(map[string]entity.CoinGeckoSimplePrice)
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":                 coinID,
			"vs_currencies":       "usd",
			"include_24hr_change": "true",
		}).
		SetResult(&result).
		Get("/simple/price")
	if err != nil {
		c.logger.Error("Failed to execute request to CoinGecko", zap.String("coinID", coinID), zap.Error(err))
		return nil, fmt.Errorf("coingecko simple/price request for %s: %w", coinID, err)
	}
	if resp.IsError() {
		c.logger.Error("CoinGecko API request failed",
			zap.String("coinID", coinID),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", resp.Body()))
		return nil, fmt.Errorf("coingecko simple/price for %s failed with status %d", coinID, resp.StatusCode())
	}

	price, ok := result[coinID]
	if !ok {
		c.logger.Debug("CoinGecko has no entry for coin id", zap.String("coinID", coinID))
		return nil, nil
	}
	return &price, nil
}

// GetMarkets fetches the batch market endpoint for many coin ids. Ids the
// provider does not know are simply absent from the result.
func (c *coinGeckoClientImpl) GetMarkets(ctx context.Context, coinIDs []string) ([]entity.CoinGeckoMarketData, error) {
	if len(coinIDs) == 0 {
		return nil, fmt.Errorf("coinIDs cannot be empty")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	var result []entity.CoinGeckoMarketData
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency": "usd",
			"ids":         strings.Join(coinIDs, ","),
		}).
		SetResult(&result).
		Get("/coins/markets")
	if err != nil {
		c.logger.Error("Failed to execute batch request to CoinGecko", zap.Int("idCount", len(coinIDs)), zap.Error(err))
		return nil, fmt.Errorf("coingecko coins/markets request: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("CoinGecko batch API request failed",
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", resp.Body()))
		return nil, fmt.Errorf("coingecko coins/markets failed with status %d", resp.StatusCode())
	}
	return result, nil
}
