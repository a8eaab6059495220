package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"portfolio_engine/internal/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MobulaClient defines the interface for the primary market aggregator.
// Methods return (nil, nil) when the aggregator answered but has no data for
// the token; an error is only returned on transport or HTTP failure.
type MobulaClient interface {
	GetTokenBySymbol(ctx context.Context, blockchain, symbol string) (*entity.MobulaTokenData, error)
	GetTokenByAddress(ctx context.Context, blockchain, address string) (*entity.MobulaTokenData, error)
	GetTokensByAddresses(ctx context.Context, blockchain string, addresses []string) (map[string]entity.MobulaTokenData, error)
}

// mobulaClientImpl is the fasthttp implementation of MobulaClient.
type mobulaClientImpl struct {
	client              *fasthttp.Client
	baseURL             string
	timeout             time.Duration
	logger              *zap.Logger
	maxTokensPerRequest int
}

// NewMobulaClient creates a new instance of mobulaClientImpl.
func NewMobulaClient(baseURL string, timeout time.Duration, logger *zap.Logger, maxTokensPerRequest int) MobulaClient {
	return &mobulaClientImpl{
		client:              &fasthttp.Client{},
		baseURL:             strings.TrimRight(baseURL, "/"),
		timeout:             timeout,
		logger:              logger.Named("MobulaClient"),
		maxTokensPerRequest: maxTokensPerRequest,
	}
}

// GetTokenBySymbol queries the aggregator by chain+symbol.
func (c *mobulaClientImpl) GetTokenBySymbol(ctx context.Context, blockchain, symbol string) (*entity.MobulaTokenData, error) {
	requestURL := fmt.Sprintf("%s/market/query/token?blockchain=%s&symbol=%s&limit=1",
		c.baseURL, url.QueryEscape(blockchain), url.QueryEscape(symbol))
	return c.getSingle(ctx, requestURL)
}

// GetTokenByAddress queries the aggregator by chain+address.
func (c *mobulaClientImpl) GetTokenByAddress(ctx context.Context, blockchain, address string) (*entity.MobulaTokenData, error) {
	requestURL := fmt.Sprintf("%s/market/query/token?blockchain=%s&address=%s&limit=1",
		c.baseURL, url.QueryEscape(blockchain), url.QueryEscape(address))
	return c.getSingle(ctx, requestURL)
}

func (c *mobulaClientImpl) getSingle(ctx context.Context, requestURL string) (*entity.MobulaTokenData, error) {
	var wrapper entity.MobulaTokenResponse
	if err := c.doJSON(ctx, requestURL, &wrapper); err != nil {
		return nil, err
	}
	if len(wrapper.Data) == 0 {
		c.logger.Debug("Mobula returned 200 OK with no data", zap.String("url", requestURL))
		return nil, nil
	}
	return &wrapper.Data[0], nil
}

// GetTokensByAddresses issues one batched query for many token addresses and
// returns the entries keyed by lowercase address. Addresses the aggregator
// had no data for are simply missing from the map.
func (c *mobulaClientImpl) GetTokensByAddresses(ctx context.Context, blockchain string, addresses []string) (map[string]entity.MobulaTokenData, error) {
	if len(addresses) == 0 {
		return nil, fmt.Errorf("addresses cannot be empty")
	}
	if len(addresses) > c.maxTokensPerRequest {
		c.logger.Warn("Number of token addresses exceeds maxTokensPerRequest",
			zap.Int("requestedCount", len(addresses)),
			zap.Int("maxAllowed", c.maxTokensPerRequest))
		return nil, fmt.Errorf("number of token addresses (%d) exceeds max tokens per request (%d)", len(addresses), c.maxTokensPerRequest)
	}

	requestURL := fmt.Sprintf("%s/market/query/tokens?blockchain=%s&addresses=%s&limit=%d",
		c.baseURL, url.QueryEscape(blockchain), url.QueryEscape(strings.Join(addresses, ",")), len(addresses))

	var wrapper entity.MobulaTokenResponse
	if err := c.doJSON(ctx, requestURL, &wrapper); err != nil {
		return nil, err
	}

	byAddress := make(map[string]entity.MobulaTokenData, len(wrapper.Data))
	for _, data := range wrapper.Data {
		if data.Address == "" {
			continue
		}
		byAddress[strings.ToLower(data.Address)] = data
	}
	c.logger.Debug("Fetched batch token data from Mobula",
		zap.Int("requested", len(addresses)),
		zap.Int("returned", len(byAddress)))
	return byAddress, nil
}

func (c *mobulaClientImpl) doJSON(ctx context.Context, requestURL string, out any) error {
	c.logger.Debug("Requesting token data from Mobula", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute request to Mobula", zap.String("url", requestURL), zap.Error(err))
			return fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute request to Mobula (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Mobula API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return fmt.Errorf("mobula API request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	if err := json.Unmarshal(rawBody, out); err != nil {
		c.logger.Error("Failed to unmarshal Mobula response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		return fmt.Errorf("failed to unmarshal Mobula response from %s: %w", requestURL, err)
	}
	return nil
}
