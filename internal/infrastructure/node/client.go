package node

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"portfolio_engine/internal/app/port"
	"portfolio_engine/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// balanceResponse mirrors the node's /addresses/{address}/balance payload.
// Amounts come back as decimal strings because they exceed JSON number
// precision.
type balanceResponse struct {
	Balance       string `json:"balance"`
	LockedBalance string `json:"lockedBalance,omitempty"`
}

// tokenBalanceResponse mirrors one entry of /addresses/{address}/tokens.
type tokenBalanceResponse struct {
	TokenID  string `json:"tokenId"`
	Amount   string `json:"amount"`
	Decimals uint8  `json:"decimals,omitempty"`
	IsNFT    bool   `json:"isNft,omitempty"`
	TokenURI string `json:"tokenUri,omitempty"`
}

// Client implements port.NodeClient and port.PoolStateProvider over the
// node's REST API.
type Client struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a node REST client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("NodeClient"),
	}
}

var _ port.NodeClient = (*Client)(nil)
var _ port.PoolStateProvider = (*Client)(nil)

// GetBalance fetches the native coin balance for an address, in minor units.
func (c *Client) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	requestURL := fmt.Sprintf("%s/addresses/%s/balance", c.baseURL, url.PathEscape(address))

	var parsed balanceResponse
	if err := c.doJSON(ctx, requestURL, &parsed); err != nil {
		return nil, err
	}

	balance, ok := new(big.Int).SetString(parsed.Balance, 10)
	if !ok {
		return nil, fmt.Errorf("node returned unparseable balance %q for %s", parsed.Balance, address)
	}
	return balance, nil
}

// GetTokens fetches every token held by an address.
func (c *Client) GetTokens(ctx context.Context, address string) ([]entity.TokenBalance, error) {
	requestURL := fmt.Sprintf("%s/addresses/%s/tokens", c.baseURL, url.PathEscape(address))

	var parsed []tokenBalanceResponse
	if err := c.doJSON(ctx, requestURL, &parsed); err != nil {
		return nil, err
	}

	tokens := make([]entity.TokenBalance, 0, len(parsed))
	for _, t := range parsed {
		amount, ok := new(big.Int).SetString(t.Amount, 10)
		if !ok {
			c.logger.Warn("Skipping token with unparseable amount",
				zap.String("address", address),
				zap.String("tokenId", t.TokenID),
				zap.String("amount", t.Amount))
			continue
		}
		tokens = append(tokens, entity.TokenBalance{
			TokenID:  t.TokenID,
			Amount:   amount,
			Decimals: t.Decimals,
			IsNFT:    t.IsNFT,
			TokenURI: t.TokenURI,
		})
	}
	return tokens, nil
}

// GetPoolState would read AMM pool reserves for exact LP valuation. The node
// API does not expose contract state in a form this client consumes yet, so
// every call reports unavailable and callers fall back to the estimate path.
func (c *Client) GetPoolState(ctx context.Context, poolAddress string) (entity.PoolState, error) {
	return entity.PoolState{}, entity.ErrPoolStateUnavailable
}

func (c *Client) doJSON(ctx context.Context, requestURL string, out any) error {
	c.logger.Debug("Requesting node data", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute node request", zap.String("url", requestURL), zap.Error(err))
			return fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute node request (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Node API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return fmt.Errorf("node API request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	if err := json.Unmarshal(rawBody, out); err != nil {
		c.logger.Error("Failed to unmarshal node response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		return fmt.Errorf("failed to unmarshal node response from %s: %w", requestURL, err)
	}
	return nil
}
