package service

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"portfolio_engine/internal/domain/entity"
	api_types "portfolio_engine/internal/entity"
	"portfolio_engine/internal/infrastructure/configloader"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

func testConfig() *configloader.Config {
	return &configloader.Config{
		Mobula: configloader.MobulaConfig{Blockchain: "alephium"},
		Node:   configloader.NodeConfig{RequestTimeoutMillis: 5000},
		TokenPriceSvc: configloader.TokenPriceServiceConfig{
			CacheTTLMinutes:          5,
			MaxTokensPerBatchRequest: 30,
		},
		PortfolioSvc: configloader.PortfolioServiceConfig{
			RefreshCooldownSeconds: 30,
			MaxConcurrentWallets:   4,
		},
	}
}

// fakeClock drives cache expiry in tests.
type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

func fptr(f float64) *float64 { return &f }

func bigFromString(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big.Int literal " + s)
	}
	return v
}

// stubRegistry implements port.TokenRegistry. The native coin is always
// present, mirroring the real registry.
type stubRegistry struct {
	byID     map[string]entity.TokenInfo
	bySymbol map[string]entity.TokenInfo
}

func newStubRegistry(tokens ...entity.TokenInfo) *stubRegistry {
	r := &stubRegistry{
		byID:     make(map[string]entity.TokenInfo),
		bySymbol: make(map[string]entity.TokenInfo),
	}
	r.add(entity.TokenInfo{
		ID:          entity.AlphTokenID,
		Symbol:      entity.AlphSymbol,
		Name:        "Alephium",
		Decimals:    entity.AlphDecimals,
		CoinGeckoID: "alephium",
	})
	for _, t := range tokens {
		r.add(t)
	}
	return r
}

func (r *stubRegistry) add(t entity.TokenInfo) {
	r.byID[strings.ToLower(t.ID)] = t
	r.bySymbol[strings.ToUpper(t.Symbol)] = t
}

func (r *stubRegistry) Get(tokenID string) (entity.TokenInfo, bool) {
	t, ok := r.byID[strings.ToLower(tokenID)]
	return t, ok
}

func (r *stubRegistry) CoinGeckoID(tokenID string) (string, bool) {
	t, ok := r.byID[strings.ToLower(tokenID)]
	if !ok || t.CoinGeckoID == "" {
		return "", false
	}
	return t.CoinGeckoID, true
}

func (r *stubRegistry) BySymbol(symbol string) (entity.TokenInfo, bool) {
	t, ok := r.bySymbol[strings.ToUpper(symbol)]
	return t, ok
}

func (r *stubRegistry) All() []entity.TokenInfo {
	out := make([]entity.TokenInfo, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, t)
	}
	return out
}

// stubMobula implements client.MobulaClient with canned answers and call
// counters. A non-nil block channel makes single-token lookups wait, so
// tests can hold a fetch open while other callers pile up.
type stubMobula struct {
	mu        sync.Mutex
	bySymbol  map[string]*api_types.MobulaTokenData
	byAddress map[string]*api_types.MobulaTokenData
	batch     map[string]api_types.MobulaTokenData
	err       error

	block        chan struct{}
	blockStarted chan struct{}

	symbolCalls  int
	addressCalls int
	batchCalls   int
}

func (m *stubMobula) GetTokenBySymbol(ctx context.Context, blockchain, symbol string) (*api_types.MobulaTokenData, error) {
	m.mu.Lock()
	m.symbolCalls++
	data := m.bySymbol[symbol]
	err := m.err
	block, started := m.block, m.blockStarted
	m.mu.Unlock()

	if block != nil {
		if started != nil {
			close(started)
			m.mu.Lock()
			m.blockStarted = nil
			m.mu.Unlock()
		}
		<-block
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (m *stubMobula) GetTokenByAddress(ctx context.Context, blockchain, address string) (*api_types.MobulaTokenData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addressCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.byAddress[strings.ToLower(address)], nil
}

func (m *stubMobula) GetTokensByAddresses(ctx context.Context, blockchain string, addresses []string) (map[string]api_types.MobulaTokenData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]api_types.MobulaTokenData)
	for _, addr := range addresses {
		if data, ok := m.batch[strings.ToLower(addr)]; ok {
			out[strings.ToLower(addr)] = data
		}
	}
	return out, nil
}

// stubCoinGecko implements client.CoinGeckoClient.
type stubCoinGecko struct {
	mu      sync.Mutex
	simple  map[string]*api_types.CoinGeckoSimplePrice
	markets []api_types.CoinGeckoMarketData
	err     error

	simpleCalls int
	marketCalls int
}

func (c *stubCoinGecko) GetSimplePrice(ctx context.Context, coinID string) (*api_types.CoinGeckoSimplePrice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.simpleCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.simple[coinID], nil
}

func (c *stubCoinGecko) GetMarkets(ctx context.Context, coinIDs []string) ([]api_types.CoinGeckoMarketData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.marketCalls++
	if c.err != nil {
		return nil, c.err
	}
	requested := make(map[string]struct{}, len(coinIDs))
	for _, id := range coinIDs {
		requested[id] = struct{}{}
	}
	var out []api_types.CoinGeckoMarketData
	for _, m := range c.markets {
		if _, ok := requested[m.ID]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// stubPool implements port.PoolStateProvider.
type stubPool struct {
	state entity.PoolState
	err   error
}

func (p *stubPool) GetPoolState(ctx context.Context, poolAddress string) (entity.PoolState, error) {
	return p.state, p.err
}

// stubPriceService implements port.PriceService with fixed quotes. Batch
// requests are recorded so tests can assert what was asked for.
type stubPriceService struct {
	mu            sync.Mutex
	alphPrice     float64
	prices        map[string]entity.TokenPrice
	batchRequests [][]string
}

func (s *stubPriceService) GetAlphPrice(ctx context.Context) float64 {
	return s.alphPrice
}

func (s *stubPriceService) GetTokenPrice(ctx context.Context, tokenID string) entity.TokenPrice {
	key := strings.ToLower(tokenID)
	if key == entity.AlphTokenID {
		return entity.TokenPrice{
			TokenID:    key,
			Symbol:     entity.AlphSymbol,
			PriceUSD:   s.alphPrice,
			Source:     entity.SourceMobula,
			Confidence: entity.ConfidenceHigh,
		}
	}
	if p, ok := s.prices[key]; ok {
		return p
	}
	return entity.EstimatedPrice(key, "", time.Now())
}

func (s *stubPriceService) GetMultipleTokenPrices(ctx context.Context, tokenIDs []string) map[string]entity.TokenPrice {
	s.mu.Lock()
	s.batchRequests = append(s.batchRequests, append([]string(nil), tokenIDs...))
	s.mu.Unlock()

	out := make(map[string]entity.TokenPrice, len(tokenIDs))
	for _, id := range tokenIDs {
		out[strings.ToLower(id)] = s.GetTokenPrice(ctx, id)
	}
	return out
}

// stubNode implements port.NodeClient.
type stubNode struct {
	balances map[string]*big.Int
	tokens   map[string][]entity.TokenBalance
	errs     map[string]error
}

func (n *stubNode) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if err := n.errs[address]; err != nil {
		return nil, err
	}
	if b, ok := n.balances[address]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (n *stubNode) GetTokens(ctx context.Context, address string) ([]entity.TokenBalance, error) {
	if err := n.errs[address]; err != nil {
		return nil, err
	}
	return n.tokens[address], nil
}

// stubLPValuer implements port.LPValuer.
type stubLPValuer struct {
	valuations map[string]entity.PoolValuation
}

func (l *stubLPValuer) ValueOf(ctx context.Context, tokenID string, rawAmount *big.Int, poolAddress string, underlying [2]string) entity.PoolValuation {
	return l.valuations[strings.ToLower(tokenID)]
}
