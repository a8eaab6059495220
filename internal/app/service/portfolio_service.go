package service

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"portfolio_engine/internal/app/port"
	"portfolio_engine/internal/domain/entity"
	"portfolio_engine/internal/infrastructure/configloader"
	"portfolio_engine/internal/pkg/metrics"
	"portfolio_engine/internal/pkg/utils"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const snapshotCacheKey = "latest"

// portfolioServiceImpl implements port.PortfolioService. It fans out over
// the wallet set with bounded concurrency, folds per-wallet balances into
// consolidated holdings with exact big.Int arithmetic, and rate-limits full
// refresh cycles, serving the last snapshot inside the cooldown window.
type portfolioServiceImpl struct {
	node      port.NodeClient
	prices    port.PriceService
	lp        port.LPValuer
	registry  port.TokenRegistry
	logger    port.Logger
	limiter   *rate.Limiter
	snapshots *gocache.Cache
	mu        sync.Mutex

	maxConcurrentWallets int
	requestTimeout       time.Duration
}

// NewPortfolioService creates a new instance of portfolioServiceImpl.
func NewPortfolioService(
	node port.NodeClient,
	prices port.PriceService,
	lp port.LPValuer,
	registry port.TokenRegistry,
	logger port.Logger,
	cfg *configloader.Config,
) port.PortfolioService {
	cooldown := time.Duration(cfg.PortfolioSvc.RefreshCooldownSeconds) * time.Second
	return &portfolioServiceImpl{
		node:                 node,
		prices:               prices,
		lp:                   lp,
		registry:             registry,
		logger:               logger,
		limiter:              rate.NewLimiter(rate.Every(cooldown), 1),
		snapshots:            gocache.New(10*cooldown, time.Minute),
		maxConcurrentWallets: cfg.PortfolioSvc.MaxConcurrentWallets,
		requestTimeout:       time.Duration(cfg.Node.RequestTimeoutMillis) * time.Millisecond,
	}
}

// Aggregate returns one consistent snapshot over the given wallets. Inside
// the cooldown window the previous snapshot is returned as-is; a refresh is
// only started when the limiter grants it. Aggregate never returns nil.
func (s *portfolioServiceImpl) Aggregate(ctx context.Context, wallets []entity.Wallet) *entity.PortfolioSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.limiter.Allow() {
		if cached, ok := s.snapshots.Get(snapshotCacheKey); ok {
			s.logger.Debug("Serving portfolio snapshot from cache, refresh cooldown active")
			return cached.(*entity.PortfolioSnapshot)
		}
	}

	metrics.PortfolioRefreshes.Inc()
	snapshot := s.refresh(ctx, wallets)
	s.snapshots.Set(snapshotCacheKey, snapshot, gocache.DefaultExpiration)
	return snapshot
}

type walletResult struct {
	wallet  entity.Wallet
	balance *big.Int
	tokens  []entity.TokenBalance
	err     error
}

// refresh rebuilds the snapshot from scratch. One failing wallet is recorded
// and skipped; the other wallets still contribute.
func (s *portfolioServiceImpl) refresh(ctx context.Context, wallets []entity.Wallet) *entity.PortfolioSnapshot {
	started := time.Now()
	results := make([]walletResult, len(wallets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrentWallets)
	for i, w := range wallets {
		i, w := i, w
		g.Go(func() error {
			results[i] = s.fetchWallet(gctx, w)
			return nil
		})
	}
	// Workers never return an error; failures live in walletResult.err.
	_ = g.Wait()

	snapshot := &entity.PortfolioSnapshot{
		Balances:  make(map[string]float64, len(wallets)),
		Holdings:  make(map[string]*entity.ConsolidatedHolding),
		FetchedAt: time.Now(),
	}

	prices := s.prices.GetMultipleTokenPrices(ctx, collectTokenIDs(results, s.registry))

	for _, r := range results {
		if r.err != nil {
			s.logger.Warn("Wallet fetch failed, excluding it from this snapshot",
				"address", r.wallet.Address, "error", r.err)
			snapshot.Errors = append(snapshot.Errors, entity.PortfolioError{
				WalletAddress: r.wallet.Address,
				Message:       r.err.Error(),
			})
			continue
		}

		snapshot.Balances[r.wallet.Address] = utils.ToHumanUnits(r.balance, entity.AlphDecimals)
		s.mergeHolding(ctx, snapshot, r.wallet.Address, entity.TokenBalance{
			TokenID:  entity.AlphTokenID,
			Amount:   r.balance,
			Decimals: entity.AlphDecimals,
		}, prices)

		for _, t := range r.tokens {
			if t.IsNFT {
				s.logger.Debug("Skipping NFT in valuation", "token_id", t.TokenID, "address", r.wallet.Address)
				continue
			}
			s.mergeHolding(ctx, snapshot, r.wallet.Address, t, prices)
		}
	}

	for _, h := range snapshot.Holdings {
		snapshot.TotalUSD += h.USDValue
	}

	s.logger.Info("Portfolio snapshot rebuilt",
		"wallets", len(wallets),
		"failed_wallets", len(snapshot.Errors),
		"holdings", len(snapshot.Holdings),
		"total_usd", snapshot.TotalUSD,
		"duration", time.Since(started).String())
	return snapshot
}

func (s *portfolioServiceImpl) fetchWallet(ctx context.Context, w entity.Wallet) walletResult {
	reqCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	balance, err := s.node.GetBalance(reqCtx, w.Address)
	if err != nil {
		return walletResult{wallet: w, err: err}
	}
	tokens, err := s.node.GetTokens(reqCtx, w.Address)
	if err != nil {
		return walletResult{wallet: w, err: err}
	}
	return walletResult{wallet: w, balance: balance, tokens: tokens}
}

// mergeHolding folds one wallet's token balance into the consolidated view.
// The integer sum is updated first; every derived figure is then recomputed
// from that sum so rounding never accumulates across wallets.
func (s *portfolioServiceImpl) mergeHolding(ctx context.Context, snapshot *entity.PortfolioSnapshot, walletAddress string, t entity.TokenBalance, prices map[string]entity.TokenPrice) {
	if t.Amount == nil || t.Amount.Sign() == 0 {
		return
	}
	key := strings.ToLower(t.TokenID)
	info, known := s.registry.Get(key)

	holding, exists := snapshot.Holdings[key]
	if !exists {
		decimals := t.Decimals
		symbol := ""
		if known {
			decimals = info.Decimals
			symbol = info.Symbol
		}
		if decimals == 0 {
			decimals = entity.AlphDecimals
		}
		holding = &entity.ConsolidatedHolding{
			TokenID:   key,
			Symbol:    symbol,
			Decimals:  decimals,
			RawAmount: new(big.Int),
		}
		snapshot.Holdings[key] = holding
	}

	holding.RawAmount = new(big.Int).Add(holding.RawAmount, t.Amount)
	holding.Wallets = append(holding.Wallets, entity.WalletContribution{
		WalletAddress:   walletAddress,
		RawAmount:       new(big.Int).Set(t.Amount),
		FormattedAmount: utils.FormatBigInt(t.Amount, holding.Decimals),
	})
	holding.FormattedAmount = utils.FormatBigInt(holding.RawAmount, holding.Decimals)

	if known && info.IsLP {
		valuation := s.lp.ValueOf(ctx, key, holding.RawAmount, info.PoolAddress, info.UnderlyingSymbols)
		holding.Pool = &valuation
		holding.USDValue = valuation.TotalValueUSD
		return
	}

	price := prices[key]
	holding.USDValue = utils.CalculateValueUSD(holding.RawAmount, holding.Decimals, price.PriceUSD)
	holding.PriceSource = price.Source
	if holding.Symbol == "" && price.Symbol != "" {
		holding.Symbol = price.Symbol
	}
}

// collectTokenIDs gathers the distinct non-LP token ids across every wallet
// so the whole snapshot resolves prices with one batched call. LP tokens are
// valued through the pool valuer instead.
func collectTokenIDs(results []walletResult, registry port.TokenRegistry) []string {
	seen := map[string]struct{}{entity.AlphTokenID: {}}
	ids := []string{entity.AlphTokenID}
	for _, r := range results {
		if r.err != nil {
			continue
		}
		for _, t := range r.tokens {
			if t.IsNFT {
				continue
			}
			key := strings.ToLower(t.TokenID)
			if _, dup := seen[key]; dup {
				continue
			}
			if info, known := registry.Get(key); known && info.IsLP {
				continue
			}
			seen[key] = struct{}{}
			ids = append(ids, key)
		}
	}
	return ids
}

var _ port.PortfolioService = (*portfolioServiceImpl)(nil)
