package service

import (
	"context"
	"strings"
	"time"

	"portfolio_engine/internal/app/port"
	"portfolio_engine/internal/client"
	"portfolio_engine/internal/domain/entity"
	api_types "portfolio_engine/internal/entity"
	"portfolio_engine/internal/infrastructure/configloader"
	"portfolio_engine/internal/pkg/flight"
	"portfolio_engine/internal/pkg/metrics"
	"portfolio_engine/internal/pkg/ttlcache"
	"portfolio_engine/internal/pkg/utils"
)

const (
	providerMobula    = "mobula"
	providerCoinGecko = "coingecko"
)

// tokenPriceServiceImpl implements port.PriceService. Resolution order per
// token: fresh cache, primary aggregator, secondary provider (when a coin id
// is mapped), stale cache, zero-price estimate. The chain never returns an
// error; failures degrade into the Source/Confidence fields.
type tokenPriceServiceImpl struct {
	mobula     client.MobulaClient
	coingecko  client.CoinGeckoClient
	registry   port.TokenRegistry
	cache      *ttlcache.Cache[string, entity.TokenPrice]
	flights    *flight.Coordinator
	logger     port.Logger
	blockchain string
	maxBatch   int
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenPriceService creates a new instance of tokenPriceServiceImpl. A nil
// clock defaults to time.Now; tests inject their own to drive cache expiry.
func NewTokenPriceService(
	mobula client.MobulaClient,
	coingecko client.CoinGeckoClient,
	registry port.TokenRegistry,
	logger port.Logger,
	cfg *configloader.Config,
	now func() time.Time,
) port.PriceService {
	if now == nil {
		now = time.Now
	}
	s := &tokenPriceServiceImpl{
		mobula:     mobula,
		coingecko:  coingecko,
		registry:   registry,
		cache:      ttlcache.New[string, entity.TokenPrice](now),
		flights:    flight.NewCoordinator(),
		logger:     logger,
		blockchain: cfg.Mobula.Blockchain,
		maxBatch:   cfg.TokenPriceSvc.MaxTokensPerBatchRequest,
		ttl:        time.Duration(cfg.TokenPriceSvc.CacheTTLMinutes) * time.Minute,
		now:        now,
	}
	logger.Info("TokenPriceService initialized",
		"blockchain", s.blockchain,
		"cache_ttl", s.ttl.String(),
		"max_batch", s.maxBatch)
	return s
}

// GetAlphPrice returns the native coin price in USD.
func (s *tokenPriceServiceImpl) GetAlphPrice(ctx context.Context) float64 {
	return s.GetTokenPrice(ctx, entity.AlphTokenID).PriceUSD
}

// GetTokenPrice resolves a single token. The native coin is requested far
// more often than anything else, so its uncached resolution goes through the
// single-flight coordinator: concurrent callers attach to one upstream call.
func (s *tokenPriceServiceImpl) GetTokenPrice(ctx context.Context, tokenID string) entity.TokenPrice {
	key := strings.ToLower(tokenID)
	if cached, ok := s.cache.Get(key); ok {
		metrics.PriceCacheHits.Inc()
		return cached
	}
	metrics.PriceCacheMisses.Inc()

	if key == entity.AlphTokenID {
		price, err := flight.Resolve(s.flights, "price:"+key, func() (entity.TokenPrice, error) {
			return s.resolveUncached(ctx, tokenID), nil
		})
		if err != nil {
			// resolveUncached absorbs failures, so this only fires on a
			// panic inside the shared call.
			s.logger.Error("Single-flight resolution failed", "token_id", tokenID, "error", err)
			return s.staleOrEstimate(tokenID)
		}
		return price
	}
	return s.resolveUncached(ctx, tokenID)
}

// GetMultipleTokenPrices resolves a batch of token ids. The input is
// partitioned into already-cached, native and other; the native coin resolves
// once, the rest go through one batched primary call, then a batched
// secondary call for whatever is still unpriced, and finally stale-cache or
// estimate fill. Every requested id gets exactly one entry.
func (s *tokenPriceServiceImpl) GetMultipleTokenPrices(ctx context.Context, tokenIDs []string) map[string]entity.TokenPrice {
	result := make(map[string]entity.TokenPrice, len(tokenIDs))

	nativeRequested := false
	var others []string
	for _, id := range tokenIDs {
		key := strings.ToLower(id)
		if _, dup := result[key]; dup {
			continue
		}
		if cached, ok := s.cache.Get(key); ok {
			metrics.PriceCacheHits.Inc()
			result[key] = cached
			continue
		}
		metrics.PriceCacheMisses.Inc()
		if key == entity.AlphTokenID {
			nativeRequested = true
			// Reserve the slot so a duplicate id doesn't re-enter the loop.
			result[key] = entity.TokenPrice{}
			continue
		}
		result[key] = entity.TokenPrice{}
		others = append(others, key)
	}

	if nativeRequested {
		result[entity.AlphTokenID] = s.GetTokenPrice(ctx, entity.AlphTokenID)
	}

	unpriced := s.resolveBatchFromMobula(ctx, others, result)
	unpriced = s.resolveBatchFromCoinGecko(ctx, unpriced, result)

	for _, key := range unpriced {
		result[key] = s.staleOrEstimate(key)
	}
	return result
}

// resolveUncached walks the fallback chain for one token that missed the
// fresh cache.
func (s *tokenPriceServiceImpl) resolveUncached(ctx context.Context, tokenID string) entity.TokenPrice {
	if price, ok := s.resolveFromMobula(ctx, tokenID); ok {
		s.cachePrice(price)
		return price
	}
	if price, ok := s.resolveFromCoinGecko(ctx, tokenID); ok {
		s.cachePrice(price)
		return price
	}
	return s.staleOrEstimate(tokenID)
}

func (s *tokenPriceServiceImpl) resolveFromMobula(ctx context.Context, tokenID string) (entity.TokenPrice, bool) {
	metrics.UpstreamRequests.WithLabelValues(providerMobula).Inc()

	var data *api_types.MobulaTokenData
	var err error
	if strings.EqualFold(tokenID, entity.AlphTokenID) {
		data, err = s.mobula.GetTokenBySymbol(ctx, s.blockchain, entity.AlphSymbol)
	} else {
		data, err = s.mobula.GetTokenByAddress(ctx, s.blockchain, tokenID)
	}
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues(providerMobula).Inc()
		s.logger.Warn("Primary price provider failed, falling through", "token_id", tokenID, "error", err)
		return entity.TokenPrice{}, false
	}
	if data == nil {
		s.logger.Debug("Primary price provider has no data for token", "token_id", tokenID)
		return entity.TokenPrice{}, false
	}
	return s.priceFromMobulaData(tokenID, *data)
}

// priceFromMobulaData normalizes one aggregator entry. A token may carry a
// direct quote or only per-exchange pair quotes; with pairs only, the quote
// from the deepest pool wins.
func (s *tokenPriceServiceImpl) priceFromMobulaData(tokenID string, data api_types.MobulaTokenData) (entity.TokenPrice, bool) {
	priceUSD := 0.0
	if data.Price != nil && *data.Price > 0 {
		priceUSD = *data.Price
	} else if len(data.Pairs) > 0 {
		var best *api_types.MobulaPair
		for i := range data.Pairs {
			pair := &data.Pairs[i]
			if pair.Price <= 0 {
				continue
			}
			if best == nil || pair.Liquidity > best.Liquidity {
				best = pair
			}
		}
		if best != nil {
			priceUSD = best.Price
			s.logger.Debug("Selected price from highest-liquidity pair",
				"token_id", tokenID,
				"price_usd", best.Price,
				"liquidity_usd", best.Liquidity)
		}
	}
	if priceUSD <= 0 {
		return entity.TokenPrice{}, false
	}

	symbol := data.Symbol
	if info, known := s.registry.Get(tokenID); known {
		symbol = info.Symbol
	}
	return entity.TokenPrice{
		TokenID:      strings.ToLower(tokenID),
		Symbol:       symbol,
		PriceUSD:     priceUSD,
		Source:       entity.SourceMobula,
		Confidence:   entity.ConfidenceHigh,
		LastUpdated:  s.now(),
		Volume24hUSD: data.Volume24h,
		PriceInAlph:  data.PriceNative,
	}, true
}

func (s *tokenPriceServiceImpl) resolveFromCoinGecko(ctx context.Context, tokenID string) (entity.TokenPrice, bool) {
	coinID, mapped := s.registry.CoinGeckoID(tokenID)
	if !mapped {
		return entity.TokenPrice{}, false
	}

	metrics.UpstreamRequests.WithLabelValues(providerCoinGecko).Inc()
	simple, err := s.coingecko.GetSimplePrice(ctx, coinID)
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues(providerCoinGecko).Inc()
		s.logger.Warn("Secondary price provider failed, falling through",
			"token_id", tokenID, "coin_id", coinID, "error", err)
		return entity.TokenPrice{}, false
	}
	if simple == nil || simple.USD <= 0 {
		s.logger.Debug("Secondary price provider has no data for coin id", "coin_id", coinID)
		return entity.TokenPrice{}, false
	}

	return entity.TokenPrice{
		TokenID:     strings.ToLower(tokenID),
		Symbol:      s.symbolFor(tokenID),
		PriceUSD:    simple.USD,
		Source:      entity.SourceCoinGecko,
		Confidence:  entity.ConfidenceMedium,
		LastUpdated: s.now(),
	}, true
}

// resolveBatchFromMobula issues batched primary calls for the given cache
// keys, fills result for everything it priced, and returns the keys still
// unpriced. A failed batch simply leaves its members unpriced.
func (s *tokenPriceServiceImpl) resolveBatchFromMobula(ctx context.Context, keys []string, result map[string]entity.TokenPrice) []string {
	if len(keys) == 0 {
		return nil
	}

	byAddress := make(map[string]api_types.MobulaTokenData)
	for _, batch := range utils.BatchStrings(keys, s.maxBatch) {
		metrics.UpstreamRequests.WithLabelValues(providerMobula).Inc()
		data, err := s.mobula.GetTokensByAddresses(ctx, s.blockchain, batch)
		if err != nil {
			metrics.UpstreamFailures.WithLabelValues(providerMobula).Inc()
			s.logger.Warn("Primary batch price call failed",
				"batch_size", len(batch), "error", err)
			continue
		}
		for addr, d := range data {
			byAddress[addr] = d
		}
	}

	var unpriced []string
	for _, key := range keys {
		if data, ok := byAddress[key]; ok {
			if price, valid := s.priceFromMobulaData(key, data); valid {
				s.cachePrice(price)
				result[key] = price
				continue
			}
		}
		unpriced = append(unpriced, key)
	}
	return unpriced
}

// resolveBatchFromCoinGecko prices whatever the primary batch left over,
// using one batched markets call for every token with a mapped coin id.
func (s *tokenPriceServiceImpl) resolveBatchFromCoinGecko(ctx context.Context, keys []string, result map[string]entity.TokenPrice) []string {
	if len(keys) == 0 {
		return nil
	}

	coinIDToKey := make(map[string]string)
	var coinIDs []string
	for _, key := range keys {
		if coinID, mapped := s.registry.CoinGeckoID(key); mapped {
			coinIDToKey[coinID] = key
			coinIDs = append(coinIDs, coinID)
		}
	}

	priced := make(map[string]struct{})
	if len(coinIDs) > 0 {
		metrics.UpstreamRequests.WithLabelValues(providerCoinGecko).Inc()
		markets, err := s.coingecko.GetMarkets(ctx, coinIDs)
		if err != nil {
			metrics.UpstreamFailures.WithLabelValues(providerCoinGecko).Inc()
			s.logger.Warn("Secondary batch price call failed", "id_count", len(coinIDs), "error", err)
		}
		for _, m := range markets {
			key, ok := coinIDToKey[m.ID]
			if !ok || m.CurrentPrice <= 0 {
				continue
			}
			price := entity.TokenPrice{
				TokenID:      key,
				Symbol:       s.symbolFor(key),
				PriceUSD:     m.CurrentPrice,
				Source:       entity.SourceCoinGecko,
				Confidence:   entity.ConfidenceMedium,
				LastUpdated:  s.now(),
				Volume24hUSD: m.TotalVolume,
			}
			s.cachePrice(price)
			result[key] = price
			priced[key] = struct{}{}
		}
	}

	var unpriced []string
	for _, key := range keys {
		if _, ok := priced[key]; !ok {
			unpriced = append(unpriced, key)
		}
	}
	return unpriced
}

// staleOrEstimate is the end of the chain: prefer an expired cache entry,
// demoted to low confidence, over inventing a zero price.
func (s *tokenPriceServiceImpl) staleOrEstimate(tokenID string) entity.TokenPrice {
	key := strings.ToLower(tokenID)
	if stale, ok := s.cache.Peek(key); ok {
		stale.Confidence = entity.ConfidenceLow
		s.logger.Warn("All price sources exhausted, serving stale cached price",
			"token_id", key, "last_updated", stale.LastUpdated)
		return stale
	}
	metrics.EstimateFallbacks.Inc()
	s.logger.Warn("All price sources exhausted, emitting zero-price estimate", "token_id", key)
	return entity.EstimatedPrice(key, s.symbolFor(key), s.now())
}

// cachePrice stores a resolved price. Zero prices are never cached: they
// would suppress retries for the whole TTL.
func (s *tokenPriceServiceImpl) cachePrice(price entity.TokenPrice) {
	if price.PriceUSD <= 0 {
		return
	}
	s.cache.Set(strings.ToLower(price.TokenID), price, s.ttl)
}

func (s *tokenPriceServiceImpl) symbolFor(tokenID string) string {
	if info, known := s.registry.Get(tokenID); known {
		return info.Symbol
	}
	return ""
}
