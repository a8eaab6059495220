package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"portfolio_engine/internal/app/port"
	"portfolio_engine/internal/domain/entity"
	"portfolio_engine/internal/pkg/ttlcache"
	"portfolio_engine/internal/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	// Discounts applied when estimating an underlying with no live quote.
	mappedTokenDiscount  = 0.1
	unknownTokenDiscount = 0.01

	lpUnitCacheTTL = 5 * time.Minute
)

// stablecoinSymbols are underlyings pegged to one dollar for estimation.
var stablecoinSymbols = map[string]struct{}{
	"USDT": {},
	"USDC": {},
	"DAI":  {},
}

// lpValuerImpl implements port.LPValuer. When pool reserves are readable the
// valuation is exact and tagged calculated; otherwise a heuristic per-unit
// estimate is cached and scaled linearly by the held amount, tagged
// estimated. The two tags are never mixed: a valuation is exact or it is not.
type lpValuerImpl struct {
	prices    port.PriceService
	pool      port.PoolStateProvider
	registry  port.TokenRegistry
	unitCache *ttlcache.Cache[string, entity.PoolValuation]
	logger    port.Logger
	now       func() time.Time
}

// NewLPValuer creates a new instance of lpValuerImpl. A nil clock defaults to
// time.Now.
func NewLPValuer(
	prices port.PriceService,
	pool port.PoolStateProvider,
	registry port.TokenRegistry,
	logger port.Logger,
	now func() time.Time,
) port.LPValuer {
	if now == nil {
		now = time.Now
	}
	return &lpValuerImpl{
		prices:    prices,
		pool:      pool,
		registry:  registry,
		unitCache: ttlcache.New[string, entity.PoolValuation](now),
		logger:    logger,
		now:       now,
	}
}

// ValueOf values a held LP token amount in USD.
func (s *lpValuerImpl) ValueOf(ctx context.Context, tokenID string, rawAmount *big.Int, poolAddress string, underlying [2]string) entity.PoolValuation {
	key := strings.ToLower(tokenID)
	label := poolLabel(underlying)
	decimals := s.lpDecimals(tokenID)
	amountHuman := utils.ToHumanUnits(rawAmount, decimals)

	if unit, ok := s.unitCache.Get(key); ok {
		return scaleValuation(unit, amountHuman)
	}

	if poolAddress != "" {
		state, err := s.pool.GetPoolState(ctx, poolAddress)
		if err == nil {
			return s.calculateFromReserves(ctx, key, rawAmount, underlying, state, label)
		}
		if !errors.Is(err, entity.ErrPoolStateUnavailable) {
			s.logger.Warn("Pool state lookup failed, falling back to estimate",
				"pool_address", poolAddress, "error", err)
		}
	}

	unit := s.estimateUnitValuation(ctx, key, underlying, label)
	s.unitCache.Set(key, unit, lpUnitCacheTTL)
	return scaleValuation(unit, amountHuman)
}

// calculateFromReserves prices the held share of the pool from actual
// reserves: share = held / totalSupply, each side valued at its live price.
func (s *lpValuerImpl) calculateFromReserves(ctx context.Context, tokenID string, rawAmount *big.Int, underlying [2]string, state entity.PoolState, label string) entity.PoolValuation {
	if state.TotalSupply == nil || state.TotalSupply.Sign() <= 0 {
		s.logger.Warn("Pool reported zero total supply, falling back to estimate", "token_id", tokenID)
		unit := s.estimateUnitValuation(ctx, tokenID, underlying, label)
		return scaleValuation(unit, utils.ToHumanUnits(rawAmount, s.lpDecimals(tokenID)))
	}
	held := decimal.Zero
	if rawAmount != nil {
		held = decimal.NewFromBigInt(rawAmount, 0)
	}
	share := held.Div(decimal.NewFromBigInt(state.TotalSupply, 0))

	assetA := s.valueReserveSide(ctx, underlying[0], state.Reserve0, share)
	assetB := s.valueReserveSide(ctx, underlying[1], state.Reserve1, share)

	return entity.PoolValuation{
		TokenID:       tokenID,
		TotalValueUSD: assetA.ValueUSD + assetB.ValueUSD,
		Breakdown:     entity.PoolBreakdown{AssetA: assetA, AssetB: assetB},
		Source:        entity.PoolSourceCalculated,
		PoolLabel:     label,
	}
}

func (s *lpValuerImpl) valueReserveSide(ctx context.Context, symbol string, reserve *big.Int, share decimal.Decimal) entity.PoolAsset {
	decimals := uint8(entity.AlphDecimals)
	price := 0.0
	if info, known := s.registry.BySymbol(symbol); known {
		decimals = info.Decimals
		price = s.prices.GetTokenPrice(ctx, info.ID).PriceUSD
	} else {
		price = s.heuristicUnitPrice(ctx, symbol)
	}

	amount := 0.0
	if reserve != nil {
		total := decimal.NewFromBigInt(reserve, -int32(decimals))
		amount, _ = total.Mul(share).Float64()
	}
	return entity.PoolAsset{
		Symbol:   symbol,
		Amount:   amount,
		ValueUSD: amount * price,
	}
}

// estimateUnitValuation builds a heuristic valuation for exactly one LP
// token: price each underlying, assume a balanced 50/50 pool, average the
// two sides.
func (s *lpValuerImpl) estimateUnitValuation(ctx context.Context, tokenID string, underlying [2]string, label string) entity.PoolValuation {
	priceA := s.heuristicUnitPrice(ctx, underlying[0])
	priceB := s.heuristicUnitPrice(ctx, underlying[1])
	perUnit := (priceA + priceB) / 2

	s.logger.Debug("Built heuristic per-unit pool valuation",
		"token_id", tokenID,
		"pool", label,
		"unit_value_usd", perUnit)

	return entity.PoolValuation{
		TokenID:       tokenID,
		TotalValueUSD: perUnit,
		Breakdown: entity.PoolBreakdown{
			AssetA: entity.PoolAsset{Symbol: underlying[0], Amount: 0.5, ValueUSD: perUnit / 2},
			AssetB: entity.PoolAsset{Symbol: underlying[1], Amount: 0.5, ValueUSD: perUnit / 2},
		},
		Source:    entity.PoolSourceEstimated,
		PoolLabel: label,
	}
}

// heuristicUnitPrice classifies an underlying by symbol: stablecoins are a
// dollar, the native coin trades live, anything in the registry is worth a
// tenth of the native price, anything unknown a hundredth.
func (s *lpValuerImpl) heuristicUnitPrice(ctx context.Context, symbol string) float64 {
	upper := strings.ToUpper(symbol)
	if _, ok := stablecoinSymbols[upper]; ok {
		return 1.0
	}
	alphPrice := s.prices.GetAlphPrice(ctx)
	if upper == entity.AlphSymbol {
		return alphPrice
	}
	if _, known := s.registry.BySymbol(symbol); known {
		return alphPrice * mappedTokenDiscount
	}
	return alphPrice * unknownTokenDiscount
}

func (s *lpValuerImpl) lpDecimals(tokenID string) uint8 {
	if info, known := s.registry.Get(tokenID); known && info.Decimals > 0 {
		return info.Decimals
	}
	return entity.AlphDecimals
}

// scaleValuation multiplies a per-unit valuation by the held amount.
func scaleValuation(unit entity.PoolValuation, amountHuman float64) entity.PoolValuation {
	scaled := unit
	scaled.TotalValueUSD = unit.TotalValueUSD * amountHuman
	scaled.Breakdown.AssetA.Amount = unit.Breakdown.AssetA.Amount * amountHuman
	scaled.Breakdown.AssetA.ValueUSD = unit.Breakdown.AssetA.ValueUSD * amountHuman
	scaled.Breakdown.AssetB.Amount = unit.Breakdown.AssetB.Amount * amountHuman
	scaled.Breakdown.AssetB.ValueUSD = unit.Breakdown.AssetB.ValueUSD * amountHuman
	return scaled
}

func poolLabel(underlying [2]string) string {
	return fmt.Sprintf("%s/%s", underlying[0], underlying[1])
}
