package port

import (
	"context"
	"math/big"

	"portfolio_engine/internal/domain/entity"
)

// PriceService resolves token prices. None of its methods return an error:
// upstream failures degrade to stale cached values or tagged zero-price
// estimates, and the caller reads the Source/Confidence fields instead of an
// error value.
type PriceService interface {
	// GetAlphPrice returns the native coin price in USD (0 when only an
	// estimate is available).
	GetAlphPrice(ctx context.Context) float64

	// GetTokenPrice resolves a single token.
	GetTokenPrice(ctx context.Context, tokenID string) entity.TokenPrice

	// GetMultipleTokenPrices resolves a batch. The result holds exactly one
	// entry per requested id, whatever the upstream success/failure mix.
	GetMultipleTokenPrices(ctx context.Context, tokenIDs []string) map[string]entity.TokenPrice
}

// LPValuer turns an LP token balance into a USD valuation with an
// underlying-asset breakdown.
type LPValuer interface {
	ValueOf(ctx context.Context, tokenID string, rawAmount *big.Int, poolAddress string, underlying [2]string) entity.PoolValuation
}
