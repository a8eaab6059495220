package port

import "portfolio_engine/internal/domain/entity"

// TokenRegistry exposes the static token list: symbols, decimals, LP
// metadata and the symbol-to-provider-id mapping used by the secondary price
// provider.
type TokenRegistry interface {
	// Get returns metadata for a token id, if known.
	Get(tokenID string) (entity.TokenInfo, bool)

	// CoinGeckoID returns the provider-specific coin id mapped to a token,
	// if one is maintained.
	CoinGeckoID(tokenID string) (string, bool)

	// BySymbol looks a token up by its ticker, case-insensitively.
	BySymbol(symbol string) (entity.TokenInfo, bool)

	// All returns every known token.
	All() []entity.TokenInfo
}
