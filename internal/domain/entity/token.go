package entity

import "math/big"

// AlphTokenID is the identifier the engine uses for the native coin. The node
// reports native balances separately from token balances, so any non-colliding
// constant works; the zero id mirrors how the chain encodes "no contract".
const AlphTokenID = "0000000000000000000000000000000000000000000000000000000000000000"

// AlphSymbol is the native coin ticker.
const AlphSymbol = "ALPH"

// AlphDecimals is the number of minor units per native coin.
const AlphDecimals = uint8(18)

// TokenInfo describes a token known to the registry.
type TokenInfo struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Decimals    uint8  `json:"decimals"`
	LogoURI     string `json:"logoURI,omitempty"`
	CoinGeckoID string `json:"coinGeckoId,omitempty"`
	IsLP        bool   `json:"isLP,omitempty"`
	// PoolAddress and UnderlyingSymbols are only set for LP tokens.
	PoolAddress       string    `json:"poolAddress,omitempty"`
	UnderlyingSymbols [2]string `json:"underlyingSymbols,omitempty"`
}

// TokenBalance is a single token holding reported by the node for an address.
type TokenBalance struct {
	TokenID  string
	Amount   *big.Int
	Decimals uint8
	IsNFT    bool
	TokenURI string
}
