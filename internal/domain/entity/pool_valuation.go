package entity

import "math/big"

// PoolValuationSource distinguishes a valuation computed from on-chain pool
// reserves from the conservative heuristic estimate. The two must never be
// conflated downstream.
type PoolValuationSource string

const (
	PoolSourceCalculated PoolValuationSource = "calculated"
	PoolSourceEstimated  PoolValuationSource = "estimated"
)

// PoolAsset is one side of an LP token's underlying pair.
type PoolAsset struct {
	Symbol   string  `json:"symbol"`
	Amount   float64 `json:"amount"`
	ValueUSD float64 `json:"valueUSD"`
}

// PoolBreakdown splits an LP valuation into its two underlying assets.
type PoolBreakdown struct {
	AssetA PoolAsset `json:"assetA"`
	AssetB PoolAsset `json:"assetB"`
}

// PoolValuation is the USD value of an LP token balance.
//
// Invariant: TotalValueUSD equals AssetA.ValueUSD + AssetB.ValueUSD within
// rounding.
type PoolValuation struct {
	TokenID       string              `json:"tokenId"`
	TotalValueUSD float64             `json:"totalValueUSD"`
	Breakdown     PoolBreakdown       `json:"breakdown"`
	Source        PoolValuationSource `json:"source"`
	PoolLabel     string              `json:"poolLabel"`
}

// PoolState is a snapshot of an AMM pool's reserves, as a reserve-based
// valuer would need it.
type PoolState struct {
	Reserve0    *big.Int
	Reserve1    *big.Int
	TotalSupply *big.Int
}
