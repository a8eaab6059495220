package entity

import (
	"math/big"
	"time"
)

// Wallet is a user-tracked address.
type Wallet struct {
	Address string `json:"address"`
	Network string `json:"network,omitempty"`
}

// WalletContribution records one wallet's share of a consolidated holding.
type WalletContribution struct {
	WalletAddress   string   `json:"walletAddress"`
	RawAmount       *big.Int `json:"-"`
	FormattedAmount string   `json:"formattedAmount"`
}

// ConsolidatedHolding is the per-token view across every tracked wallet.
// RawAmount is the exact integer sum of all contributions; FormattedAmount
// and USDValue are re-derived from that sum on every merge, never by adding
// previously rounded per-wallet figures.
type ConsolidatedHolding struct {
	TokenID         string               `json:"tokenId"`
	Symbol          string               `json:"symbol"`
	Decimals        uint8                `json:"decimals"`
	RawAmount       *big.Int             `json:"-"`
	FormattedAmount string               `json:"formattedAmount"`
	USDValue        float64              `json:"usdValue"`
	PriceSource     PriceSource          `json:"priceSource,omitempty"`
	Pool            *PoolValuation       `json:"pool,omitempty"`
	Wallets         []WalletContribution `json:"wallets"`
}

// PortfolioSnapshot is one consistent view over the whole wallet set. It is
// rebuilt from scratch on every refresh cycle, never mutated incrementally.
type PortfolioSnapshot struct {
	Balances  map[string]float64              `json:"balances"`
	Holdings  map[string]*ConsolidatedHolding `json:"holdings"`
	TotalUSD  float64                         `json:"totalUSD"`
	Errors    []PortfolioError                `json:"errors,omitempty"`
	FetchedAt time.Time                       `json:"fetchedAt"`
}
