package entity

import "errors"

// ErrNoPriceData is returned by an adapter that answered successfully but has
// nothing for the requested token. It is treated like a transport failure for
// fallback purposes, but it is not retried against the same adapter within
// one resolution pass.
var ErrNoPriceData = errors.New("no price data for token")

// ErrPoolStateUnavailable is returned by pool-state providers that cannot
// read on-chain reserves. Reserve-based LP valuation is a stated future
// extension; callers fall back to the tagged estimate.
var ErrPoolStateUnavailable = errors.New("pool state unavailable")

// PortfolioError captures a failure for one wallet (or one token within a
// wallet) during aggregation. Aggregation never raises these to the caller;
// they ride along in the snapshot for observability.
type PortfolioError struct {
	WalletAddress string `json:"walletAddress"`
	TokenID       string `json:"tokenId,omitempty"`
	Message       string `json:"message"`
}
