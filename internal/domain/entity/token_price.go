package entity

import "time"

// PriceSource identifies which upstream produced a resolved price.
type PriceSource string

const (
	// SourceMobula is the primary market aggregator.
	SourceMobula PriceSource = "mobula"
	// SourceCoinGecko is the secondary market-data provider.
	SourceCoinGecko PriceSource = "coingecko"
	// SourceEstimate marks a price the engine made up because no upstream had data.
	SourceEstimate PriceSource = "estimate"
)

// Confidence expresses how much a resolved price should be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// TokenPrice is the normalized price record every adapter and the resolution
// pipeline converge on.
//
// Invariants: Confidence == high implies Source != estimate, and
// PriceUSD == 0 implies Confidence == low.
type TokenPrice struct {
	TokenID      string      `json:"tokenId"`
	Symbol       string      `json:"symbol"`
	PriceUSD     float64     `json:"priceUSD"`
	Source       PriceSource `json:"source"`
	Confidence   Confidence  `json:"confidence"`
	LastUpdated  time.Time   `json:"lastUpdated"`
	Volume24hUSD float64     `json:"volume24hUSD,omitempty"`
	PriceInAlph  float64     `json:"priceInAlph,omitempty"`
}

// EstimatedPrice builds the zero-price, low-confidence record the pipeline
// emits when every source is exhausted.
func EstimatedPrice(tokenID, symbol string, now time.Time) TokenPrice {
	return TokenPrice{
		TokenID:     tokenID,
		Symbol:      symbol,
		PriceUSD:    0,
		Source:      SourceEstimate,
		Confidence:  ConfidenceLow,
		LastUpdated: now,
	}
}
