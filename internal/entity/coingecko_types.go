package entity

// CoinGeckoSimplePrice is one coin's entry in the /simple/price response.
type CoinGeckoSimplePrice struct {
	USD          float64 `json:"usd"`
	USDChange24h float64 `json:"usd_24h_change,omitempty"`
}

// CoinGeckoMarketData is one entry of the batch /coins/markets response.
type CoinGeckoMarketData struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	CurrentPrice             float64 `json:"current_price"`
	TotalVolume              float64 `json:"total_volume,omitempty"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h,omitempty"`
	MarketCapRank            int     `json:"market_cap_rank,omitempty"`
}
