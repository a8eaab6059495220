package entity

// MobulaTokenResponse wraps the aggregator's market/query payload.
type MobulaTokenResponse struct {
	Data []MobulaTokenData `json:"data"`
}

// MobulaTokenData is one asset entry. Price is a pointer because the
// aggregator omits it for tokens that only trade through pairs; consumers
// then fall back to the highest-liquidity pair price.
type MobulaTokenData struct {
	Symbol      string       `json:"symbol"`
	Address     string       `json:"address,omitempty"`
	Price       *float64     `json:"price,omitempty"`
	PriceNative float64      `json:"price_native,omitempty"`
	Volume24h   float64      `json:"volume_24h,omitempty"`
	Pairs       []MobulaPair `json:"pairs,omitempty"`
}

// MobulaPair is a per-exchange trading pair quote.
type MobulaPair struct {
	Liquidity float64         `json:"liquidity"`
	Price     float64         `json:"price"`
	Token0    MobulaPairToken `json:"token0"`
	Token1    MobulaPairToken `json:"token1"`
}

// MobulaPairToken identifies one side of a pair.
type MobulaPairToken struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
}
