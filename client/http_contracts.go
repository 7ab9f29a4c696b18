package client

// TickerStats represents one entry of the 24h ticker statistics response
type TickerStats struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	CloseTime          int64  `json:"closeTime"`
}

// KlineStats is one candlestick from the klines endpoint
type KlineStats struct {
	OpenTime  int64  `json:"openTime"`
	Open      string `json:"open"`
	Close     string `json:"close"`
	CloseTime int64  `json:"closeTime"`
}
