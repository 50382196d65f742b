package domain

// Ticker is a single exchange ticker record reduced to the fields the
// feeds care about.
type Ticker struct {
	Symbol         string  `json:"symbol"`
	LastPrice      float64 `json:"last_price"`
	QuoteVolume24h float64 `json:"quote_volume_24h"` // Turnover in quote currency (USDT)
}
