package domain

import "time"

// PriceSnapshot maps an exchange-native symbol (e.g. BTCUSDT) to its last
// traded price. A snapshot belongs to the cycle that fetched it.
type PriceSnapshot map[string]float64

// Symbols returns the snapshot keys in no particular order.
func (s PriceSnapshot) Symbols() []string {
	out := make([]string, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	return out
}

// Opportunity is a symbol whose price differs between two feeds by at least
// the configured threshold.
type Opportunity struct {
	Symbol   string  `json:"symbol"`
	FeedA    string  `json:"feed_a"`
	FeedB    string  `json:"feed_b"`
	PriceA   float64 `json:"price_a"`
	PriceB   float64 `json:"price_b"`
	Diff     float64 `json:"diff"`
	BuyFeed  string  `json:"buy"`
	SellFeed string  `json:"sell"`
}

type AlertKind string

const (
	AlertOpportunity AlertKind = "opportunity"
	AlertFeedFailure AlertKind = "feed_failure"
)

// Alert is what the scheduler hands to notifiers after the gate let it through.
type Alert struct {
	Kind        AlertKind    `json:"kind"`
	Key         string       `json:"key"`
	Text        string       `json:"text"`
	Opportunity *Opportunity `json:"opportunity,omitempty"`
	Feed        string       `json:"feed,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
