package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/spot_arbitrage_bot/internal/domain"
)

func TestFormatOpportunity_FieldOrder(t *testing.T) {
	text := FormatOpportunity(domain.Opportunity{
		Symbol:   "BTCUSDT",
		FeedA:    "Bybit",
		FeedB:    "Bitget",
		PriceA:   50000,
		PriceB:   50000.6,
		Diff:     0.6000000000021828,
		BuyFeed:  "Bybit",
		SellFeed: "Bitget",
	})

	order := []string{
		"`BTCUSDT`",
		"Buy: *Bybit*",
		"Sell: *Bitget*",
		"Bybit: `50000`",
		"Bitget: `50000.6`",
		"Difference: *$0.60*",
	}
	last := -1
	for _, part := range order {
		idx := strings.Index(text, part)
		if assert.GreaterOrEqual(t, idx, 0, part) {
			assert.Greater(t, idx, last, part)
			last = idx
		}
	}
}

func TestFormatFeedFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"status", &domain.FeedError{Feed: "Bybit", Kind: domain.FeedHTTPStatus, StatusCode: 502}, "HTTP status 502"},
		{"unreachable", &domain.FeedError{Feed: "Bybit", Kind: domain.FeedUnreachable}, "unreachable"},
		{"malformed", &domain.FeedError{Feed: "Bybit", Kind: domain.FeedMalformedResponse}, "malformed response"},
		{"other", errors.New("boom"), "unexpected error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := FormatFeedFailure("Bybit", tt.err)
			assert.Contains(t, text, "*Bybit*")
			assert.Contains(t, text, tt.want)
		})
	}
}
