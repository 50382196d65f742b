package usecase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vitos/spot_arbitrage_bot/internal/domain"
)

// FormatOpportunity renders the Markdown alert for one opportunity.
func FormatOpportunity(o domain.Opportunity) string {
	var sb strings.Builder
	sb.WriteString("🚨 *SPOT ARBITRAGE OPPORTUNITY*\n\n")
	fmt.Fprintf(&sb, "🪙 `%s`\n", o.Symbol)
	fmt.Fprintf(&sb, "📉 Buy: *%s*\n", o.BuyFeed)
	fmt.Fprintf(&sb, "📈 Sell: *%s*\n\n", o.SellFeed)
	fmt.Fprintf(&sb, "💰 %s: `%s`\n", o.FeedA, formatPrice(o.PriceA))
	fmt.Fprintf(&sb, "💰 %s: `%s`\n", o.FeedB, formatPrice(o.PriceB))
	fmt.Fprintf(&sb, "📊 Difference: *$%.2f*", o.Diff)
	return sb.String()
}

// FormatFeedFailure renders the Markdown warning sent when a feed fails.
func FormatFeedFailure(feed string, err error) string {
	reason := "unexpected error"
	var fe *domain.FeedError
	if errors.As(err, &fe) {
		switch fe.Kind {
		case domain.FeedUnreachable:
			reason = "unreachable"
		case domain.FeedHTTPStatus:
			reason = fmt.Sprintf("HTTP status %d", fe.StatusCode)
		case domain.FeedMalformedResponse:
			reason = "malformed response"
		}
	}
	return fmt.Sprintf("⚠️ *FEED UNAVAILABLE*\n\n🏦 Exchange: *%s*\n❗ Reason: `%s`\n\nOpportunities are paused until the feed recovers.", feed, reason)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
