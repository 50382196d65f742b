package usecase

import (
	"cmp"
	"iter"
	"math"
	"slices"

	"github.com/vitos/spot_arbitrage_bot/internal/domain"
)

// Detect yields an Opportunity for every symbol present in both snapshots
// whose absolute price difference is at least minDiff. The cheaper feed is
// the buy side. Iteration order follows map order and is unspecified.
func Detect(a, b domain.PriceSnapshot, feedA, feedB string, minDiff float64) iter.Seq[domain.Opportunity] {
	return func(yield func(domain.Opportunity) bool) {
		// Walk the smaller map; the intersection is the same either way.
		small, large := a, b
		if len(b) < len(a) {
			small, large = b, a
		}
		for symbol := range small {
			if _, ok := large[symbol]; !ok {
				continue
			}
			pa, pb := a[symbol], b[symbol]
			diff := math.Abs(pa - pb)
			if diff < minDiff {
				continue
			}

			opp := domain.Opportunity{
				Symbol: symbol,
				FeedA:  feedA,
				FeedB:  feedB,
				PriceA: pa,
				PriceB: pb,
				Diff:   diff,
			}
			if pa < pb {
				opp.BuyFeed, opp.SellFeed = feedA, feedB
			} else {
				opp.BuyFeed, opp.SellFeed = feedB, feedA
			}

			if !yield(opp) {
				return
			}
		}
	}
}

// CollectOpportunities drains Detect into a slice ordered by descending
// difference, then symbol.
func CollectOpportunities(a, b domain.PriceSnapshot, feedA, feedB string, minDiff float64) []domain.Opportunity {
	opps := slices.Collect(Detect(a, b, feedA, feedB, minDiff))
	slices.SortFunc(opps, func(x, y domain.Opportunity) int {
		if c := cmp.Compare(y.Diff, x.Diff); c != 0 {
			return c
		}
		return cmp.Compare(x.Symbol, y.Symbol)
	})
	return opps
}

// CommonSymbols counts the symbols quoted by both snapshots.
func CommonSymbols(a, b domain.PriceSnapshot) int {
	n := 0
	for symbol := range a {
		if _, ok := b[symbol]; ok {
			n++
		}
	}
	return n
}
