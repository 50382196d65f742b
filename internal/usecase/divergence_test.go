package usecase

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/spot_arbitrage_bot/internal/domain"
)

func collect(a, b domain.PriceSnapshot, minDiff float64) []domain.Opportunity {
	out := slices.Collect(Detect(a, b, "Bybit", "Bitget", minDiff))
	slices.SortFunc(out, func(x, y domain.Opportunity) int {
		if x.Symbol < y.Symbol {
			return -1
		}
		if x.Symbol > y.Symbol {
			return 1
		}
		return 0
	})
	return out
}

func TestDetect_SingleDivergence(t *testing.T) {
	a := domain.PriceSnapshot{"BTCUSDT": 50000.0, "ETHUSDT": 3000.0}
	b := domain.PriceSnapshot{"BTCUSDT": 50000.6, "ETHUSDT": 3000.0}

	opps := collect(a, b, 0.5)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, "BTCUSDT", opp.Symbol)
	assert.Equal(t, "Bybit", opp.BuyFeed)
	assert.Equal(t, "Bitget", opp.SellFeed)
	assert.InDelta(t, 0.6, opp.Diff, 1e-9)
	assert.Equal(t, 50000.0, opp.PriceA)
	assert.Equal(t, 50000.6, opp.PriceB)
}

func TestDetect_BuySideIsCheaperFeed(t *testing.T) {
	a := domain.PriceSnapshot{"SOLUSDT": 151}
	b := domain.PriceSnapshot{"SOLUSDT": 150}

	opps := collect(a, b, 0.5)
	require.Len(t, opps, 1)
	assert.Equal(t, "Bitget", opps[0].BuyFeed)
	assert.Equal(t, "Bybit", opps[0].SellFeed)
}

func TestDetect_ThresholdIsInclusive(t *testing.T) {
	a := domain.PriceSnapshot{"XUSDT": 10}
	b := domain.PriceSnapshot{"XUSDT": 11}

	assert.Len(t, collect(a, b, 1), 1)
	assert.Empty(t, collect(a, b, 1.0001))
}

func TestDetect_OnlyIntersection(t *testing.T) {
	a := domain.PriceSnapshot{"AUSDT": 1, "BUSDT": 100}
	b := domain.PriceSnapshot{"BUSDT": 200, "CUSDT": 5}

	opps := collect(a, b, 0)
	require.Len(t, opps, 1)
	assert.Equal(t, "BUSDT", opps[0].Symbol)
	assert.Equal(t, 1, CommonSymbols(a, b))
}

func TestDetect_EmptyOrNilSnapshots(t *testing.T) {
	assert.Empty(t, collect(nil, domain.PriceSnapshot{"BTCUSDT": 1}, 0))
	assert.Empty(t, collect(domain.PriceSnapshot{}, nil, 0))
}

// Every result is in A∩B with diff >= t, and every such symbol is reported.
func TestDetect_SoundAndComplete(t *testing.T) {
	a := domain.PriceSnapshot{}
	b := domain.PriceSnapshot{}
	for i := 0; i < 200; i++ {
		sym := string(rune('A'+i%26)) + string(rune('A'+i/26)) + "USDT"
		a[sym] = float64(100 + i)
		if i%3 != 0 {
			b[sym] = float64(100+i) + float64(i%7)*0.3
		}
	}
	const threshold = 0.9

	got := map[string]bool{}
	for opp := range Detect(a, b, "A", "B", threshold) {
		_, inA := a[opp.Symbol]
		_, inB := b[opp.Symbol]
		require.True(t, inA && inB, opp.Symbol)
		require.GreaterOrEqual(t, opp.Diff, threshold)
		got[opp.Symbol] = true
	}

	for sym, pa := range a {
		pb, ok := b[sym]
		if !ok {
			continue
		}
		assert.Equal(t, math.Abs(pa-pb) >= threshold, got[sym], sym)
	}
}

func TestDetect_Idempotent(t *testing.T) {
	a := domain.PriceSnapshot{"BTCUSDT": 50000, "ETHUSDT": 3000, "SOLUSDT": 150}
	b := domain.PriceSnapshot{"BTCUSDT": 50010, "ETHUSDT": 2990, "SOLUSDT": 150.1}

	assert.Equal(t, collect(a, b, 0.5), collect(a, b, 0.5))
}

func TestDetect_StopsWhenConsumerBreaks(t *testing.T) {
	a := domain.PriceSnapshot{"AUSDT": 1, "BUSDT": 1, "CUSDT": 1}
	b := domain.PriceSnapshot{"AUSDT": 5, "BUSDT": 5, "CUSDT": 5}

	n := 0
	for range Detect(a, b, "A", "B", 1) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestCollectOpportunities_OrderedByDiff(t *testing.T) {
	a := domain.PriceSnapshot{"AUSDT": 10, "BUSDT": 10, "CUSDT": 10}
	b := domain.PriceSnapshot{"AUSDT": 11, "BUSDT": 13, "CUSDT": 13}

	opps := CollectOpportunities(a, b, "Bybit", "Bitget", 0.5)
	require.Len(t, opps, 3)
	assert.Equal(t, []string{"BUSDT", "CUSDT", "AUSDT"},
		[]string{opps[0].Symbol, opps[1].Symbol, opps[2].Symbol})
}
