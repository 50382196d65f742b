package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vitos/spot_arbitrage_bot/internal/config"
	"github.com/vitos/spot_arbitrage_bot/internal/domain"
	"github.com/vitos/spot_arbitrage_bot/internal/infrastructure/exchange"
	"github.com/vitos/spot_arbitrage_bot/internal/usecase"
	"go.uber.org/zap"
)

// check_exchange fetches both feeds once and prints what the bot would alert
// on, without sending anything.
func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	limit := flag.Int("limit", 20, "max opportunities to print")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := zap.NewNop()
	bybit := exchange.NewBybitFeed(cfg.BybitFeed(), log)
	bitget := exchange.NewBitgetFeed(cfg.BitgetFeed(), log)

	// 2. Check both public ticker endpoints
	snaps := make([]domain.PriceSnapshot, 0, 2)
	for _, feed := range []domain.PriceFeed{bybit, bitget} {
		start := time.Now()
		prices, err := feed.FetchPrices(ctx)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", feed.Name(), err)
			os.Exit(1)
		}
		fmt.Printf("✅ %s: %d pairs above volume filter (%s)\n", feed.Name(), len(prices), time.Since(start).Truncate(time.Millisecond))
		snaps = append(snaps, prices)
	}

	// 3. Run detection once
	opps := usecase.CollectOpportunities(snaps[0], snaps[1], bybit.Name(), bitget.Name(), cfg.Arbitrage.MinDiff)

	fmt.Printf("Common pairs: %d, opportunities (min diff %.2f): %d\n",
		usecase.CommonSymbols(snaps[0], snaps[1]), cfg.Arbitrage.MinDiff, len(opps))
	for i, o := range opps {
		if i >= *limit {
			fmt.Printf("... %d more\n", len(opps)-i)
			break
		}
		fmt.Printf("- %-14s buy %-7s sell %-7s %s=%v %s=%v diff=%.2f\n",
			o.Symbol, o.BuyFeed, o.SellFeed, o.FeedA, o.PriceA, o.FeedB, o.PriceB, o.Diff)
	}
}
