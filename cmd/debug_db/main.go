package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/vitos/spot_arbitrage_bot/internal/config"
	"github.com/vitos/spot_arbitrage_bot/internal/infrastructure/storage"
	"github.com/vitos/spot_arbitrage_bot/internal/usecase"
)

// debug_db lists the cooldowns persisted in the SQLite store and whether
// each one still suppresses alerts.
func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		fmt.Printf("Failed to init sqlite: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now()
	windows := map[string]time.Duration{
		usecase.NamespaceSymbol: cfg.Arbitrage.SymbolCooldown,
		usecase.NamespaceFeed:   cfg.Arbitrage.FeedCooldown,
	}

	for _, ns := range []string{usecase.NamespaceSymbol, usecase.NamespaceFeed} {
		entries, err := store.LoadCooldowns(ctx, ns)
		if err != nil {
			fmt.Printf("Failed to load %s cooldowns: %v\n", ns, err)
			os.Exit(1)
		}

		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Printf("Found %d %s cooldowns (window %s):\n", len(keys), ns, windows[ns])
		for _, k := range keys {
			remaining := windows[ns] - now.Sub(entries[k])
			if remaining > 0 {
				fmt.Printf("- %s: sent %s, ⏳ suppressed for %s\n", k, entries[k].Format(time.RFC3339), remaining.Truncate(time.Second))
			} else {
				fmt.Printf("- %s: sent %s, ✅ expired\n", k, entries[k].Format(time.RFC3339))
			}
		}
	}
}
