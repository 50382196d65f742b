package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitos/spot_arbitrage_bot/internal/config"
	"github.com/vitos/spot_arbitrage_bot/internal/domain"
	"github.com/vitos/spot_arbitrage_bot/internal/infrastructure/exchange"
	"github.com/vitos/spot_arbitrage_bot/internal/infrastructure/logger"
	"github.com/vitos/spot_arbitrage_bot/internal/infrastructure/storage"
	"github.com/vitos/spot_arbitrage_bot/internal/infrastructure/telegram"
	"github.com/vitos/spot_arbitrage_bot/internal/usecase"
	"github.com/vitos/spot_arbitrage_bot/internal/web"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Init Cooldown Storage
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to init cooldown store", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	// 4. Init Feeds
	bybit := exchange.NewBybitFeed(cfg.BybitFeed(), log)
	bitget := exchange.NewBitgetFeed(cfg.BitgetFeed(), log)

	// 5. Init Notifiers and Service
	hub := web.NewHub(log)
	tg, err := telegram.New(cfg.TelegramConfig(), log)
	if err != nil {
		log.Fatal("Failed to init telegram bot", zap.Error(err))
	}

	svc := usecase.NewArbitrageService(cfg.ArbitrageConfig(), bybit, bitget, usecase.MultiNotifier{hub, tg}, store, log)
	tg.SetController(svc)

	if err := svc.RestoreCooldowns(ctx); err != nil {
		log.Error("Failed to restore cooldowns", zap.Error(err))
	}
	if cfg.Arbitrage.AutoStart {
		ack, _ := svc.Start()
		log.Info(ack)
	}

	// 6. Start Telegram polling
	go tg.Run(ctx)

	// 7. Start Web Server
	server := web.NewServer(cfg.Server.Port, cfg.Server.ControlToken, svc, hub, log)
	if cfg.Server.ControlToken == "" {
		log.Info("HTTP control routes disabled, set CONTROL_TOKEN to enable them")
	}
	go func() {
		if err := server.Start(); err != nil {
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	// 8. Wait for Shutdown
	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		log.Warn("Arbitrage loop did not stop in time", zap.Error(err))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Web server shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config) (domain.CooldownStore, error) {
	switch cfg.Storage.Backend {
	case config.StoreSQLite:
		s, err := storage.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreRedis:
		s, err := storage.NewRedisStore(ctx, cfg.RedisConfig())
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, nil
	}
}
