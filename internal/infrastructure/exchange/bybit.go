package exchange

import (
	"context"
	"fmt"

	"github.com/vitos/spot_arbitrage_bot/internal/domain"
	"go.uber.org/zap"
)

const (
	BybitName    = "Bybit"
	BybitBaseURL = "https://api.bybit.com"

	bybitSpotTickersPath = "/v5/market/tickers?category=spot"
)

// BybitFeed reads the Bybit v5 public spot tickers.
type BybitFeed struct {
	tickerFeed
}

func NewBybitFeed(cfg FeedConfig, logger *zap.Logger) *BybitFeed {
	cfg = cfg.withDefaults(BybitName, BybitBaseURL)
	return &BybitFeed{tickerFeed: newTickerFeed(cfg, logger)}
}

type bybitTickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category string `json:"category"`
		List     []struct {
			Symbol      string  `json:"symbol"`
			LastPrice   numeric `json:"lastPrice"`
			Turnover24h numeric `json:"turnover24h"`
		} `json:"list"`
	} `json:"result"`
}

func (b *BybitFeed) FetchPrices(ctx context.Context) (domain.PriceSnapshot, error) {
	b.logger.Debug("Fetching spot tickers")

	var resp bybitTickersResponse
	if err := b.getJSON(ctx, bybitSpotTickersPath, &resp); err != nil {
		return nil, err
	}
	if resp.RetCode != 0 {
		return nil, b.feedError(domain.FeedMalformedResponse,
			fmt.Errorf("retCode %d: %s", resp.RetCode, resp.RetMsg))
	}

	tickers := make([]domain.Ticker, 0, len(resp.Result.List))
	for _, item := range resp.Result.List {
		if t, ok := toTicker(item.Symbol, item.LastPrice, item.Turnover24h); ok {
			tickers = append(tickers, t)
		}
	}
	return b.snapshot(tickers), nil
}
