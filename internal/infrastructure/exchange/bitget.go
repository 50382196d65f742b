package exchange

import (
	"context"
	"fmt"

	"github.com/vitos/spot_arbitrage_bot/internal/domain"
	"go.uber.org/zap"
)

const (
	BitgetName    = "Bitget"
	BitgetBaseURL = "https://api.bitget.com"

	bitgetSpotTickersPath = "/api/v2/spot/market/tickers"
	bitgetSuccessCode     = "00000"
)

// BitgetFeed reads the Bitget v2 public spot tickers.
type BitgetFeed struct {
	tickerFeed
}

func NewBitgetFeed(cfg FeedConfig, logger *zap.Logger) *BitgetFeed {
	cfg = cfg.withDefaults(BitgetName, BitgetBaseURL)
	return &BitgetFeed{tickerFeed: newTickerFeed(cfg, logger)}
}

type bitgetTickersResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		Symbol     string  `json:"symbol"`
		LastPr     numeric `json:"lastPr"`
		USDTVolume numeric `json:"usdtVolume"`
	} `json:"data"`
}

func (b *BitgetFeed) FetchPrices(ctx context.Context) (domain.PriceSnapshot, error) {
	b.logger.Debug("Fetching spot tickers")

	var resp bitgetTickersResponse
	if err := b.getJSON(ctx, bitgetSpotTickersPath, &resp); err != nil {
		return nil, err
	}
	if resp.Code != "" && resp.Code != bitgetSuccessCode {
		return nil, b.feedError(domain.FeedMalformedResponse,
			fmt.Errorf("code %s: %s", resp.Code, resp.Msg))
	}

	tickers := make([]domain.Ticker, 0, len(resp.Data))
	for _, item := range resp.Data {
		if t, ok := toTicker(item.Symbol, item.LastPr, item.USDTVolume); ok {
			tickers = append(tickers, t)
		}
	}
	return b.snapshot(tickers), nil
}
