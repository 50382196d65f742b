package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitos/spot_arbitrage_bot/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultQuoteSuffix = "USDT"
	DefaultTimeout     = 10 * time.Second
)

// FeedConfig describes one exchange feed. It is not modified after load.
type FeedConfig struct {
	Name        string
	BaseURL     string
	QuoteSuffix string
	MinVolume   float64 // minimum 24h quote volume
	Timeout     time.Duration

	// Credentials are loaded for completeness; the public ticker endpoints
	// do not need them.
	APIKey     string
	APISecret  string
	Passphrase string
}

func (c FeedConfig) withDefaults(name, baseURL string) FeedConfig {
	if c.Name == "" {
		c.Name = name
	}
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.QuoteSuffix == "" {
		c.QuoteSuffix = DefaultQuoteSuffix
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// tickerFeed holds the transport and filtering shared by the exchange feeds.
type tickerFeed struct {
	cfg    FeedConfig
	client *http.Client
	logger *zap.Logger
}

func newTickerFeed(cfg FeedConfig, logger *zap.Logger) tickerFeed {
	return tickerFeed{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("feed", cfg.Name)),
	}
}

func (f *tickerFeed) Name() string {
	return f.cfg.Name
}

// Config returns a copy of the feed configuration.
func (f *tickerFeed) Config() FeedConfig {
	return f.cfg
}

func (f *tickerFeed) feedError(kind domain.FeedErrorKind, err error) *domain.FeedError {
	return &domain.FeedError{Feed: f.cfg.Name, Kind: kind, Err: err}
}

// getJSON performs one bounded GET and decodes the body into out. Every
// failure comes back as a *domain.FeedError.
func (f *tickerFeed) getJSON(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.BaseURL+path, nil)
	if err != nil {
		return f.feedError(domain.FeedUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return f.feedError(domain.FeedUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &domain.FeedError{Feed: f.cfg.Name, Kind: domain.FeedHTTPStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return f.feedError(domain.FeedUnreachable, fmt.Errorf("read body: %w", err))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return f.feedError(domain.FeedMalformedResponse, err)
	}
	return nil
}

// snapshot keeps tickers quoted in the configured suffix whose 24h quote
// volume reaches the minimum.
func (f *tickerFeed) snapshot(tickers []domain.Ticker) domain.PriceSnapshot {
	prices := make(domain.PriceSnapshot, len(tickers))
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, f.cfg.QuoteSuffix) {
			continue
		}
		if t.QuoteVolume24h < f.cfg.MinVolume {
			continue
		}
		if t.LastPrice <= 0 {
			continue
		}
		prices[t.Symbol] = t.LastPrice
	}

	f.logger.Info("Fetched spot tickers",
		zap.Int("received", len(tickers)),
		zap.Int("accepted", len(prices)))
	return prices
}

// numeric accepts a JSON string, number or null. Exchanges quote numbers as
// strings and leave optional fields empty.
type numeric string

func (n *numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = numeric(strings.TrimSpace(s))
		return nil
	}
	*n = numeric(data)
	return nil
}

// Float parses the value; ok is false for empty, unparsable or
// out-of-range input.
func (n numeric) Float() (v float64, ok bool) {
	if n == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return 0, false
	}
	v = d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// toTicker converts raw fields, treating a missing volume as zero. ok is
// false when the record has no symbol or no usable price.
func toTicker(symbol string, lastPrice, quoteVolume numeric) (domain.Ticker, bool) {
	if symbol == "" {
		return domain.Ticker{}, false
	}
	price, ok := lastPrice.Float()
	if !ok {
		return domain.Ticker{}, false
	}
	volume, _ := quoteVolume.Float()
	return domain.Ticker{Symbol: symbol, LastPrice: price, QuoteVolume24h: volume}, true
}
