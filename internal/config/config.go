package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vitos/spot_arbitrage_bot/internal/infrastructure/exchange"
	"github.com/vitos/spot_arbitrage_bot/internal/infrastructure/storage"
	"github.com/vitos/spot_arbitrage_bot/internal/infrastructure/telegram"
	"github.com/vitos/spot_arbitrage_bot/internal/usecase"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

const (
	StoreNone   = "none"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type ExchangeConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	APISecret  string `yaml:"api_secret"`
	Passphrase string `yaml:"passphrase"`
}

type Config struct {
	Telegram struct {
		BotToken        string        `yaml:"bot_token"`
		ChatID          string        `yaml:"chat_id"`
		MinSendInterval time.Duration `yaml:"min_send_interval"`
	} `yaml:"telegram"`
	Exchanges struct {
		Bybit  ExchangeConfig `yaml:"bybit"`
		Bitget ExchangeConfig `yaml:"bitget"`
	} `yaml:"exchanges"`
	Arbitrage struct {
		MinDiff        float64       `yaml:"min_diff"`
		MinVolume      float64       `yaml:"min_volume"`
		QuoteSuffix    string        `yaml:"quote_suffix"`
		CheckInterval  time.Duration `yaml:"check_interval"`
		ErrorBackoff   time.Duration `yaml:"error_backoff"`
		SymbolCooldown time.Duration `yaml:"symbol_cooldown"`
		FeedCooldown   time.Duration `yaml:"feed_cooldown"`
		FeedTimeout    time.Duration `yaml:"feed_timeout"`
		AutoStart      bool          `yaml:"auto_start"`
	} `yaml:"arbitrage"`
	Storage struct {
		Backend    string `yaml:"backend"`
		SQLitePath string `yaml:"sqlite_path"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"storage"`
	Logging struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
		// ControlToken guards POST /start and /stop; empty leaves them unregistered.
		ControlToken string `yaml:"control_token"`
	} `yaml:"server"`
}

// Default mirrors the constants the bot has always run with.
func Default() *Config {
	var cfg Config
	arb := usecase.DefaultArbitrageConfig()
	cfg.Telegram.MinSendInterval = time.Second
	cfg.Arbitrage.MinDiff = arb.MinDiff
	cfg.Arbitrage.MinVolume = 1_000_000
	cfg.Arbitrage.QuoteSuffix = exchange.DefaultQuoteSuffix
	cfg.Arbitrage.CheckInterval = arb.PollInterval
	cfg.Arbitrage.ErrorBackoff = arb.ErrorBackoff
	cfg.Arbitrage.SymbolCooldown = arb.SymbolCooldown
	cfg.Arbitrage.FeedCooldown = arb.FeedCooldown
	cfg.Arbitrage.FeedTimeout = exchange.DefaultTimeout
	cfg.Exchanges.Bybit.BaseURL = exchange.BybitBaseURL
	cfg.Exchanges.Bitget.BaseURL = exchange.BitgetBaseURL
	cfg.Storage.Backend = StoreNone
	cfg.Storage.SQLitePath = "arbitrage.db"
	cfg.Storage.Redis.Addr = "localhost:6379"
	cfg.Logging.Level = "info"
	cfg.Logging.Encoding = "json"
	cfg.Server.Port = 10000
	return &cfg
}

// Load merges the YAML file at path (a missing file is fine) over the
// defaults, then applies .env and process environment overrides. The result
// is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	// .env never overrides variables already set in the process.
	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	setString("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)

	setString("BYBIT_API_KEY", &cfg.Exchanges.Bybit.APIKey)
	setString("BYBIT_API_SECRET", &cfg.Exchanges.Bybit.APISecret)
	setString("BYBIT_BASE_URL", &cfg.Exchanges.Bybit.BaseURL)
	setString("BITGET_API_KEY", &cfg.Exchanges.Bitget.APIKey)
	setString("BITGET_API_SECRET", &cfg.Exchanges.Bitget.APISecret)
	setString("BITGET_PASSPHRASE", &cfg.Exchanges.Bitget.Passphrase)
	setString("BITGET_BASE_URL", &cfg.Exchanges.Bitget.BaseURL)

	setString("QUOTE_SUFFIX", &cfg.Arbitrage.QuoteSuffix)
	setString("COOLDOWN_STORE", &cfg.Storage.Backend)
	setString("SQLITE_PATH", &cfg.Storage.SQLitePath)
	setString("REDIS_ADDR", &cfg.Storage.Redis.Addr)
	setString("REDIS_PASSWORD", &cfg.Storage.Redis.Password)
	setString("LOG_LEVEL", &cfg.Logging.Level)
	setString("LOG_ENCODING", &cfg.Logging.Encoding)
	setString("CONTROL_TOKEN", &cfg.Server.ControlToken)

	var errs []error
	errs = append(errs,
		setFloat("MIN_DIFF", &cfg.Arbitrage.MinDiff),
		setFloat("MIN_VOLUME", &cfg.Arbitrage.MinVolume),
		setDuration("CHECK_INTERVAL", &cfg.Arbitrage.CheckInterval),
		setDuration("ERROR_BACKOFF", &cfg.Arbitrage.ErrorBackoff),
		setDuration("SYMBOL_COOLDOWN", &cfg.Arbitrage.SymbolCooldown),
		setDuration("FEED_COOLDOWN", &cfg.Arbitrage.FeedCooldown),
		setDuration("FEED_TIMEOUT", &cfg.Arbitrage.FeedTimeout),
		setBool("AUTO_START", &cfg.Arbitrage.AutoStart),
		setInt("PORT", &cfg.Server.Port),
		setInt("REDIS_DB", &cfg.Storage.Redis.DB),
	)
	return errors.Join(errs...)
}

// Validate fails fast on settings the bot cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Telegram.BotToken == "" {
		errs = append(errs, errors.New("missing TELEGRAM_BOT_TOKEN"))
	}
	if c.Telegram.ChatID == "" {
		errs = append(errs, errors.New("missing TELEGRAM_CHAT_ID"))
	}
	if c.Arbitrage.MinDiff < 0 {
		errs = append(errs, fmt.Errorf("min_diff must not be negative, got %v", c.Arbitrage.MinDiff))
	}
	if c.Arbitrage.MinVolume < 0 {
		errs = append(errs, fmt.Errorf("min_volume must not be negative, got %v", c.Arbitrage.MinVolume))
	}
	if c.Arbitrage.CheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("check_interval must be positive, got %s", c.Arbitrage.CheckInterval))
	}
	if c.Arbitrage.ErrorBackoff <= 0 {
		errs = append(errs, fmt.Errorf("error_backoff must be positive, got %s", c.Arbitrage.ErrorBackoff))
	}
	if c.Arbitrage.SymbolCooldown < 0 || c.Arbitrage.FeedCooldown < 0 {
		errs = append(errs, errors.New("cooldowns must not be negative"))
	}
	switch c.Storage.Backend {
	case StoreNone, StoreSQLite, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown cooldown store %q", c.Storage.Backend))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}
	return errors.Join(errs...)
}

func (c *Config) feed(ex ExchangeConfig) exchange.FeedConfig {
	return exchange.FeedConfig{
		BaseURL:     ex.BaseURL,
		QuoteSuffix: c.Arbitrage.QuoteSuffix,
		MinVolume:   c.Arbitrage.MinVolume,
		Timeout:     c.Arbitrage.FeedTimeout,
		APIKey:      ex.APIKey,
		APISecret:   ex.APISecret,
		Passphrase:  ex.Passphrase,
	}
}

func (c *Config) BybitFeed() exchange.FeedConfig {
	return c.feed(c.Exchanges.Bybit)
}

func (c *Config) BitgetFeed() exchange.FeedConfig {
	return c.feed(c.Exchanges.Bitget)
}

func (c *Config) ArbitrageConfig() usecase.ArbitrageConfig {
	return usecase.ArbitrageConfig{
		MinDiff:        c.Arbitrage.MinDiff,
		PollInterval:   c.Arbitrage.CheckInterval,
		ErrorBackoff:   c.Arbitrage.ErrorBackoff,
		SymbolCooldown: c.Arbitrage.SymbolCooldown,
		FeedCooldown:   c.Arbitrage.FeedCooldown,
	}
}

func (c *Config) TelegramConfig() telegram.Config {
	return telegram.Config{
		BotToken:        c.Telegram.BotToken,
		ChatID:          c.Telegram.ChatID,
		MinSendInterval: c.Telegram.MinSendInterval,
	}
}

func (c *Config) RedisConfig() storage.RedisConfig {
	return storage.RedisConfig{
		Addr:     c.Storage.Redis.Addr,
		Password: c.Storage.Redis.Password,
		DB:       c.Storage.Redis.DB,
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setFloat(key string, dst *float64) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func setInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

// setDuration accepts Go durations ("15s") or bare seconds ("15").
func setDuration(key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = time.Duration(secs * float64(time.Second))
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
